package chunk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strozfriedberg/hashset/byteio"
	"github.com/strozfriedberg/hashset/hashkind"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteEnvelope(&buf, TagFHDR, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, int64(4+8+5), n)

	r := byteio.NewReader(buf.Bytes())
	env, err := ReadEnvelope(r)
	require.NoError(t, err)
	require.Equal(t, TagFHDR, env.Tag)
	require.Equal(t, []byte("hello"), env.Payload)
}

func TestHHnnTagRoundTrip(t *testing.T) {
	tag, err := HHnnTag(hashkind.MD5)
	require.NoError(t, err)
	require.Equal(t, byte('H'), tag[0])
	require.Equal(t, byte('H'), tag[1])

	k, ok := IsHHnn(tag)
	require.True(t, ok)
	require.Equal(t, hashkind.MD5, k)
}

func TestFHDRRoundTrip(t *testing.T) {
	f := FHDR{Version: 2, Name: "tiny", Timestamp: "2026-07-30T00:00:00Z", Description: "test set"}
	b, err := f.MarshalBinary()
	require.NoError(t, err)

	got, err := UnmarshalFHDR(b)
	require.NoError(t, err)
	require.Equal(t, f.Version, got.Version)
	require.Equal(t, f.Name, got.Name)
	require.Equal(t, f.Timestamp, got.Timestamp)
	require.Equal(t, f.Description, got.Description)
	require.Nil(t, got.Meta)
}

func TestHHnnRoundTrip(t *testing.T) {
	h := HHnn{Name: "md5", Width: 16, HashCount: 3}
	b, err := h.MarshalBinary()
	require.NoError(t, err)

	got, err := UnmarshalHHnn(b)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestRHDRAndRDATRoundTrip(t *testing.T) {
	fields := []FieldDescriptor{
		{Kind: hashkind.MD5, Name: "md5", Width: 16},
		{Kind: hashkind.SIZE, Name: "size", Width: 8},
	}
	hdr := NewRHDR(fields, 2)
	require.Equal(t, uint64(1+16+1+8), hdr.RecordLength)

	b, err := hdr.MarshalBinary()
	require.NoError(t, err)
	got, err := UnmarshalRHDR(b)
	require.NoError(t, err)
	require.Equal(t, hdr, got)

	records := []Record{
		{
			{Present: true, Bytes: bytes.Repeat([]byte{0xAB}, 16)},
			{Present: true, Bytes: []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		},
		{
			{Present: false},
			{Present: true, Bytes: []byte{2, 0, 0, 0, 0, 0, 0, 0}},
		},
	}
	rdatBytes, err := MarshalRDAT(fields, records)
	require.NoError(t, err)
	require.Len(t, rdatBytes, int(hdr.RecordLength)*2)

	gotRecords, err := UnmarshalRDAT(fields, 2, rdatBytes)
	require.NoError(t, err)
	require.Equal(t, records[0][0].Present, gotRecords[0][0].Present)
	require.Equal(t, records[0][0].Bytes, gotRecords[0][0].Bytes)
	require.False(t, gotRecords[1][0].Present)
	require.Equal(t, make([]byte, 16), gotRecords[1][0].Bytes)
}

func TestRIDXRoundTrip(t *testing.T) {
	ridx := []uint64{3, 1, 4, 1, 5}
	b := MarshalRIDX(ridx)
	got, err := UnmarshalRIDX(b)
	require.NoError(t, err)
	require.Equal(t, ridx, got)
}

func TestFTOCAndTrailerRoundTrip(t *testing.T) {
	entries := []TOCEntry{
		{Offset: 8, Tag: TagFHDR},
		{Offset: 100, Tag: TagHDAT},
	}
	b := MarshalFTOC(entries)
	got, err := UnmarshalFTOC(b)
	require.NoError(t, err)
	require.Equal(t, entries, got)

	trailer := MarshalTrailer(12345)
	off, err := UnmarshalTrailer(trailer)
	require.NoError(t, err)
	require.Equal(t, uint64(12345), off)
}

func TestAlignmentPadding(t *testing.T) {
	require.Equal(t, uint64(0), AlignmentPadding(4096, 4096))
	require.Equal(t, uint64(4095), AlignmentPadding(1, 4096))
	require.Equal(t, uint64(0), AlignmentPadding(8192, 4096))
}
