package hset

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strozfriedberg/hashset/chunk"
	"github.com/strozfriedberg/hashset/hashkind"
)

// buildTiny hand-assembles a minimal hset file (bypassing the encoder,
// which this test predates) to exercise the chunk envelope and parser
// together: three MD5 records named a, b, c.
func buildTiny(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(chunk.Magic[:])

	pos := uint64(8)
	var toc []chunk.TOCEntry

	writeChunk := func(tag chunk.Tag, payload []byte) {
		toc = append(toc, chunk.TOCEntry{Offset: pos, Tag: tag})
		n, err := chunk.WriteEnvelope(&buf, tag, payload)
		require.NoError(t, err)
		pos += uint64(n)
	}

	fhdr := chunk.FHDR{Version: 2, Name: "tiny", Timestamp: "2026-07-30T00:00:00Z", Description: "round trip test"}
	fb, err := fhdr.MarshalBinary()
	require.NoError(t, err)
	writeChunk(chunk.TagFHDR, fb)

	hashes := [][]byte{
		bytes.Repeat([]byte{0x00}, 16),
		{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		bytes.Repeat([]byte{0xFF}, 16),
	}
	tag, err := chunk.HHnnTag(hashkind.MD5)
	require.NoError(t, err)
	hh := chunk.HHnn{Name: "md5", Width: 16, HashCount: uint64(len(hashes))}
	hhb, err := hh.MarshalBinary()
	require.NoError(t, err)
	writeChunk(tag, hhb)

	var hdatBuf bytes.Buffer
	for _, h := range hashes {
		hdatBuf.Write(h)
	}
	writeChunk(chunk.TagHDAT, hdatBuf.Bytes())
	writeChunk(chunk.TagRIDX, chunk.MarshalRIDX([]uint64{0, 1, 2}))

	fields := []chunk.FieldDescriptor{{Kind: hashkind.MD5, Name: "md5", Width: 16}}
	rhdr := chunk.NewRHDR(fields, 3)
	rhdrb, err := rhdr.MarshalBinary()
	require.NoError(t, err)
	writeChunk(chunk.TagRHDR, rhdrb)

	var records []chunk.Record
	for range hashes {
		records = append(records, chunk.Record{{Present: true, Bytes: hashes[len(records)]}})
	}
	rdatb, err := chunk.MarshalRDAT(fields, records)
	require.NoError(t, err)
	writeChunk(chunk.TagRDAT, rdatb)

	writeChunk(chunk.TagFTOC, chunk.MarshalFTOC(toc))
	writeChunk(chunk.TagFEND, nil)

	buf.Write(chunk.MarshalTrailer(pos))
	return buf.Bytes()
}

func TestParseTinyRoundTrip(t *testing.T) {
	data := buildTiny(t)
	h, err := Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	require.Equal(t, "tiny", h.Name)
	require.Len(t, h.Columns, 1)
	require.Equal(t, "md5", h.Columns[0].Name)
	require.Equal(t, 3, h.Columns[0].Len())
}

func TestReaderContains(t *testing.T) {
	data := buildTiny(t)
	r := &Reader{}
	h, err := Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	r.holder = h

	require.Equal(t, "tiny", r.Name())
	idx, ok := r.ColumnIndex("md5")
	require.True(t, ok)

	require.True(t, r.Contains(idx, bytes.Repeat([]byte{0x00}, 16)))
	require.True(t, r.Contains(idx, bytes.Repeat([]byte{0xFF}, 16)))
	require.False(t, r.Contains(idx, append([]byte{0x01}, bytes.Repeat([]byte{0x00}, 15)...)))
}

func TestReaderRecordsFor(t *testing.T) {
	data := buildTiny(t)
	h, err := Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	r := &Reader{holder: h}

	idx, _ := r.ColumnIndex("md5")
	recs, ok := r.RecordsFor(idx, bytes.Repeat([]byte{0xFF}, 16))
	require.True(t, ok)
	require.Equal(t, []int{2}, recs)

	rec, ok := r.Record(2)
	require.True(t, ok)
	require.True(t, rec[0].Present)
	require.Equal(t, bytes.Repeat([]byte{0xFF}, 16), rec[0].Bytes)
}

func TestParseBadMagic(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("nope")), 4)
	require.Error(t, err)
}

func TestParseBadTrailerTag(t *testing.T) {
	data := buildTiny(t)
	corrupt := append([]byte(nil), data...)
	// Last 4 bytes are the trailer's "FTOC" tag; stomp it.
	copy(corrupt[len(corrupt)-4:], []byte("XXXX"))
	_, err := Parse(bytes.NewReader(corrupt), int64(len(corrupt)))
	require.ErrorIs(t, err, ErrBadTrailer)
}

func TestParseTrailerOffsetMismatch(t *testing.T) {
	data := buildTiny(t)
	corrupt := append([]byte(nil), data...)
	// First 8 bytes of the trailer are the FTOC offset (little-endian);
	// point it one byte earlier than the real FTOC chunk.
	offsetField := corrupt[len(corrupt)-12 : len(corrupt)-4]
	wrong := binary.LittleEndian.Uint64(offsetField) - 1
	binary.LittleEndian.PutUint64(offsetField, wrong)
	_, err := Parse(bytes.NewReader(corrupt), int64(len(corrupt)))
	require.ErrorIs(t, err, ErrTOCMismatch)
}

func TestParseFTOCEntryMismatch(t *testing.T) {
	data := buildTiny(t)
	corrupt := append([]byte(nil), data...)
	// Flip the tag of FTOC's very first entry (which names FHDR at
	// offset 8) so it no longer matches what the sequential scan
	// actually observed at that position.
	ftocOffset := binary.LittleEndian.Uint64(corrupt[len(corrupt)-12:])
	// Skip the FTOC chunk's own 4-byte tag + 8-byte length to reach its
	// payload, then the first entry's offset (8 bytes) to reach its tag.
	firstEntryTag := corrupt[ftocOffset+4+8+8 : ftocOffset+4+8+8+4]
	copy(firstEntryTag, []byte("XXXX"))
	_, err := Parse(bytes.NewReader(corrupt), int64(len(corrupt)))
	require.ErrorIs(t, err, ErrTOCMismatch)
}
