package encoder

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strozfriedberg/hashset/chunk"
	"github.com/strozfriedberg/hashset/hashkind"
	"github.com/strozfriedberg/hashset/hint"
	"github.com/strozfriedberg/hashset/hset"
)

func md5of(b byte) []byte {
	out := make([]byte, 16)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestBuildAndParseRoundTrip(t *testing.T) {
	fields := []chunk.FieldDescriptor{{Kind: hashkind.MD5, Name: "md5", Width: 16}}
	b, err := NewBuilder("t", "desc", fields)
	require.NoError(t, err)

	require.NoError(t, b.Insert(chunk.Record{{Present: true, Bytes: md5of(0xFF)}}))
	require.NoError(t, b.Insert(chunk.Record{{Present: true, Bytes: md5of(0x00)}}))
	require.NoError(t, b.Insert(chunk.Record{{Present: true, Bytes: md5of(0x80)}}))

	f, err := os.CreateTemp("", "hashset-test-*.hset")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()

	require.NoError(t, b.SealAndClose(context.Background(), f))

	stat, err := f.Stat()
	require.NoError(t, err)
	h, err := hset.Parse(f, stat.Size())
	require.NoError(t, err)

	require.Equal(t, "t", h.Name)
	require.Len(t, h.Columns, 1)
	require.Equal(t, 3, h.Columns[0].Len())
	require.True(t, h.Columns[0].Contains(md5of(0x00)))
	require.True(t, h.Columns[0].Contains(md5of(0xFF)))
	require.False(t, h.Columns[0].Contains(md5of(0x01)))
}

func TestBuildStampsBuildID(t *testing.T) {
	fields := []chunk.FieldDescriptor{{Kind: hashkind.MD5, Name: "md5", Width: 16}}
	b, err := NewBuilder("t", "", fields)
	require.NoError(t, err)
	require.NoError(t, b.Insert(chunk.Record{{Present: true, Bytes: md5of(0x01)}}))

	f, err := os.CreateTemp("", "hashset-test-*.hset")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()

	require.NoError(t, b.SealAndClose(context.Background(), f))

	stat, err := f.Stat()
	require.NoError(t, err)
	h, err := hset.Parse(f, stat.Size())
	require.NoError(t, err)
	id, ok := h.Meta.GetString([]byte("build-id"))
	require.True(t, ok)
	require.NotEmpty(t, id)
}

func TestBuildRejectsDuplicateByDefault(t *testing.T) {
	fields := []chunk.FieldDescriptor{{Kind: hashkind.MD5, Name: "md5", Width: 16}}
	b, err := NewBuilder("t", "", fields)
	require.NoError(t, err)
	require.NoError(t, b.Insert(chunk.Record{{Present: true, Bytes: md5of(0x01)}}))
	require.NoError(t, b.Insert(chunk.Record{{Present: true, Bytes: md5of(0x01)}}))

	f, err := os.CreateTemp("", "hashset-test-*.hset")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()

	err = b.SealAndClose(context.Background(), f)
	require.Error(t, err)
}

func TestBuildAllowsDuplicateWhenOptedIn(t *testing.T) {
	fields := []chunk.FieldDescriptor{{Kind: hashkind.MD5, Name: "md5", Width: 16}}
	b, err := NewBuilder("t", "", fields, WithAllowDuplicateHashes())
	require.NoError(t, err)
	require.NoError(t, b.Insert(chunk.Record{{Present: true, Bytes: md5of(0x01)}}))
	require.NoError(t, b.Insert(chunk.Record{{Present: true, Bytes: md5of(0x01)}}))

	f, err := os.CreateTemp("", "hashset-test-*.hset")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()

	require.NoError(t, b.SealAndClose(context.Background(), f))

	stat, err := f.Stat()
	require.NoError(t, err)
	h, err := hset.Parse(f, stat.Size())
	require.NoError(t, err)
	require.Equal(t, 2, h.Columns[0].Len())
}

func TestBuildWithFilterAndRange(t *testing.T) {
	fields := []chunk.FieldDescriptor{{Kind: hashkind.SHA1, Name: "sha1", Width: 20}}
	b, err := NewBuilder("t", "", fields, WithFilter(4), WithHintKind(hint.KindRange, 0))
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		v := make([]byte, 20)
		v[0] = byte(i * 6)
		v[1] = byte(i)
		require.NoError(t, b.Insert(chunk.Record{{Present: true, Bytes: v}}))
	}

	f, err := os.CreateTemp("", "hashset-test-*.hset")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()

	require.NoError(t, b.SealAndClose(context.Background(), f))

	stat, err := f.Stat()
	require.NoError(t, err)
	h, err := hset.Parse(f, stat.Size())
	require.NoError(t, err)
	require.NotNil(t, h.Columns[0].Filter)

	v0 := make([]byte, 20)
	require.True(t, h.Columns[0].Contains(v0))
}
