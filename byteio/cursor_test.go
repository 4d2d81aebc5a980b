package byteio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.U8(0xAB)
	w.LE16(0x1234)
	w.LE32(0xDEADBEEF)
	w.LE64(0x0102030405060708)
	w.BE16(0x1234)
	w.BE32(0xDEADBEEF)
	require.NoError(t, w.PString("hello"))

	r := NewReader(w.Bytes())

	u8, err := r.U8()
	require.NoError(t, err)
	require.Equal(t, uint8(0xAB), u8)

	le16, err := r.LE16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), le16)

	le32, err := r.LE32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), le32)

	le64, err := r.LE64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), le64)

	be16, err := r.BE16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), be16)

	be32, err := r.BE32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), be32)

	s, err := r.PString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	require.Equal(t, 0, r.Len())
}

func TestReaderOutOfData(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_, err := r.LE32()
	require.ErrorIs(t, err, ErrOutOfData)
}

func TestReaderPStringOutOfData(t *testing.T) {
	w := NewWriter()
	w.LE16(10)
	w.U8(1)
	r := NewReader(w.Bytes())
	_, err := r.PString()
	require.ErrorIs(t, err, ErrOutOfData)
}

func TestWriterPStringTooLong(t *testing.T) {
	w := NewWriter()
	long := make([]byte, 0x10000)
	err := w.PString(string(long))
	require.Error(t, err)
}

func TestReaderBytesIsZeroCopy(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	r := NewReader(buf)
	b, err := r.Bytes(4)
	require.NoError(t, err)
	b[0] = 0xFF
	require.Equal(t, byte(0xFF), buf[0])
}

func TestFixedWriterOutOfSpace(t *testing.T) {
	w := NewFixedWriter(make([]byte, 3))
	require.NoError(t, w.U8(1))
	require.NoError(t, w.LE16(2))
	err := w.U8(3)
	require.ErrorIs(t, err, ErrOutOfSpace)
}

func TestFixedWriterBackPatch(t *testing.T) {
	buf := make([]byte, 8)
	w := NewFixedWriter(buf)
	require.NoError(t, w.LE64(0))
	require.NoError(t, w.Seek(0))
	require.NoError(t, w.LE64(0xFFEEDDCCBBAA9988))

	r := NewReader(buf)
	v, err := r.LE64()
	require.NoError(t, err)
	require.Equal(t, uint64(0xFFEEDDCCBBAA9988), v)
}
