package filter

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func keys(n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(i)*2654435761 + 1
	}
	return out
}

func TestBuildAndRoundTrip(t *testing.T) {
	ks := keys(2000)
	f, err := Build(ks)
	require.NoError(t, err)

	for _, k := range ks {
		require.True(t, f.MayContain(k))
	}

	b, err := f.MarshalBinary()
	require.NoError(t, err)

	f2, err := UnmarshalBinary(b)
	require.NoError(t, err)
	for _, k := range ks {
		require.True(t, f2.MayContain(k))
	}
}

func TestUnmarshalUnsupportedType(t *testing.T) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, 0xFFFF)
	_, err := UnmarshalBinary(b)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestKeyFromHash(t *testing.T) {
	hash := make([]byte, 16)
	hash[0] = 0xFF
	k := KeyFromHash(hash)
	require.Equal(t, uint64(0xFF00000000000000), k)
}
