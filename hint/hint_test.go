package hint

import (
	"encoding/binary"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strozfriedberg/hashset/lookup"
)

type col [][]byte

func (c col) Len() int          { return len(c) }
func (c col) KeyAt(i int) []byte { return c[i] }

func mkKey(v uint32, width int) []byte {
	b := make([]byte, width)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func sortedCol(n int) col {
	c := make(col, n)
	for i := range c {
		c[i] = mkKey(uint32(i)*104729, 16)
	}
	sort.Slice(c, func(i, j int) bool {
		for k := range c[i] {
			if c[i][k] != c[j][k] {
				return c[i][k] < c[j][k]
			}
		}
		return false
	})
	return c
}

func TestTypeRoundTrip(t *testing.T) {
	for _, typ := range []Type{TypeRadius, TypeRange, BlockType(8), BlockType(1)} {
		b, err := typ.MarshalBinary()
		require.NoError(t, err)
		got, err := UnmarshalType(b)
		require.NoError(t, err)
		require.Equal(t, typ, got)
	}
}

func TestBlockTypeByteOrder(t *testing.T) {
	typ := BlockType(8)
	b, _ := typ.MarshalBinary()
	require.Equal(t, byte(8), b[0])
	require.Equal(t, byte(0x62), b[1])
}

func TestBuildRadiusAndRoundTripContains(t *testing.T) {
	c := sortedCol(300)
	built, err := Build(KindRadius, 0, c)
	require.NoError(t, err)

	b, err := built.MarshalBinary()
	require.NoError(t, err)

	got, err := Unmarshal(b)
	require.NoError(t, err)
	require.Equal(t, TypeRadius, got.Type)

	for _, k := range c {
		require.True(t, lookupContains(t, got, c, k))
	}
}

func TestBuildRangeRoundTrip(t *testing.T) {
	c := sortedCol(300)
	built, err := Build(KindRange, 0, c)
	require.NoError(t, err)

	b, err := built.MarshalBinary()
	require.NoError(t, err)
	got, err := Unmarshal(b)
	require.NoError(t, err)

	for _, k := range c {
		require.True(t, lookupContains(t, got, c, k))
	}
}

func TestBuildBlockRoundTrip(t *testing.T) {
	c := sortedCol(500)
	built, err := Build(KindBlock, 4, c)
	require.NoError(t, err)

	b, err := built.MarshalBinary()
	require.NoError(t, err)
	got, err := Unmarshal(b)
	require.NoError(t, err)
	bits, ok := got.Type.IsBlock()
	require.True(t, ok)
	require.Equal(t, uint8(4), bits)

	for _, k := range c {
		require.True(t, lookupContains(t, got, c, k))
	}
}

func lookupContains(t *testing.T, built Built, c col, key []byte) bool {
	t.Helper()
	return lookup.Contains(built.Strategy, c, key)
}
