package hashkind

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExponentRoundTrip(t *testing.T) {
	for _, k := range []Kind{MD5, SHA1, SHA2_256, SHA3_512, BLAKE3, SIZE, QUICKMD5} {
		n, err := k.Exponent()
		require.NoError(t, err)
		require.Equal(t, k, FromExponent(n))
	}
}

func TestExponentRejectsMultiBit(t *testing.T) {
	_, err := Kind(MD5 | SHA1).Exponent()
	require.Error(t, err)
}

func TestWidths(t *testing.T) {
	cases := map[Kind]int{
		MD5:      16,
		SHA1:     20,
		SHA2_224: 28,
		SHA2_256: 32,
		SHA2_384: 48,
		SHA2_512: 64,
		SHA3_224: 28,
		SHA3_256: 32,
		SHA3_384: 48,
		SHA3_512: 64,
		BLAKE3:   32,
		ENTROPY:  8,
		SIZE:     8,
		QUICKMD5: 16,
	}
	for k, want := range cases {
		got, ok := k.Width()
		require.True(t, ok, k.String())
		require.Equal(t, want, got, k.String())
	}
}

func TestFuzzyHasNoFixedWidth(t *testing.T) {
	_, ok := FUZZY.Width()
	require.False(t, ok)
	require.Equal(t, 148, FuzzyWidth)
}

func TestIsLookupable(t *testing.T) {
	require.True(t, MD5.IsLookupable())
	require.False(t, FUZZY.IsLookupable())
	require.False(t, OTHER.IsLookupable())
}

func TestNames(t *testing.T) {
	require.Equal(t, "MD5", MD5.String())
	require.Equal(t, "SHA-2-256", SHA2_256.String())
	require.Equal(t, "Quick MD5", QUICKMD5.String())
	require.Equal(t, "Unknown", Kind(0).String())
}
