package hsetmeta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	var m Meta
	require.NoError(t, m.AddString([]byte("corpus"), "NSRL-2026"))
	require.NoError(t, m.AddUint64([]byte("epoch"), 42))

	b := m.Bytes()

	var m2 Meta
	require.NoError(t, m2.UnmarshalBinary(b))

	s, ok := m2.GetString([]byte("corpus"))
	require.True(t, ok)
	require.Equal(t, "NSRL-2026", s)

	v, ok := m2.GetUint64([]byte("epoch"))
	require.True(t, ok)
	require.Equal(t, uint64(42), v)
}

func TestEmptyRoundTrip(t *testing.T) {
	var m Meta
	b := m.Bytes()
	require.Equal(t, []byte{0}, b)

	var m2 Meta
	require.NoError(t, m2.UnmarshalBinary(b))
	require.Empty(t, m2.KeyVals)
}

func TestGetMissing(t *testing.T) {
	var m Meta
	_, ok := m.Get([]byte("nope"))
	require.False(t, ok)
}

func TestRemoveAndDuplicates(t *testing.T) {
	var m Meta
	require.NoError(t, m.Add([]byte("k"), []byte("v1")))
	require.NoError(t, m.Add([]byte("k"), []byte("v2")))
	require.True(t, m.HasDuplicateKeys())
	require.Equal(t, 2, m.Count([]byte("k")))

	m.Remove([]byte("k"))
	require.Equal(t, 0, m.Count([]byte("k")))
}

func TestCapsEnforced(t *testing.T) {
	var m Meta
	longKey := make([]byte, MaxKeySize+1)
	err := m.Add(longKey, []byte("v"))
	require.Error(t, err)
}
