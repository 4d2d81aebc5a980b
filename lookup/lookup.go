// Package lookup implements the interpolation-guided membership
// strategies driving a hashset column's Contains query: Basic, Radius,
// Range, and Block. Every strategy narrows a full binary search down to
// a window around an interpolated expected index, then falls back to a
// bounds-checked binary search within that window. A miss is always
// authoritative.
package lookup

import (
	"bytes"
	"fmt"
	"sort"
)

// Expected computes the interpolated index of a query q within a sorted
// column of n fixed-width keys, assuming keys are uniformly distributed:
// floor(high32(q) * n / 2^32), where high32 is the big-endian uint32
// formed by q's first four bytes. The whole computation happens in
// 64-bit arithmetic to avoid overflow, mirroring the original
// expected_index computation bit for bit.
func Expected(q []byte, n uint32) uint32 {
	var high32 uint32
	for i := 0; i < 4; i++ {
		high32 <<= 8
		if i < len(q) {
			high32 |= uint32(q[i])
		}
	}
	return uint32((uint64(high32) * uint64(n)) >> 32)
}

// Column is the narrow surface a lookup strategy needs over a sorted,
// fixed-width hash column: its length and the key bytes stored at index
// i. hset.Column implements this directly over its HDAT bytes.
type Column interface {
	Len() int
	KeyAt(i int) []byte
}

// Strategy answers Contains(q) against a Column, using the window its
// Window method computes to bound the binary search.
type Strategy interface {
	// Window returns the half-open index range [lo, hi) a binary search
	// should be confined to for query q, already clamped to [0, col.Len()].
	Window(col Column, q []byte) (lo, hi int)
}

// Contains performs a bounds-checked binary search for q within the
// window strategy computes over col. A Column with zero length always
// reports false.
func Contains(strategy Strategy, col Column, q []byte) bool {
	if col.Len() == 0 {
		return false
	}
	lo, hi := strategy.Window(col, q)
	if lo < 0 {
		lo = 0
	}
	if hi > col.Len() {
		hi = col.Len()
	}
	if lo >= hi {
		return false
	}
	idx := sort.Search(hi-lo, func(i int) bool {
		return bytes.Compare(col.KeyAt(lo+i), q) >= 0
	})
	idx += lo
	return idx < hi && bytes.Equal(col.KeyAt(idx), q)
}

// IndexOf performs the same bounds-checked, windowed binary search as
// Contains but returns the position of q, or (-1, false) if absent. Used
// by RecordsFor to locate the record position matching a hash.
func IndexOf(strategy Strategy, col Column, q []byte) (int, bool) {
	if col.Len() == 0 {
		return -1, false
	}
	lo, hi := strategy.Window(col, q)
	if lo < 0 {
		lo = 0
	}
	if hi > col.Len() {
		hi = col.Len()
	}
	if lo >= hi {
		return -1, false
	}
	idx := sort.Search(hi-lo, func(i int) bool {
		return bytes.Compare(col.KeyAt(lo+i), q) >= 0
	})
	idx += lo
	if idx < hi && bytes.Equal(col.KeyAt(idx), q) {
		return idx, true
	}
	return -1, false
}

// Basic performs a full binary search with no narrowing hint at all. It
// is always correct; every other strategy degrades to it within its
// window.
type Basic struct{}

func (Basic) Window(col Column, _ []byte) (int, int) {
	return 0, col.Len()
}

// Radius narrows the search to [expected-r, expected+r], clamped.
type Radius struct {
	R uint32
}

func (s Radius) Window(col Column, q []byte) (int, int) {
	n := col.Len()
	exp := int64(Expected(q, uint32(n)))
	lo := exp - int64(s.R)
	hi := exp + int64(s.R) + 1
	return clamp(lo, hi, n)
}

// Range narrows the search to [expected+Left, expected+Right], clamped.
// Left and Right are signed deltas computed once at hint-build time from
// the global minimum and maximum per-index deltas observed across the
// whole column.
type Range struct {
	Left, Right int64
}

func (s Range) Window(col Column, q []byte) (int, int) {
	n := col.Len()
	exp := int64(Expected(q, uint32(n)))
	lo := exp + s.Left
	hi := exp + s.Right + 1
	return clamp(lo, hi, n)
}

// BlockBound is the per-bucket (Left,Right) delta pair a Block strategy
// adds to the interpolated expected index to form its search window.
type BlockBound struct {
	Left, Right int64
}

// Block narrows the search using one of 2^BucketBits (Left,Right) delta
// pairs, selected by the top BucketBits bits of q's first byte.
type Block struct {
	BucketBits uint8
	Bounds     []BlockBound
}

func NewBlock(bucketBits uint8, bounds []BlockBound) (*Block, error) {
	want := 1 << bucketBits
	if len(bounds) != want {
		return nil, fmt.Errorf("lookup: block hint needs %d buckets for %d bits, got %d", want, bucketBits, len(bounds))
	}
	return &Block{BucketBits: bucketBits, Bounds: bounds}, nil
}

func (s *Block) Window(col Column, q []byte) (int, int) {
	n := col.Len()
	exp := int64(Expected(q, uint32(n)))
	var first byte
	if len(q) > 0 {
		first = q[0]
	}
	bi := int(first >> (8 - s.BucketBits))
	b := s.Bounds[bi]
	lo := exp + b.Left
	hi := exp + b.Right + 1
	return clamp(lo, hi, n)
}

func clamp(lo, hi int64, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > int64(n) {
		hi = int64(n)
	}
	if lo > int64(n) {
		lo = int64(n)
	}
	if hi < 0 {
		hi = 0
	}
	return int(lo), int(hi)
}
