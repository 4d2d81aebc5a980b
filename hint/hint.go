// Package hint computes and encodes the HINT chunk: the per-column
// search-window narrowing data that drives package lookup's strategies.
// A single linear pass over a sorted column computes, for every index i,
// the delta between i and its interpolated expected index; the spread of
// those deltas (globally, or per top-bucketBits-of-first-byte bucket)
// becomes the Radius/Range/Block bounds.
package hint

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/strozfriedberg/hashset/lookup"
)

// Type discriminates which lookup strategy a HINT chunk encodes. The
// wire encoding is a little-endian uint16: 0 means Basic (no HINT chunk
// is ever emitted for Basic — a reader that finds no HINT chunk for a
// column uses Basic by construction), 1 means Radius, 2 means Range, and
// 0x6200|bucketBits means Block with that many bucket bits (low byte the
// bucket-bit count, high byte the ASCII 'b' = 0x62 tag byte).
type Type uint16

const (
	TypeRadius Type = 1
	TypeRange  Type = 2
	blockTag   Type = 0x6200
)

// BlockType returns the Type value for a Block hint with the given
// bucket-bit count (1..8).
func BlockType(bucketBits uint8) Type {
	return blockTag | Type(bucketBits)
}

// IsBlock reports whether t names a Block hint, returning its bucket-bit
// count.
func (t Type) IsBlock() (uint8, bool) {
	if t&0xFF00 == blockTag {
		return uint8(t & 0x00FF), true
	}
	return 0, false
}

// MarshalBinary encodes t as two little-endian bytes.
func (t Type) MarshalBinary() ([]byte, error) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(t))
	return b, nil
}

// UnmarshalType decodes a Type from its two-byte little-endian wire form.
func UnmarshalType(b []byte) (Type, error) {
	if len(b) < 2 {
		return 0, fmt.Errorf("hint: type field needs 2 bytes, got %d", len(b))
	}
	return Type(binary.LittleEndian.Uint16(b)), nil
}

// Kind selects which strategy shape Build should compute.
type Kind int

const (
	KindRadius Kind = iota
	KindRange
	KindBlock
)

// Hash is the narrow view Build needs over a sorted column: its length
// and the bytes of the key at a given index.
type Hash interface {
	Len() int
	KeyAt(i int) []byte
}

// Built is the result of computing a hint over a column: its wire Type
// and a ready-to-use lookup.Strategy.
type Built struct {
	Type     Type
	Strategy lookup.Strategy
}

// Build computes a hint of the requested kind over col in one linear
// pass. For KindBlock, bucketBits selects 1<<bucketBits buckets indexed
// by the top bucketBits bits of each key's first byte; it is ignored for
// the other kinds.
func Build(kind Kind, bucketBits uint8, col Hash) (Built, error) {
	n := col.Len()
	switch kind {
	case KindRadius:
		var maxAbs int64
		for i := 0; i < n; i++ {
			d := delta(col, i, n)
			if d < 0 {
				d = -d
			}
			if d > maxAbs {
				maxAbs = d
			}
		}
		return Built{Type: TypeRadius, Strategy: lookup.Radius{R: uint32(maxAbs)}}, nil

	case KindRange:
		minD, maxD := int64(0), int64(0)
		for i := 0; i < n; i++ {
			d := delta(col, i, n)
			if d < minD {
				minD = d
			}
			if d > maxD {
				maxD = d
			}
		}
		return Built{Type: TypeRange, Strategy: lookup.Range{Left: minD, Right: maxD}}, nil

	case KindBlock:
		if bucketBits == 0 || bucketBits > 8 {
			return Built{}, fmt.Errorf("hint: bucketBits must be in 1..8, got %d", bucketBits)
		}
		numBuckets := 1 << bucketBits
		bounds := make([]lookup.BlockBound, numBuckets)
		seen := make([]bool, numBuckets)
		for i := 0; i < n; i++ {
			key := col.KeyAt(i)
			d := delta(col, i, n)
			var first byte
			if len(key) > 0 {
				first = key[0]
			}
			bi := int(first >> (8 - bucketBits))
			if !seen[bi] {
				bounds[bi] = lookup.BlockBound{Left: d, Right: d}
				seen[bi] = true
				continue
			}
			if d < bounds[bi].Left {
				bounds[bi].Left = d
			}
			if d > bounds[bi].Right {
				bounds[bi].Right = d
			}
		}
		// An empty bucket means no key in the column has that prefix;
		// fall back to the full column range so the window narrowing
		// degrades to a full binary search instead of an empty one.
		for bi := range bounds {
			if !seen[bi] {
				bounds[bi] = lookup.BlockBound{Left: -int64(n), Right: int64(n)}
			}
		}
		blk, err := lookup.NewBlock(bucketBits, bounds)
		if err != nil {
			return Built{}, err
		}
		return Built{Type: BlockType(bucketBits), Strategy: blk}, nil
	}
	return Built{}, fmt.Errorf("hint: unknown kind %d", kind)
}

func delta(col Hash, i, n int) int64 {
	exp := int64(lookup.Expected(col.KeyAt(i), uint32(n)))
	return int64(i) - exp
}

// MarshalBinary serializes a Built hint as a HINT chunk payload: the
// 2-byte Type, followed by the strategy's bounds (Radius: a single
// little-endian uint32; Range: two little-endian int64; Block: 1<<bits
// pairs of little-endian int64).
func (b Built) MarshalBinary() ([]byte, error) {
	typeBytes, _ := b.Type.MarshalBinary()

	switch s := b.Strategy.(type) {
	case lookup.Radius:
		out := make([]byte, 2+4)
		copy(out, typeBytes)
		binary.LittleEndian.PutUint32(out[2:], s.R)
		return out, nil

	case lookup.Range:
		out := make([]byte, 2+16)
		copy(out, typeBytes)
		binary.LittleEndian.PutUint64(out[2:10], uint64(s.Left))
		binary.LittleEndian.PutUint64(out[10:18], uint64(s.Right))
		return out, nil

	case *lookup.Block:
		out := make([]byte, 2+len(s.Bounds)*16)
		copy(out, typeBytes)
		off := 2
		for _, bnd := range s.Bounds {
			binary.LittleEndian.PutUint64(out[off:off+8], uint64(bnd.Left))
			binary.LittleEndian.PutUint64(out[off+8:off+16], uint64(bnd.Right))
			off += 16
		}
		return out, nil

	default:
		return nil, fmt.Errorf("hint: unsupported strategy type %T", s)
	}
}

// Unmarshal decodes a HINT chunk payload into a ready-to-use
// lookup.Strategy and its Type.
func Unmarshal(b []byte) (Built, error) {
	typ, err := UnmarshalType(b)
	if err != nil {
		return Built{}, err
	}
	body := b[2:]

	if bits, ok := typ.IsBlock(); ok {
		numBuckets := 1 << bits
		want := numBuckets * 16
		if len(body) != want {
			return Built{}, fmt.Errorf("hint: block payload is %d bytes, want %d", len(body), want)
		}
		bounds := make([]lookup.BlockBound, numBuckets)
		off := 0
		for i := range bounds {
			left := int64(binary.LittleEndian.Uint64(body[off : off+8]))
			right := int64(binary.LittleEndian.Uint64(body[off+8 : off+16]))
			bounds[i] = lookup.BlockBound{Left: left, Right: right}
			off += 16
		}
		blk, err := lookup.NewBlock(bits, bounds)
		if err != nil {
			return Built{}, err
		}
		return Built{Type: typ, Strategy: blk}, nil
	}

	switch typ {
	case TypeRadius:
		if len(body) != 4 {
			return Built{}, fmt.Errorf("hint: radius payload is %d bytes, want 4", len(body))
		}
		r := binary.LittleEndian.Uint32(body)
		return Built{Type: typ, Strategy: lookup.Radius{R: r}}, nil

	case TypeRange:
		if len(body) != 16 {
			return Built{}, fmt.Errorf("hint: range payload is %d bytes, want 16", len(body))
		}
		left := int64(binary.LittleEndian.Uint64(body[0:8]))
		right := int64(binary.LittleEndian.Uint64(body[8:16]))
		return Built{Type: typ, Strategy: lookup.Range{Left: left, Right: right}}, nil
	}

	return Built{}, fmt.Errorf("hint: unrecognised hint type %#x", uint16(typ))
}

// maxRadius is a sanity ceiling: a column wider than this many records
// cannot be represented by a Radius hint's uint32 field.
const maxRadius = math.MaxUint32
