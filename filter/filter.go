// Package filter implements the optional FLTR chunk: a binary-fuse
// probabilistic prefilter consulted before the interpolation-guided
// lookup to cheaply reject obvious misses on high-latency storage. A
// filter hit is never authoritative on its own; a filter miss is.
package filter

import (
	"encoding/binary"
	"fmt"

	"github.com/FastFilter/xorfilter"
)

// Type identifies the probabilistic structure backing an FLTR chunk. Only
// BinaryFuse8 is implemented; the field exists so a future filter kind can
// be added without breaking readers that only understand this one (an
// unrecognised Type is treated the same as an absent filter: the reader
// falls through to the hint-driven lookup).
type Type uint16

const (
	TypeBinaryFuse8 Type = 1
)

// Filter wraps a binary-fuse-8 probabilistic set membership structure,
// built once over a sorted hash column and serialized verbatim into the
// FLTR chunk.
type Filter struct {
	typ Type
	bf  *xorfilter.BinaryFuse8
}

// Build constructs a binary-fuse-8 filter over keys, one per record in
// the column it guards. Binary fuse filters require at least a handful
// of keys; callers should skip filter construction entirely for very
// small columns (the lookup engine works correctly with no FLTR chunk at
// all).
func Build(keys []uint64) (*Filter, error) {
	bf, err := xorfilter.PopulateBinaryFuse8(keys)
	if err != nil {
		return nil, fmt.Errorf("filter: populate binary fuse 8: %w", err)
	}
	return &Filter{typ: TypeBinaryFuse8, bf: bf}, nil
}

// MayContain reports whether key might be a member. false is
// authoritative (the key is definitely absent); true requires falling
// through to the real lookup.
func (f *Filter) MayContain(key uint64) bool {
	return f.bf.Contains(key)
}

// MarshalBinary serializes the filter as the FLTR chunk payload: a
// 2-byte little-endian Type discriminator followed by the binary-fuse-8
// fields in the same order the original C++ binary_fuse8_t struct is
// written in (Seed, SegmentLength, SegmentLengthMask, SegmentCount,
// SegmentCountLength, ArrayLength, Fingerprints).
func (f *Filter) MarshalBinary() ([]byte, error) {
	out := make([]byte, 2+8+4+4+4+4+4+len(f.bf.Fingerprints))
	binary.LittleEndian.PutUint16(out[0:2], uint16(f.typ))
	binary.LittleEndian.PutUint64(out[2:10], f.bf.Seed)
	binary.LittleEndian.PutUint32(out[10:14], f.bf.SegmentLength)
	binary.LittleEndian.PutUint32(out[14:18], f.bf.SegmentLengthMask)
	binary.LittleEndian.PutUint32(out[18:22], f.bf.SegmentCount)
	binary.LittleEndian.PutUint32(out[22:26], f.bf.SegmentCountLength)
	binary.LittleEndian.PutUint32(out[26:30], uint32(len(f.bf.Fingerprints)))
	copy(out[30:], f.bf.Fingerprints)
	return out, nil
}

// UnmarshalBinary parses an FLTR chunk payload produced by MarshalBinary.
// An unrecognised Type yields ErrUnsupportedType; callers should treat
// that the same as an absent filter, not a fatal decode error.
func UnmarshalBinary(b []byte) (*Filter, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("filter: payload too short for type field: %d bytes", len(b))
	}
	typ := Type(binary.LittleEndian.Uint16(b[0:2]))
	if typ != TypeBinaryFuse8 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, typ)
	}
	if len(b) < 30 {
		return nil, fmt.Errorf("filter: payload too short for binary fuse 8 header: %d bytes", len(b))
	}
	bf := &xorfilter.BinaryFuse8{
		Seed:               binary.LittleEndian.Uint64(b[2:10]),
		SegmentLength:      binary.LittleEndian.Uint32(b[10:14]),
		SegmentLengthMask:  binary.LittleEndian.Uint32(b[14:18]),
		SegmentCount:       binary.LittleEndian.Uint32(b[18:22]),
		SegmentCountLength: binary.LittleEndian.Uint32(b[22:26]),
	}
	arrayLen := binary.LittleEndian.Uint32(b[26:30])
	rest := b[30:]
	if uint32(len(rest)) != arrayLen {
		return nil, fmt.Errorf("%w: array length %d, have %d bytes", ErrTruncated, arrayLen, len(rest))
	}
	bf.Fingerprints = append([]uint8(nil), rest...)
	return &Filter{typ: typ, bf: bf}, nil
}

// KeyFromHash derives the uint64 filter key for a fixed-width digest: the
// first 8 bytes, big-endian, matching the high-order bytes the lookup
// engine's interpolation math already keys on (see package lookup's
// Expected). Digests shorter than 8 bytes are zero-padded on the right.
func KeyFromHash(hash []byte) uint64 {
	var buf [8]byte
	copy(buf[:], hash)
	return binary.BigEndian.Uint64(buf[:])
}
