// Package hashkind defines the fixed catalog of digest kinds a hashset
// column can hold: their bit-flag identity, canonical name, and (where
// fixed) byte width. The exponent carried in an HHnn chunk tag is the bit
// position of one of these flags.
package hashkind

import "fmt"

// Kind is a single-bit flag identifying one digest algorithm or companion
// field. Each value is 1<<n for its bit position n, so that a column's identity can be
// carried as the 2-byte exponent in an HHnn chunk tag (spec: HH + big-endian
// exponent n where kind == 1<<n).
type Kind uint64

const (
	MD5 Kind = 1 << iota
	SHA1
	SHA2_224
	SHA2_256
	SHA2_384
	SHA2_512
	SHA3_224
	SHA3_256
	SHA3_384
	SHA3_512
	BLAKE3
	FUZZY
	ENTROPY
	SIZE
	QUICKMD5
	OTHER
)

// widthFixed is the on-disk byte width of every kind whose width is
// constant across all instances. FUZZY is a variable-payload null-padded
// string and has no single fixed width; OTHER is reserved and carries no
// width at all. Both are absent from this table.
var widthFixed = map[Kind]int{
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

// FuzzyWidth is the fixed on-disk slot width reserved for a FUZZY column:
// a null-padded ssdeep signature string. The column is excluded from the
// lookup engine (spec §3) but still occupies a fixed-width slot in RDAT.
const FuzzyWidth = 148

var names = map[Kind]string{
	MD5:      "MD5",
	SHA1:     "SHA-1",
	SHA2_224: "SHA-2-224",
	SHA2_256: "SHA-2-256",
	SHA2_384: "SHA-2-384",
	SHA2_512: "SHA-2-512",
	SHA3_224: "SHA-3-224",
	SHA3_256: "SHA-3-256",
	SHA3_384: "SHA-3-384",
	SHA3_512: "SHA-3-512",
	BLAKE3:   "BLAKE3",
	FUZZY:    "Fuzzy",
	ENTROPY:  "Entropy",
	SIZE:     "Size",
	QUICKMD5: "Quick MD5",
	OTHER:    "Other",
}

// String returns the kind's canonical display name, or "Unknown" for a
// value with no set bit or more than one set bit.
func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "Unknown"
}

// Exponent returns n such that k == 1<<n, for use as an HHnn chunk tag's
// big-endian exponent. It errors if k is not a single-bit value.
func (k Kind) Exponent() (uint16, error) {
	if k == 0 || k&(k-1) != 0 {
		return 0, fmt.Errorf("hashkind: %d is not a single-bit kind", uint64(k))
	}
	n := 0
	for v := k; v > 1; v >>= 1 {
		n++
	}
	if n > 0xFFFF {
		return 0, fmt.Errorf("hashkind: exponent %d overflows uint16", n)
	}
	return uint16(n), nil
}

// FromExponent recovers the Kind named by an HHnn chunk tag's exponent.
func FromExponent(n uint16) Kind {
	return Kind(1) << uint(n)
}

// Width reports the fixed on-disk byte width of k and whether k has one.
// FUZZY and OTHER report false; callers needing FUZZY's reserved slot
// width should use FuzzyWidth directly.
func (k Kind) Width() (int, bool) {
	w, ok := widthFixed[k]
	return w, ok
}

// IsLookupable reports whether a column of this kind participates in the
// interpolation-guided lookup engine. FUZZY columns are stored but
// excluded, per spec §3.
func (k Kind) IsLookupable() bool {
	return k != FUZZY && k != OTHER
}

// Known reports whether k is one of the recognised catalog entries.
func (k Kind) Known() bool {
	_, ok := names[k]
	return ok
}
