// Package chunk implements the hset chunk envelope and the on-disk byte
// layout of every chunk type named in the file format: a 4-byte ASCII
// tag, an 8-byte little-endian payload length, and the payload itself.
// The length field is always set from the observed bytes actually
// written by a chunk's payload encoder, never predicted in advance.
package chunk

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/strozfriedberg/hashset/byteio"
	"github.com/strozfriedberg/hashset/hashkind"
)

// Magic is the 8-byte marker that opens every hset file.
var Magic = [8]byte{'S', 'e', 't', 'O', 'H', 'a', 's', 'h'}

// Tag is a chunk's 4-byte type discriminator. For HHnn tags, the last
// two bytes carry the big-endian hash-kind exponent rather than ASCII
// text.
type Tag [4]byte

func (t Tag) String() string { return string(t[:]) }

var (
	TagFHDR = Tag{'F', 'H', 'D', 'R'}
	TagHINT = Tag{'H', 'I', 'N', 'T'}
	TagFLTR = Tag{'F', 'L', 'T', 'R'}
	TagHDAT = Tag{'H', 'D', 'A', 'T'}
	TagRIDX = Tag{'R', 'I', 'D', 'X'}
	TagRHDR = Tag{'R', 'H', 'D', 'R'}
	TagRDAT = Tag{'R', 'D', 'A', 'T'}
	TagFTOC = Tag{'F', 'T', 'O', 'C'}
	TagFEND = Tag{'F', 'E', 'N', 'D'}
)

// HHnnTag builds the discriminator for a hash column header: ASCII
// "HH" followed by the big-endian exponent n such that the column's
// hash kind equals 1<<n.
func HHnnTag(k hashkind.Kind) (Tag, error) {
	n, err := k.Exponent()
	if err != nil {
		return Tag{}, fmt.Errorf("chunk: %w", err)
	}
	var t Tag
	t[0], t[1] = 'H', 'H'
	binary.BigEndian.PutUint16(t[2:], n)
	return t, nil
}

// IsHHnn reports whether t is a hash-column header tag, returning the
// kind it names.
func IsHHnn(t Tag) (hashkind.Kind, bool) {
	if t[0] != 'H' || t[1] != 'H' {
		return 0, false
	}
	n := binary.BigEndian.Uint16(t[2:])
	return hashkind.FromExponent(n), true
}

// Envelope is a decoded chunk: its tag, and its payload bytes (borrowed
// from the underlying buffer, never copied).
type Envelope struct {
	Tag     Tag
	Payload []byte
}

// ReadEnvelope reads one chunk envelope (tag, length, payload) from r,
// advancing r past it. The payload is a zero-copy sub-slice.
func ReadEnvelope(r *byteio.Reader) (Envelope, error) {
	tagBytes, err := r.Bytes(4)
	if err != nil {
		return Envelope{}, fmt.Errorf("chunk: read tag: %w", err)
	}
	var tag Tag
	copy(tag[:], tagBytes)

	length, err := r.LE64()
	if err != nil {
		return Envelope{}, fmt.Errorf("chunk: read length for tag %q: %w", tag, err)
	}
	if length > uint64(^uint(0)>>1) {
		return Envelope{}, fmt.Errorf("chunk: length %d for tag %q overflows platform int", length, tag)
	}
	payload, err := r.Bytes(int(length))
	if err != nil {
		return Envelope{}, fmt.Errorf("chunk: read payload (%d bytes) for tag %q: %w", length, tag, err)
	}
	return Envelope{Tag: tag, Payload: payload}, nil
}

// WriteEnvelope writes tag, the 8-byte little-endian length of payload,
// then payload itself to w, returning the total bytes written. This is
// the writer-side equivalent of the length back-patching spec.md
// describes: since payload is already fully materialized in memory by
// the time WriteEnvelope is called, there is nothing to back-patch —
// the length is simply len(payload), the observed length, not a
// prediction.
func WriteEnvelope(w io.Writer, tag Tag, payload []byte) (int64, error) {
	n, err := w.Write(tag[:])
	if err != nil {
		return int64(n), fmt.Errorf("chunk: write tag %q: %w", tag, err)
	}
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	n2, err := w.Write(lenBuf[:])
	total := int64(n + n2)
	if err != nil {
		return total, fmt.Errorf("chunk: write length for tag %q: %w", tag, err)
	}
	n3, err := w.Write(payload)
	total += int64(n3)
	if err != nil {
		return total, fmt.Errorf("chunk: write payload for tag %q: %w", tag, err)
	}
	return total, nil
}

// AlignmentPadding returns the number of zero bytes needed at file
// offset pos to bring the next write up to a multiple of align. Used to
// pad immediately before the HDAT tag (Open Question #1: padding goes
// before the tag, not after).
func AlignmentPadding(pos, align uint64) uint64 {
	return (align - pos%align) % align
}
