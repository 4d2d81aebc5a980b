package hset

import "errors"

var (
	// ErrOutOfData is returned when a file ends before a chunk's declared
	// length is satisfied.
	ErrOutOfData = errors.New("hset: out of data")
	// ErrBadMagic is returned when a file does not open with "SetOHash".
	ErrBadMagic = errors.New("hset: bad magic")
	// ErrUnsupportedVersion is returned for an FHDR version this package
	// does not know how to read.
	ErrUnsupportedVersion = errors.New("hset: unsupported version")
	// ErrUnknownChunk is returned for a chunk tag this package does not
	// recognise at all.
	ErrUnknownChunk = errors.New("hset: unknown chunk")
	// ErrUnexpectedChunk is returned when a recognised chunk appears out
	// of the order invariant 1 requires.
	ErrUnexpectedChunk = errors.New("hset: unexpected chunk")
	// ErrChunkLengthMismatch is returned when a chunk's observed payload
	// length disagrees with an invariant-derived expectation (e.g. HDAT
	// must equal hash_count*hash_length exactly).
	ErrChunkLengthMismatch = errors.New("hset: chunk length mismatch")
	// ErrSchemaMismatch is returned by set-algebra operations when two
	// readers' field descriptors disagree on kind or width.
	ErrSchemaMismatch = errors.New("hset: schema mismatch")
	// ErrBadRecord is returned for a malformed or (absent an explicit
	// opt-in) duplicate record.
	ErrBadRecord = errors.New("hset: bad record")
	// ErrIo wraps an underlying I/O failure (short read, stat failure)
	// not otherwise covered by a more specific sentinel.
	ErrIo = errors.New("hset: io error")
	// ErrBadTrailer is returned when a file's last 12 bytes do not decode
	// as (u64 offset, "FTOC").
	ErrBadTrailer = errors.New("hset: bad trailer")
	// ErrTOCMismatch is returned when the FTOC chunk's offset or entries
	// disagree with the chunks the parser actually observed.
	ErrTOCMismatch = errors.New("hset: table of contents mismatch")
)
