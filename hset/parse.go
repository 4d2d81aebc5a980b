package hset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/strozfriedberg/hashset/chunk"
	"github.com/strozfriedberg/hashset/filter"
	"github.com/strozfriedberg/hashset/hint"
)

// state names a point in the chunk-ordering state machine invariant 1
// describes: exactly one FHDR, then per-column HHnn (each optionally
// followed by HINT, FLTR, HDAT, RIDX in that order), then an optional
// RHDR+RDAT, then FTOC, then FEND.
type state int

const (
	stateInit state = iota
	stateColumns
	stateRecordHeader
	stateRecordData
	stateTOC
	stateDone
)

// cursor sequentially reads chunk envelopes from an io.ReaderAt without
// requiring the whole file to be resident in memory at once; each
// payload is read into its own owned buffer exactly once.
type cursor struct {
	r      io.ReaderAt
	offset int64
	size   int64
}

func (c *cursor) readN(n int64) ([]byte, error) {
	if c.offset+n > c.size {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, file is %d bytes", ErrOutOfData, n, c.offset, c.size)
	}
	buf := make([]byte, n)
	if _, err := c.r.ReadAt(buf, c.offset); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrIo, err)
	}
	c.offset += n
	return buf, nil
}

func (c *cursor) readEnvelope() (chunk.Envelope, int64, error) {
	startOffset := c.offset
	tagBytes, err := c.readN(4)
	if err != nil {
		return chunk.Envelope{}, 0, err
	}
	lenBytes, err := c.readN(8)
	if err != nil {
		return chunk.Envelope{}, 0, err
	}
	length := binary.LittleEndian.Uint64(lenBytes)
	payload, err := c.readN(int64(length))
	if err != nil {
		return chunk.Envelope{}, 0, err
	}
	var tag chunk.Tag
	copy(tag[:], tagBytes)
	return chunk.Envelope{Tag: tag, Payload: payload}, startOffset, nil
}

// colStage orders the optional sub-chunks a column's HHnn may be followed
// by, per the package comment above: HINT, then FLTR, then HDAT, then
// RIDX. Each is optional, but once seen a later chunk may not reappear
// and an earlier one may not follow it.
type colStage int

const (
	colStageNone colStage = iota
	colStageHint
	colStageFilter
	colStageHDAT
	colStageRIDX
)

// Parse reads a whole hset file from r (size bytes long) into a Holder.
// Per spec.md's reading algorithm, it first reads the trailer to locate
// FTOC, then sequentially decodes every chunk while recording each one's
// offset and tag, and finally checks that FTOC's own declared offset and
// entries agree with what was actually observed on disk (invariant: "the
// file's last 12 bytes parse as (u64, FTOC) and the offset locates a
// valid FTOC chunk whose entries match the file's real chunk layout").
func Parse(r io.ReaderAt, size int64) (*Holder, error) {
	if size < chunk.TrailerSize {
		return nil, fmt.Errorf("%w: file is %d bytes, shorter than the %d-byte trailer", ErrBadTrailer, size, chunk.TrailerSize)
	}
	trailer := make([]byte, chunk.TrailerSize)
	if _, err := r.ReadAt(trailer, size-chunk.TrailerSize); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: read trailer: %v", ErrBadTrailer, err)
	}
	ftocOffset, err := chunk.UnmarshalTrailer(trailer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTrailer, err)
	}

	c := &cursor{r: r, size: size}

	magic, err := c.readN(8)
	if err != nil {
		return nil, fmt.Errorf("hset: read magic: %w", err)
	}
	if string(magic) != string(chunk.Magic[:]) {
		return nil, fmt.Errorf("%w: got %x", ErrBadMagic, magic)
	}

	h := &Holder{}
	st := stateInit
	var cur *Column
	var curStage colStage
	var curHashCount uint64
	var observed []chunk.TOCEntry
	var tocEntries []chunk.TOCEntry

	for st != stateDone {
		env, startOffset, err := c.readEnvelope()
		if err != nil {
			return nil, err
		}

		if env.Tag == chunk.TagFTOC {
			if uint64(startOffset) != ftocOffset {
				return nil, fmt.Errorf("%w: trailer points at offset %d, FTOC chunk actually starts at %d", ErrTOCMismatch, ftocOffset, startOffset)
			}
		} else if env.Tag != chunk.TagFEND {
			observed = append(observed, chunk.TOCEntry{Offset: uint64(startOffset), Tag: env.Tag})
		}

		if kind, ok := chunk.IsHHnn(env.Tag); ok {
			if st != stateColumns {
				return nil, fmt.Errorf("%w: HHnn chunk in state %d", ErrUnexpectedChunk, st)
			}
			hh, err := chunk.UnmarshalHHnn(env.Payload)
			if err != nil {
				return nil, fmt.Errorf("hset: decode HHnn: %w", err)
			}
			if w, ok := kind.Width(); ok && w != int(hh.Width) {
				return nil, fmt.Errorf("%w: column %q width %d, kind %s wants %d", ErrChunkLengthMismatch, hh.Name, hh.Width, kind, w)
			}
			cur = &Column{Kind: kind, Name: hh.Name, Width: hh.Width}
			h.Columns = append(h.Columns, cur)
			curStage = colStageNone
			curHashCount = hh.HashCount
			st = stateColumns
			continue
		}

		switch env.Tag {
		case chunk.TagFHDR:
			if st != stateInit {
				return nil, fmt.Errorf("%w: duplicate FHDR", ErrUnexpectedChunk)
			}
			f, err := chunk.UnmarshalFHDR(env.Payload)
			if err != nil {
				return nil, fmt.Errorf("hset: decode FHDR: %w", err)
			}
			h.Version = f.Version
			h.Name = f.Name
			h.Timestamp = f.Timestamp
			h.Description = f.Description
			h.Meta = f.Meta
			st = stateColumns

		case chunk.TagHINT:
			if cur == nil {
				return nil, fmt.Errorf("%w: HINT without a preceding HHnn", ErrUnexpectedChunk)
			}
			if curStage >= colStageHint {
				return nil, fmt.Errorf("%w: HINT out of order (or duplicate) for column %q", ErrUnexpectedChunk, cur.Name)
			}
			built, err := hint.Unmarshal(env.Payload)
			if err != nil {
				return nil, fmt.Errorf("hset: decode HINT for column %q: %w", cur.Name, err)
			}
			cur.Hint = &built
			curStage = colStageHint

		case chunk.TagFLTR:
			if cur == nil {
				return nil, fmt.Errorf("%w: FLTR without a preceding HHnn", ErrUnexpectedChunk)
			}
			if curStage >= colStageFilter {
				return nil, fmt.Errorf("%w: FLTR out of order (or duplicate) for column %q", ErrUnexpectedChunk, cur.Name)
			}
			f, err := filter.UnmarshalBinary(env.Payload)
			if err != nil {
				if errors.Is(err, filter.ErrUnsupportedType) {
					// Forward-compatible: an FLTR chunk naming a filter kind
					// this package doesn't implement is treated the same as
					// no FLTR chunk at all. Lookup correctness never depends
					// on the filter being present (it only ever short-circuits
					// a miss early).
					curStage = colStageFilter
					break
				}
				return nil, fmt.Errorf("hset: decode FLTR for column %q: %w", cur.Name, err)
			}
			cur.Filter = f
			curStage = colStageFilter

		case chunk.TagHDAT:
			if cur == nil {
				return nil, fmt.Errorf("%w: HDAT without a preceding HHnn", ErrUnexpectedChunk)
			}
			if curStage >= colStageHDAT {
				return nil, fmt.Errorf("%w: HDAT out of order (or duplicate) for column %q", ErrUnexpectedChunk, cur.Name)
			}
			if uint64(len(env.Payload)) != curHashCount*cur.Width {
				return nil, fmt.Errorf("%w: column %q HDAT is %d bytes, want %d hashes of %d bytes", ErrChunkLengthMismatch, cur.Name, len(env.Payload), curHashCount, cur.Width)
			}
			cur.hdat = env.Payload
			curStage = colStageHDAT

		case chunk.TagRIDX:
			if cur == nil {
				return nil, fmt.Errorf("%w: RIDX without a preceding HHnn", ErrUnexpectedChunk)
			}
			if curStage >= colStageRIDX {
				return nil, fmt.Errorf("%w: RIDX out of order (or duplicate) for column %q", ErrUnexpectedChunk, cur.Name)
			}
			ridx, err := chunk.UnmarshalRIDX(env.Payload)
			if err != nil {
				return nil, fmt.Errorf("hset: decode RIDX for column %q: %w", cur.Name, err)
			}
			cur.RIDX = ridx
			curStage = colStageRIDX

		case chunk.TagRHDR:
			if st != stateColumns {
				return nil, fmt.Errorf("%w: RHDR in state %d", ErrUnexpectedChunk, st)
			}
			rhdr, err := chunk.UnmarshalRHDR(env.Payload)
			if err != nil {
				return nil, fmt.Errorf("hset: decode RHDR: %w", err)
			}
			h.Fields = rhdr.Fields
			h.RecordLength = rhdr.RecordLength
			st = stateRecordHeader
			cur = nil

		case chunk.TagRDAT:
			if st != stateRecordHeader {
				return nil, fmt.Errorf("%w: RDAT in state %d", ErrUnexpectedChunk, st)
			}
			var recordCount uint64
			if len(h.Fields) > 0 {
				perRecord := h.RecordLength
				if perRecord == 0 {
					return nil, fmt.Errorf("%w: zero-width RHDR record length", ErrChunkLengthMismatch)
				}
				if uint64(len(env.Payload))%perRecord != 0 {
					return nil, fmt.Errorf("%w: RDAT payload %d bytes not a multiple of record length %d", ErrChunkLengthMismatch, len(env.Payload), perRecord)
				}
				recordCount = uint64(len(env.Payload)) / perRecord
			}
			records, err := chunk.UnmarshalRDAT(h.Fields, recordCount, env.Payload)
			if err != nil {
				return nil, fmt.Errorf("hset: decode RDAT: %w", err)
			}
			h.Records = records
			st = stateRecordData

		case chunk.TagFTOC:
			if st != stateColumns && st != stateRecordData {
				return nil, fmt.Errorf("%w: FTOC in state %d", ErrUnexpectedChunk, st)
			}
			tocEntries, err = chunk.UnmarshalFTOC(env.Payload)
			if err != nil {
				return nil, fmt.Errorf("hset: decode FTOC: %w", err)
			}
			st = stateTOC

		case chunk.TagFEND:
			if st != stateTOC {
				return nil, fmt.Errorf("%w: FEND in state %d", ErrUnexpectedChunk, st)
			}
			st = stateDone

		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownChunk, env.Tag)
		}
	}

	if len(tocEntries) != len(observed) {
		return nil, fmt.Errorf("%w: FTOC lists %d entries, scan observed %d", ErrTOCMismatch, len(tocEntries), len(observed))
	}
	for i, want := range observed {
		got := tocEntries[i]
		if got.Offset != want.Offset || got.Tag != want.Tag {
			return nil, fmt.Errorf("%w: entry %d is (%d, %q), scan observed (%d, %q)", ErrTOCMismatch, i, got.Offset, got.Tag, want.Offset, want.Tag)
		}
	}

	for _, col := range h.Columns {
		if col.Width > 0 && len(col.hdat)%int(col.Width) != 0 {
			return nil, fmt.Errorf("%w: column %q HDAT length %d not a multiple of width %d", ErrChunkLengthMismatch, col.Name, len(col.hdat), col.Width)
		}
	}

	return h, nil
}
