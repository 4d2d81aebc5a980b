// Package encoder builds hset files from a record stream: it spools
// records and per-column hashes to disk as they arrive, then on Seal
// sorts each column, computes its hint and optional filter, and emits
// the chunk sequence spec.md's encoder pipeline describes (magic, FHDR,
// per-column HHnn/HINT/FLTR/HDAT/RIDX, RHDR, RDAT, FTOC, FEND, trailer).
package encoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/sync/errgroup"

	"github.com/strozfriedberg/hashset/chunk"
	"github.com/strozfriedberg/hashset/continuity"
	"github.com/strozfriedberg/hashset/filter"
	"github.com/strozfriedberg/hashset/hint"
	"github.com/strozfriedberg/hashset/hset"
	"github.com/strozfriedberg/hashset/hsetmeta"
)

// buildIDKey is the hsetmeta key SealAndClose stamps with a fresh UUID on
// every build, giving two hset files produced from identical input an
// independent identity for provenance tracking.
var buildIDKey = []byte("build-id")

// Builder accumulates records for one hset file. It is single-owner: not
// safe for concurrent Insert calls, matching spec.md §5's "writers are
// single-owner" rule and compactindexsized.Builder's same contract.
type Builder struct {
	name, timestamp, description string
	meta                         *hsetmeta.Meta
	fields                       []chunk.FieldDescriptor
	hashCols                     []int // indices into fields that get a hash column
	opts                         options
	tmpDir                       string
	ownsTmpDir                   bool

	records     *recordSpool
	hashes      []*hashSpool
	recordCount uint64
	closed      bool
}

// NewBuilder starts a new build for a hashset named name with the given
// field schema. Fields with a lookupable kind (every kind except FUZZY
// and OTHER — this includes SIZE, per spec.md §4.C6 step 2) each get an
// independent sorted hash column.
func NewBuilder(name, description string, fields []chunk.FieldDescriptor, opts ...Option) (*Builder, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("encoder: at least one field is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	tmpDir := o.tmpDir
	ownsTmpDir := false
	if tmpDir == "" {
		var err error
		tmpDir, err = os.MkdirTemp("", "hashset-encoder-")
		if err != nil {
			return nil, fmt.Errorf("encoder: create temp dir: %w", err)
		}
		ownsTmpDir = true
	}

	recs, err := newRecordSpool(tmpDir)
	if err != nil {
		return nil, err
	}

	var hashCols []int
	hashSpools := make([]*hashSpool, len(fields))
	for i, f := range fields {
		if !f.Kind.IsLookupable() {
			continue
		}
		sp, err := newHashSpool(tmpDir, i, f.Width)
		if err != nil {
			return nil, err
		}
		hashSpools[i] = sp
		hashCols = append(hashCols, i)
	}

	return &Builder{
		name:        name,
		description: description,
		fields:      fields,
		hashCols:    hashCols,
		opts:        o,
		tmpDir:      tmpDir,
		ownsTmpDir:  ownsTmpDir,
		records:     recs,
		hashes:      hashSpools,
	}, nil
}

// SetMetadata attaches a forward-compatible annotation block appended
// after FHDR's fixed fields (see package hsetmeta).
func (b *Builder) SetMetadata(m *hsetmeta.Meta) { b.meta = m }

// SetTimestamp sets the FHDR timestamp field (an ISO-8601 string; this
// package does not impose a format, matching spec.md's treatment of it
// as an opaque length-prefixed string).
func (b *Builder) SetTimestamp(ts string) { b.timestamp = ts }

// Insert appends one record. Each field's presence and, when present,
// its byte width must match the field's descriptor; a mismatch is
// ErrBadRecord. Absent fields must still carry their full zero-valued
// width (matching RDAT's fixed 1+width-per-field layout).
func (b *Builder) Insert(rec chunk.Record) error {
	if b.closed {
		return fmt.Errorf("encoder: insert after seal")
	}
	if len(rec) != len(b.fields) {
		return fmt.Errorf("%w: record has %d fields, schema has %d", hset.ErrBadRecord, len(rec), len(b.fields))
	}
	for i, f := range rec {
		width := b.fields[i].Width
		if uint64(len(f.Bytes)) != width {
			return fmt.Errorf("%w: field %d is %d bytes, want %d", hset.ErrBadRecord, i, len(f.Bytes), width)
		}
	}

	// Marshaling happens once per Insert call; reuse a pooled buffer
	// across calls instead of letting each one allocate its own backing
	// array, the same bytebufferpool.Get/Put/Reset idiom
	// compactindexsized.Bucket.Lookup uses for its own hot per-call buffer.
	recBuf := bytebufferpool.Get()
	defer bytebufferpool.Put(recBuf)
	recordBytes, err := chunk.MarshalRDATInto(recBuf.B, b.fields, []chunk.Record{rec})
	if err != nil {
		return fmt.Errorf("encoder: marshal record %d: %w", b.recordCount, err)
	}
	recBuf.B = recordBytes
	if err := b.records.append(recordBytes); err != nil {
		return err
	}

	idx := b.recordCount
	for _, ci := range b.hashCols {
		f := rec[ci]
		if !f.Present {
			continue
		}
		if err := b.hashes[ci].append(f.Bytes, idx); err != nil {
			return fmt.Errorf("encoder: spool column %q: %w", b.fields[ci].Name, err)
		}
	}
	b.recordCount++
	return nil
}

type sortedHashes struct {
	pairs []hashRecordPair
}

func (s *sortedHashes) Len() int           { return len(s.pairs) }
func (s *sortedHashes) KeyAt(i int) []byte { return s.pairs[i].hash }

type builtColumn struct {
	field  chunk.FieldDescriptor
	hashes *sortedHashes
	hint   hint.Built
	filter *filter.Filter
}

func (b *Builder) buildColumn(ci int) (*builtColumn, error) {
	pairs, err := b.hashes[ci].readAll()
	if err != nil {
		return nil, err
	}
	sort.Slice(pairs, func(i, j int) bool {
		c := bytes.Compare(pairs[i].hash, pairs[j].hash)
		if c != 0 {
			return c < 0
		}
		return pairs[i].rec < pairs[j].rec
	})
	if !b.opts.allowDuplicateHashes {
		for i := 1; i < len(pairs); i++ {
			if bytes.Equal(pairs[i].hash, pairs[i-1].hash) {
				return nil, fmt.Errorf("%w: duplicate hash in column %q", hset.ErrBadRecord, b.fields[ci].Name)
			}
		}
	}

	sh := &sortedHashes{pairs: pairs}
	built, err := hint.Build(b.opts.hintKind, b.opts.bucketBits, sh)
	if err != nil {
		return nil, fmt.Errorf("encoder: build hint for column %q: %w", b.fields[ci].Name, err)
	}

	col := &builtColumn{field: b.fields[ci], hashes: sh, hint: built}

	if b.opts.buildFilter && len(pairs) >= b.opts.filterMinKeys {
		keys := make([]uint64, len(pairs))
		for i, p := range pairs {
			keys[i] = filter.KeyFromHash(p.hash)
		}
		f, err := filter.Build(keys)
		if err != nil {
			return nil, fmt.Errorf("encoder: build filter for column %q: %w", b.fields[ci].Name, err)
		}
		col.filter = f
	}
	return col, nil
}

// SealAndClose writes the finished hset file to file and releases all
// spool resources, removing the temp directory if this Builder created
// it. file should be opened read-write and empty; on any failure the
// caller is responsible for unlinking the partial output, matching
// spec.md §4.C6's "any I/O error fails the whole build" rule.
func (b *Builder) SealAndClose(ctx context.Context, file *os.File) error {
	if b.closed {
		return fmt.Errorf("encoder: already sealed")
	}
	b.closed = true
	defer b.release()

	w := &offsetWriter{w: file, pos: 8}
	if _, err := file.Write(chunk.Magic[:]); err != nil {
		return fmt.Errorf("encoder: write magic: %w", err)
	}

	var toc []chunk.TOCEntry
	writeChunk := func(tag chunk.Tag, payload []byte) error {
		toc = append(toc, chunk.TOCEntry{Offset: uint64(w.pos), Tag: tag})
		_, err := chunk.WriteEnvelope(w, tag, payload)
		return err
	}

	if b.meta == nil {
		b.meta = &hsetmeta.Meta{}
	}
	if _, ok := b.meta.GetString(buildIDKey); !ok {
		if err := b.meta.AddString(buildIDKey, uuid.New().String()); err != nil {
			return fmt.Errorf("encoder: stamp build id: %w", err)
		}
	}

	fhdr := chunk.FHDR{Version: 2, Name: b.name, Timestamp: b.timestamp, Description: b.description, Meta: b.meta}
	fb, err := fhdr.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoder: marshal FHDR: %w", err)
	}
	if err := writeChunk(chunk.TagFHDR, fb); err != nil {
		return fmt.Errorf("encoder: write FHDR: %w", err)
	}

	// Each column's sort/hint/filter pass reads only its own spool file
	// and touches no shared state, so the independent columns build
	// concurrently; chunks are still emitted below in fixed column order
	// regardless of which goroutine finishes first.
	built := make([]*builtColumn, len(b.hashCols))
	g, gctx := errgroup.WithContext(ctx)
	for i, ci := range b.hashCols {
		i, ci := i, ci
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			col, err := b.buildColumn(ci)
			if err != nil {
				return err
			}
			built[i] = col
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, col := range built {
		tag, err := chunk.HHnnTag(col.field.Kind)
		if err != nil {
			return fmt.Errorf("encoder: column %q: %w", col.field.Name, err)
		}
		hh := chunk.HHnn{Name: col.field.Name, Width: col.field.Width, HashCount: uint64(col.hashes.Len())}
		hhb, err := hh.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encoder: marshal HHnn for %q: %w", col.field.Name, err)
		}
		if err := writeChunk(tag, hhb); err != nil {
			return err
		}

		hintBytes, err := col.hint.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encoder: marshal HINT for %q: %w", col.field.Name, err)
		}
		if err := writeChunk(chunk.TagHINT, hintBytes); err != nil {
			return err
		}

		if col.filter != nil {
			filterBytes, err := col.filter.MarshalBinary()
			if err != nil {
				return fmt.Errorf("encoder: marshal FLTR for %q: %w", col.field.Name, err)
			}
			if err := writeChunk(chunk.TagFLTR, filterBytes); err != nil {
				return err
			}
		}

		pad := chunk.AlignmentPadding(uint64(w.pos), 4096)
		if pad > 0 {
			if _, err := w.Write(make([]byte, pad)); err != nil {
				return fmt.Errorf("encoder: write HDAT padding for %q: %w", col.field.Name, err)
			}
		}
		var hdatBuf bytes.Buffer
		ridx := make([]uint64, col.hashes.Len())
		for i, p := range col.hashes.pairs {
			hdatBuf.Write(p.hash)
			ridx[i] = p.rec
		}
		if err := writeChunk(chunk.TagHDAT, hdatBuf.Bytes()); err != nil {
			return fmt.Errorf("encoder: write HDAT for %q: %w", col.field.Name, err)
		}
		if err := writeChunk(chunk.TagRIDX, chunk.MarshalRIDX(ridx)); err != nil {
			return fmt.Errorf("encoder: write RIDX for %q: %w", col.field.Name, err)
		}
	}

	rhdr := chunk.NewRHDR(b.fields, b.recordCount)
	rhdrb, err := rhdr.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoder: marshal RHDR: %w", err)
	}
	if err := writeChunk(chunk.TagRHDR, rhdrb); err != nil {
		return err
	}

	toc = append(toc, chunk.TOCEntry{Offset: uint64(w.pos), Tag: chunk.TagRDAT})
	var recordsBuf bytes.Buffer
	if _, err := b.records.copyTo(&recordsBuf); err != nil {
		return err
	}
	if uint64(recordsBuf.Len()) != b.recordCount*rhdr.RecordLength {
		return fmt.Errorf("encoder: spooled records are %d bytes, want %d", recordsBuf.Len(), b.recordCount*rhdr.RecordLength)
	}
	if _, err := chunk.WriteEnvelope(w, chunk.TagRDAT, recordsBuf.Bytes()); err != nil {
		return fmt.Errorf("encoder: write RDAT: %w", err)
	}

	ftocOffset := uint64(w.pos)
	if err := writeChunk(chunk.TagFTOC, chunk.MarshalFTOC(toc)); err != nil {
		return fmt.Errorf("encoder: write FTOC: %w", err)
	}
	if err := writeChunk(chunk.TagFEND, nil); err != nil {
		return fmt.Errorf("encoder: write FEND: %w", err)
	}
	if _, err := w.Write(chunk.MarshalTrailer(ftocOffset)); err != nil {
		return fmt.Errorf("encoder: write trailer: %w", err)
	}

	return continuity.New().
		Thenf("sync", func() error {
			if err := file.Sync(); err != nil {
				return fmt.Errorf("encoder: sync output file: %w", err)
			}
			return nil
		}).
		Err()
}

func (b *Builder) release() {
	_ = b.records.close()
	for _, sp := range b.hashes {
		if sp != nil {
			_ = sp.close()
		}
	}
	if b.ownsTmpDir {
		os.RemoveAll(b.tmpDir)
	}
}

// offsetWriter tracks the absolute byte offset written so far, letting
// the caller record TOC entries and HDAT alignment without separately
// stat-ing the file.
type offsetWriter struct {
	w   *os.File
	pos int64
}

func (o *offsetWriter) Write(p []byte) (int, error) {
	n, err := o.w.Write(p)
	o.pos += int64(n)
	return n, err
}
