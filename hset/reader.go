// Package hset implements the hset container format: a parser/state
// machine building an in-memory Holder from a chunked binary file, and a
// Reader exposing membership and record-lookup queries over it.
package hset

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/exp/mmap"
	"golang.org/x/sys/unix"

	"github.com/strozfriedberg/hashset/chunk"
)

// Reader is an open, immutable hset file. It is safe for concurrent use
// by multiple goroutines after construction: Contains and RecordsFor
// touch no mutable state.
type Reader struct {
	holder *Holder
	closer io.Closer
}

// Open slurps path into memory and parses it. Suitable for small to
// medium hashsets, or when the caller wants the whole file resident
// regardless of access pattern.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hset: open %s: %w", path, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("hset: stat %s: %w", path, err)
	}
	holder, err := Parse(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("hset: parse %s: %w", path, err)
	}
	return &Reader{holder: holder}, nil
}

// OpenMMAP opens path with memory-mapped I/O, so the OS page cache
// backs random access to large hash columns without the whole file
// being read into the Go heap up front. Each chunk's payload is still
// copied once into an owned buffer at parse time (mirroring how
// compactindexsized/bucketteer read mmap'd sections into buffers rather
// than handing out raw mmap pointers); Contains and RecordsFor never
// touch the mmap again afterward.
func OpenMMAP(path string) (*Reader, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hset: mmap open %s: %w", path, err)
	}
	// Lookups jump around the file (interpolated binary search, not a
	// sequential scan); advise the kernel accordingly, matching
	// bucketteer.NewReader's fadvise call on its own mmap'd file.
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM); err != nil {
		slog.Warn("hset: fadvise(RANDOM) failed", "file", path, "error", err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hset: stat %s: %w", path, err)
	}
	holder, err := Parse(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hset: parse %s: %w", path, err)
	}
	slog.Info("hset: opened mmap-backed reader", "file", path, "columns", len(holder.Columns), "records", len(holder.Records))
	return &Reader{holder: holder, closer: f}, nil
}

// Close releases any resources (an mmap, for OpenMMAP readers). Slices
// handed out by this Reader's accessors must not be used after Close.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func (r *Reader) Name() string        { return r.holder.Name }
func (r *Reader) Description() string { return r.holder.Description }
func (r *Reader) Timestamp() string   { return r.holder.Timestamp }
func (r *Reader) ColumnCount() int    { return r.holder.ColumnCount() }

// ColumnIndex returns the position of the column named name.
func (r *Reader) ColumnIndex(name string) (int, bool) {
	return r.holder.ColumnIndex(name)
}

// Column returns the column at position i.
func (r *Reader) Column(i int) *Column {
	if i < 0 || i >= len(r.holder.Columns) {
		return nil
	}
	return r.holder.Columns[i]
}

// Contains reports whether q is present in the column at position
// colIdx. A miss is always authoritative.
func (r *Reader) Contains(colIdx int, q []byte) bool {
	col := r.Column(colIdx)
	if col == nil {
		return false
	}
	return col.Contains(q)
}

// RecordsFor returns the record indices associated with q in the column
// at colIdx. When duplicate hashes were not permitted during encoding
// this is at most one index; with AllowDuplicateHashes it is the full
// contiguous range of sorted positions carrying this hash value.
func (r *Reader) RecordsFor(colIdx int, q []byte) ([]int, bool) {
	col := r.Column(colIdx)
	if col == nil {
		return nil, false
	}
	idx, ok := col.IndexOf(q)
	if !ok {
		return nil, false
	}
	lo, hi := idx, idx+1
	for lo > 0 && bytes.Equal(col.KeyAt(lo-1), q) {
		lo--
	}
	for hi < col.Len() && bytes.Equal(col.KeyAt(hi), q) {
		hi++
	}
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		recIdx, ok := col.RecordIndexFor(i)
		if !ok {
			continue
		}
		out = append(out, int(recIdx))
	}
	return out, len(out) > 0
}

// Record returns the record at position i.
func (r *Reader) Record(i int) (chunk.Record, bool) {
	if i < 0 || i >= len(r.holder.Records) {
		return nil, false
	}
	return r.holder.Records[i], true
}

// Fields returns the record schema (field descriptors) in RHDR order.
func (r *Reader) Fields() []chunk.FieldDescriptor { return r.holder.Fields }

// RecordCount returns the number of records in RDAT.
func (r *Reader) RecordCount() int { return len(r.holder.Records) }
