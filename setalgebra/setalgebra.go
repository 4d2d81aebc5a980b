// Package setalgebra implements the merge-based Union/Intersect/
// Difference builder over two parsed hset readers: it streams their
// record tables through a standard sorted merge and pushes survivors
// into a fresh encoder.Builder, which re-derives every hash column's
// sort order, hint, and optional filter from scratch.
package setalgebra

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/strozfriedberg/hashset/chunk"
	"github.com/strozfriedberg/hashset/encoder"
	"github.com/strozfriedberg/hashset/hset"
)

// Op names a set-algebra operator.
type Op int

const (
	Union Op = iota
	Intersect
	Difference
)

func (op Op) String() string {
	switch op {
	case Union:
		return "union"
	case Intersect:
		return "intersect"
	case Difference:
		return "difference"
	default:
		return "unknown"
	}
}

// compatibleSchema reports whether l and r's field descriptors agree on
// kind and width, position by position; names may differ (the output
// schema takes the left side's names).
func compatibleSchema(l, r []chunk.FieldDescriptor) bool {
	if len(l) != len(r) {
		return false
	}
	for i := range l {
		if l[i].Kind != r[i].Kind || l[i].Width != r[i].Width {
			return false
		}
	}
	return true
}

// compareRecords orders two records field by field: absent sorts before
// present (resolved Open Question #4), then lexicographically by value
// bytes for fields both sides carry.
func compareRecords(a, b chunk.Record) int {
	for i := range a {
		if a[i].Present != b[i].Present {
			if !a[i].Present {
				return -1
			}
			return 1
		}
		if a[i].Present {
			if c := bytes.Compare(a[i].Bytes, b[i].Bytes); c != 0 {
				return c
			}
		}
	}
	return 0
}

func sortedRecords(records []chunk.Record) []chunk.Record {
	out := make([]chunk.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return compareRecords(out[i], out[j]) < 0 })
	return out
}

// Merge composes l and r according to op, and seals the result into
// file. l and r's schemas must be compatible (ErrSchemaMismatch
// otherwise); the output schema uses l's field names.
func Merge(ctx context.Context, l, r *hset.Reader, op Op, file *os.File, opts ...encoder.Option) error {
	lFields, rFields := l.Fields(), r.Fields()
	if !compatibleSchema(lFields, rFields) {
		return fmt.Errorf("%w: %s has %d fields, %s has %d", hset.ErrSchemaMismatch, l.Name(), len(lFields), r.Name(), len(rFields))
	}

	name := fmt.Sprintf("%s-%s-%s", l.Name(), op, r.Name())
	b, err := encoder.NewBuilder(name, fmt.Sprintf("%s of %q and %q", op, l.Name(), r.Name()), lFields, opts...)
	if err != nil {
		return fmt.Errorf("setalgebra: %w", err)
	}

	lRecs := sortedRecords(allRecords(l))
	rRecs := sortedRecords(allRecords(r))

	i, j := 0, 0
	insert := func(rec chunk.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return b.Insert(rec)
	}

	for i < len(lRecs) && j < len(rRecs) {
		c := compareRecords(lRecs[i], rRecs[j])
		switch {
		case c < 0:
			if op == Union || op == Difference {
				if err := insert(lRecs[i]); err != nil {
					return err
				}
			}
			i++
		case c > 0:
			if op == Union {
				if err := insert(rRecs[j]); err != nil {
					return err
				}
			}
			j++
		default:
			if op == Union || op == Intersect {
				if err := insert(lRecs[i]); err != nil {
					return err
				}
			}
			i++
			j++
		}
	}
	if op == Union || op == Difference {
		for ; i < len(lRecs); i++ {
			if err := insert(lRecs[i]); err != nil {
				return err
			}
		}
	}
	if op == Union {
		for ; j < len(rRecs); j++ {
			if err := insert(rRecs[j]); err != nil {
				return err
			}
		}
	}

	return b.SealAndClose(ctx, file)
}

func allRecords(r *hset.Reader) []chunk.Record {
	out := make([]chunk.Record, r.RecordCount())
	for i := range out {
		rec, _ := r.Record(i)
		out[i] = rec
	}
	return out
}
