package hset

import (
	"github.com/strozfriedberg/hashset/filter"
	"github.com/strozfriedberg/hashset/hashkind"
	"github.com/strozfriedberg/hashset/hint"
	"github.com/strozfriedberg/hashset/lookup"
)

// Column is one hash column: its kind, display name, fixed byte width,
// the sorted hash bytes themselves (the HDAT payload, read into a buffer
// of its own at parse time), the per-position record index, and the optional hint
// and filter that accelerate Contains.
type Column struct {
	Kind   hashkind.Kind
	Name   string
	Width  uint64
	hdat   []byte
	RIDX   []uint64
	Hint   *hint.Built
	Filter *filter.Filter
}

// Len implements lookup.Column: the number of hashes in this column.
func (c *Column) Len() int {
	if c.Width == 0 {
		return 0
	}
	return len(c.hdat) / int(c.Width)
}

// KeyAt implements lookup.Column: the hash bytes at sorted position i, a
// zero-copy sub-slice of the column's backing buffer.
func (c *Column) KeyAt(i int) []byte {
	w := int(c.Width)
	return c.hdat[i*w : (i+1)*w]
}

// strategy returns the lookup.Strategy backing this column's Contains,
// defaulting to Basic (full binary search) when no HINT chunk was
// present for this column.
func (c *Column) strategy() lookup.Strategy {
	if c.Hint == nil {
		return lookup.Basic{}
	}
	return c.Hint.Strategy
}

// Contains reports whether q is present in this column. A filter miss
// (when a filter is present) is authoritative; otherwise the result
// comes from a bounds-checked, hint-narrowed binary search. A miss is
// always authoritative — there are no false negatives.
func (c *Column) Contains(q []byte) bool {
	if c.Filter != nil && !c.Filter.MayContain(filter.KeyFromHash(q)) {
		return false
	}
	return lookup.Contains(c.strategy(), c, q)
}

// IndexOf returns the sorted-column position of q, if present.
func (c *Column) IndexOf(q []byte) (int, bool) {
	if c.Filter != nil && !c.Filter.MayContain(filter.KeyFromHash(q)) {
		return -1, false
	}
	return lookup.IndexOf(c.strategy(), c, q)
}

// RecordIndexFor returns the RDAT record index that position i in this
// column's sorted hash array maps to.
func (c *Column) RecordIndexFor(i int) (uint64, bool) {
	if i < 0 || i >= len(c.RIDX) {
		return 0, false
	}
	return c.RIDX[i], true
}
