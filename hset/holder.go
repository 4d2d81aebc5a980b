package hset

import (
	"github.com/strozfriedberg/hashset/chunk"
	"github.com/strozfriedberg/hashset/hsetmeta"
)

// Holder is the fully-parsed, in-memory shape of an hset file: its
// header fields, ordered hash columns, and record table. It holds no
// back-pointers into the parser, and every payload it holds was copied
// into its own buffer at parse time; a Reader simply wraps a Holder plus,
// for OpenMMAP, the mapping to close.
type Holder struct {
	Version     uint64
	Name        string
	Timestamp   string
	Description string
	Meta        *hsetmeta.Meta

	Columns []*Column

	Fields       []chunk.FieldDescriptor
	RecordLength uint64
	Records      []chunk.Record
}

// ColumnIndex returns the position of the column named name, if any.
func (h *Holder) ColumnIndex(name string) (int, bool) {
	for i, c := range h.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// ColumnCount returns the number of hash columns in the file.
func (h *Holder) ColumnCount() int { return len(h.Columns) }
