package chunk

import (
	"fmt"

	"github.com/strozfriedberg/hashset/byteio"
	"github.com/strozfriedberg/hashset/hashkind"
)

// FieldDescriptor names one ordered field of a record: its kind, display
// name, and fixed byte width (the value width; each field additionally
// carries a 1-byte presence flag in RDAT, not counted in Width here).
type FieldDescriptor struct {
	Kind  hashkind.Kind
	Name  string
	Width uint64
}

// RHDR is the decoded record header: the total on-disk record length
// (sum of 1+Width over every field), the record count, and the ordered
// field descriptors.
type RHDR struct {
	RecordLength uint64
	RecordCount  uint64
	Fields       []FieldDescriptor
}

// NewRHDR computes RecordLength from fields and wraps them with
// recordCount into an RHDR ready for MarshalBinary.
func NewRHDR(fields []FieldDescriptor, recordCount uint64) RHDR {
	var recLen uint64
	for _, f := range fields {
		recLen += 1 + f.Width
	}
	return RHDR{RecordLength: recLen, RecordCount: recordCount, Fields: fields}
}

func (h RHDR) MarshalBinary() ([]byte, error) {
	w := byteio.NewWriter()
	w.LE64(h.RecordLength)
	w.LE64(h.RecordCount)
	for i, f := range h.Fields {
		n, err := f.Kind.Exponent()
		if err != nil {
			return nil, fmt.Errorf("chunk: rhdr field %d kind: %w", i, err)
		}
		w.LE16(n)
		if err := w.PString(f.Name); err != nil {
			return nil, fmt.Errorf("chunk: rhdr field %d name: %w", i, err)
		}
		w.LE64(f.Width)
	}
	return w.Bytes(), nil
}

func UnmarshalRHDR(payload []byte) (RHDR, error) {
	r := byteio.NewReader(payload)
	var h RHDR
	var err error
	if h.RecordLength, err = r.LE64(); err != nil {
		return RHDR{}, fmt.Errorf("chunk: rhdr record length: %w", err)
	}
	if h.RecordCount, err = r.LE64(); err != nil {
		return RHDR{}, fmt.Errorf("chunk: rhdr record count: %w", err)
	}
	for r.Len() > 0 {
		var f FieldDescriptor
		n, err := r.LE16()
		if err != nil {
			return RHDR{}, fmt.Errorf("chunk: rhdr field kind: %w", err)
		}
		f.Kind = hashkind.FromExponent(n)
		if f.Name, err = r.PString(); err != nil {
			return RHDR{}, fmt.Errorf("chunk: rhdr field name: %w", err)
		}
		if f.Width, err = r.LE64(); err != nil {
			return RHDR{}, fmt.Errorf("chunk: rhdr field width: %w", err)
		}
		h.Fields = append(h.Fields, f)
	}
	return h, nil
}
