package chunk

import (
	"fmt"

	"github.com/strozfriedberg/hashset/byteio"
)

// Field is one value of a record: Present reports whether the field was
// supplied (as opposed to entirely absent for this record); Bytes is its
// fixed-width value, only meaningful when Present is true.
type Field struct {
	Present bool
	Bytes   []byte
}

// Record is one row: field values in descriptor order, matching an
// RHDR's Fields.
type Record []Field

// MarshalRDAT serializes records against fields' widths: for each field,
// a presence byte followed by its width bytes — both entirely zeroed
// when the field is absent, matching the original encoder's layout
// (invariant 7: each field is exactly 1+width bytes regardless of
// presence).
func MarshalRDAT(fields []FieldDescriptor, records []Record) ([]byte, error) {
	return MarshalRDATInto(nil, fields, records)
}

// MarshalRDATInto is MarshalRDAT but grows dst's backing array instead of
// allocating a new one, letting a hot insert loop reuse a pooled buffer
// across calls.
func MarshalRDATInto(dst []byte, fields []FieldDescriptor, records []Record) ([]byte, error) {
	w := byteio.NewWriterWithBuf(dst)
	for ri, rec := range records {
		if len(rec) != len(fields) {
			return nil, fmt.Errorf("chunk: record %d has %d fields, want %d", ri, len(rec), len(fields))
		}
		for fi, f := range rec {
			width := fields[fi].Width
			if !f.Present {
				w.U8(0)
				for i := uint64(0); i < width; i++ {
					w.U8(0)
				}
				continue
			}
			if uint64(len(f.Bytes)) != width {
				return nil, fmt.Errorf("chunk: record %d field %d is %d bytes, want %d", ri, fi, len(f.Bytes), width)
			}
			w.U8(1)
			w.Write(f.Bytes)
		}
	}
	return w.Bytes(), nil
}

// UnmarshalRDAT parses an RDAT payload against fields, producing
// recordCount records.
func UnmarshalRDAT(fields []FieldDescriptor, recordCount uint64, payload []byte) ([]Record, error) {
	r := byteio.NewReader(payload)
	records := make([]Record, recordCount)
	for ri := range records {
		rec := make(Record, len(fields))
		for fi, fd := range fields {
			present, err := r.U8()
			if err != nil {
				return nil, fmt.Errorf("chunk: record %d field %d presence: %w", ri, fi, err)
			}
			valueBytes, err := r.Bytes(int(fd.Width))
			if err != nil {
				return nil, fmt.Errorf("chunk: record %d field %d value: %w", ri, fi, err)
			}
			rec[fi] = Field{Present: present != 0, Bytes: valueBytes}
		}
		records[ri] = rec
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("chunk: rdat has %d trailing bytes after %d records", r.Len(), recordCount)
	}
	return records, nil
}
