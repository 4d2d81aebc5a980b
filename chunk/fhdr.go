package chunk

import (
	"fmt"

	"github.com/strozfriedberg/hashset/byteio"
	"github.com/strozfriedberg/hashset/hsetmeta"
)

// FHDR is the decoded file header: format version, hashset name,
// ISO-8601 timestamp, free-text description, and an optional
// forward-compatible metadata block appended after the fixed fields.
type FHDR struct {
	Version     uint64
	Name        string
	Timestamp   string
	Description string
	Meta        *hsetmeta.Meta
}

// MarshalBinary serializes the FHDR payload: version (u64 LE), then
// name, timestamp, description as length-prefixed strings in that
// order, matching the original encoder's field order exactly. If Meta is
// non-nil and non-empty, its serialized bytes are appended last; an
// older decoder reading only the fixed fields never needs to know it is
// there.
func (f FHDR) MarshalBinary() ([]byte, error) {
	w := byteio.NewWriter()
	w.LE64(f.Version)
	if err := w.PString(f.Name); err != nil {
		return nil, fmt.Errorf("chunk: fhdr name: %w", err)
	}
	if err := w.PString(f.Timestamp); err != nil {
		return nil, fmt.Errorf("chunk: fhdr timestamp: %w", err)
	}
	if err := w.PString(f.Description); err != nil {
		return nil, fmt.Errorf("chunk: fhdr description: %w", err)
	}
	if f.Meta != nil && len(f.Meta.KeyVals) > 0 {
		w.Write(f.Meta.Bytes())
	}
	return w.Bytes(), nil
}

// UnmarshalFHDR decodes an FHDR payload. Trailing bytes after the fixed
// fields, if present, are parsed as a hsetmeta block; their absence is
// not an error (older files have none).
func UnmarshalFHDR(payload []byte) (FHDR, error) {
	r := byteio.NewReader(payload)
	var f FHDR
	var err error
	if f.Version, err = r.LE64(); err != nil {
		return FHDR{}, fmt.Errorf("chunk: fhdr version: %w", err)
	}
	if f.Name, err = r.PString(); err != nil {
		return FHDR{}, fmt.Errorf("chunk: fhdr name: %w", err)
	}
	if f.Timestamp, err = r.PString(); err != nil {
		return FHDR{}, fmt.Errorf("chunk: fhdr timestamp: %w", err)
	}
	if f.Description, err = r.PString(); err != nil {
		return FHDR{}, fmt.Errorf("chunk: fhdr description: %w", err)
	}
	if r.Len() > 0 {
		rest, err := r.Bytes(r.Len())
		if err != nil {
			return FHDR{}, fmt.Errorf("chunk: fhdr trailing metadata: %w", err)
		}
		var m hsetmeta.Meta
		if err := m.UnmarshalBinary(rest); err != nil {
			return FHDR{}, fmt.Errorf("chunk: fhdr metadata: %w", err)
		}
		f.Meta = &m
	}
	return f, nil
}
