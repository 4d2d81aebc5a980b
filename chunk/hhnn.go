package chunk

import (
	"fmt"

	"github.com/strozfriedberg/hashset/byteio"
)

// HHnn is the decoded hash-column header: the column's name, per-hash
// byte width, and hash count. The column's kind is carried in the
// chunk's tag itself (see HHnnTag/IsHHnn), not in the payload.
type HHnn struct {
	Name      string
	Width     uint64
	HashCount uint64
}

func (h HHnn) MarshalBinary() ([]byte, error) {
	w := byteio.NewWriter()
	if err := w.PString(h.Name); err != nil {
		return nil, fmt.Errorf("chunk: hhnn name: %w", err)
	}
	w.LE64(h.Width)
	w.LE64(h.HashCount)
	return w.Bytes(), nil
}

func UnmarshalHHnn(payload []byte) (HHnn, error) {
	r := byteio.NewReader(payload)
	var h HHnn
	var err error
	if h.Name, err = r.PString(); err != nil {
		return HHnn{}, fmt.Errorf("chunk: hhnn name: %w", err)
	}
	if h.Width, err = r.LE64(); err != nil {
		return HHnn{}, fmt.Errorf("chunk: hhnn width: %w", err)
	}
	if h.HashCount, err = r.LE64(); err != nil {
		return HHnn{}, fmt.Errorf("chunk: hhnn hash count: %w", err)
	}
	return h, nil
}
