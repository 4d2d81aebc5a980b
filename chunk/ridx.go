package chunk

import (
	"encoding/binary"
	"fmt"
)

// MarshalRIDX serializes a record-index array: one little-endian uint64
// per sorted-column position, naming the record each position maps to.
func MarshalRIDX(ridx []uint64) []byte {
	out := make([]byte, len(ridx)*8)
	for i, v := range ridx {
		binary.LittleEndian.PutUint64(out[i*8:], v)
	}
	return out
}

// UnmarshalRIDX parses an RIDX payload into a record-index array.
func UnmarshalRIDX(payload []byte) ([]uint64, error) {
	if len(payload)%8 != 0 {
		return nil, fmt.Errorf("chunk: ridx payload length %d is not a multiple of 8", len(payload))
	}
	out := make([]uint64, len(payload)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(payload[i*8:])
	}
	return out, nil
}
