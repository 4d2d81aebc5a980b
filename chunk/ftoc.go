package chunk

import (
	"encoding/binary"
	"fmt"
)

// TOCEntry records one preceding chunk's absolute file offset and tag.
type TOCEntry struct {
	Offset uint64
	Tag    Tag
}

// MarshalFTOC serializes the table of contents: for each entry, an
// 8-byte little-endian offset followed by its raw 4-byte tag.
func MarshalFTOC(entries []TOCEntry) []byte {
	out := make([]byte, len(entries)*12)
	for i, e := range entries {
		binary.LittleEndian.PutUint64(out[i*12:], e.Offset)
		copy(out[i*12+8:], e.Tag[:])
	}
	return out
}

// UnmarshalFTOC parses an FTOC payload into its entries.
func UnmarshalFTOC(payload []byte) ([]TOCEntry, error) {
	if len(payload)%12 != 0 {
		return nil, fmt.Errorf("chunk: ftoc payload length %d is not a multiple of 12", len(payload))
	}
	out := make([]TOCEntry, len(payload)/12)
	for i := range out {
		off := i * 12
		out[i].Offset = binary.LittleEndian.Uint64(payload[off:])
		copy(out[i].Tag[:], payload[off+8:off+12])
	}
	return out, nil
}

// TrailerSize is the fixed size of the file trailer: an 8-byte
// little-endian FTOC offset followed by the raw 4-byte "FTOC" tag.
const TrailerSize = 12

// MarshalTrailer serializes the trailer pointing at ftocOffset.
func MarshalTrailer(ftocOffset uint64) []byte {
	out := make([]byte, TrailerSize)
	binary.LittleEndian.PutUint64(out, ftocOffset)
	copy(out[8:], TagFTOC[:])
	return out
}

// UnmarshalTrailer parses the last TrailerSize bytes of a file, returning
// the FTOC chunk's absolute offset.
func UnmarshalTrailer(b []byte) (uint64, error) {
	if len(b) != TrailerSize {
		return 0, fmt.Errorf("chunk: trailer must be %d bytes, got %d", TrailerSize, len(b))
	}
	var tag Tag
	copy(tag[:], b[8:12])
	if tag != TagFTOC {
		return 0, fmt.Errorf("chunk: trailer tag is %q, want %q", tag, TagFTOC)
	}
	return binary.LittleEndian.Uint64(b[0:8]), nil
}
