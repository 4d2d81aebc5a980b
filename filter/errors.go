package filter

import "errors"

// ErrUnsupportedType is returned by UnmarshalBinary for an FLTR chunk
// whose Type discriminator names a filter kind this package does not
// implement. Callers should treat this the same as an absent filter.
var ErrUnsupportedType = errors.New("filter: unsupported filter type")

// ErrTruncated is returned when an FLTR chunk payload's declared
// fingerprint array length does not match the bytes actually present.
var ErrTruncated = errors.New("filter: truncated fingerprint array")
