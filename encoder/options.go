package encoder

import "github.com/strozfriedberg/hashset/hint"

// options configures a Builder's behavior beyond the schema itself.
type options struct {
	tmpDir               string
	allowDuplicateHashes bool
	hintKind             hint.Kind
	bucketBits           uint8
	buildFilter          bool
	filterMinKeys        int
}

func defaultOptions() options {
	return options{
		hintKind:      hint.KindBlock,
		bucketBits:    8,
		buildFilter:   false,
		filterMinKeys: 32,
	}
}

// Option configures a Builder at construction time.
type Option func(*options)

// WithTmpDir sets the directory used for spool files. An empty string (the
// default) asks os.MkdirTemp to pick one.
func WithTmpDir(dir string) Option {
	return func(o *options) { o.tmpDir = dir }
}

// WithAllowDuplicateHashes permits the same hash value to appear more than
// once in a column (resolved Open Question #2): both positions are kept,
// sorted adjacently, and a reader's RecordsFor returns the whole run.
// Without this option a duplicate fails the build with ErrBadRecord.
func WithAllowDuplicateHashes() Option {
	return func(o *options) { o.allowDuplicateHashes = true }
}

// WithHintKind selects which lookup strategy's hint each column computes.
// The default is KindBlock with 8 bucket bits, matching spec's default of
// k=8.
func WithHintKind(kind hint.Kind, bucketBits uint8) Option {
	return func(o *options) {
		o.hintKind = kind
		o.bucketBits = bucketBits
	}
}

// WithFilter enables building an FLTR binary-fuse prefilter for every
// column with at least minKeys entries (binary fuse filters need a
// handful of keys to converge; smaller columns skip the filter and rely
// on the hint alone). minKeys <= 0 keeps the default of 32.
func WithFilter(minKeys int) Option {
	return func(o *options) {
		o.buildFilter = true
		if minKeys > 0 {
			o.filterMinKeys = minKeys
		}
	}
}
