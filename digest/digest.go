// Package digest defines the external interface a digest pipeline must
// satisfy to feed encoder.Builder's record stream. Per spec.md §1's
// scoping, no concrete hash algorithm (MD5, SHA-1/2/3, BLAKE3, ssdeep
// fuzzy, Shannon entropy) is implemented in this module — this package
// names the contract so callers can be typed against it and supply
// their own implementation (e.g. wrapping crypto/md5, crypto/sha1, or a
// third-party ssdeep/BLAKE3 binding).
package digest

import "github.com/strozfriedberg/hashset/hashkind"

// Output is where a Pipeline writes a completed digest for one kind:
// Bytes is the fixed-width value (zero-padded to Width for variable
// algorithms like FUZZY, per hashkind.FuzzyWidth).
type Output struct {
	Kind  hashkind.Kind
	Bytes []byte
}

// Pipeline computes one or more digest kinds over a single byte stream
// in one pass. Implementations are not required to be safe for
// concurrent use. Nothing in this module calls a Pipeline; callers turn
// its Output into the chunk.Record values encoder.Builder.Insert takes.
type Pipeline interface {
	// Update feeds the next chunk of input bytes.
	Update(p []byte) error

	// SetTotalInputLength tells the pipeline the full length of the
	// input ahead of time. FUZZY (ssdeep) requires this before any
	// Update call; ENTROPY accepts it as a hint; other kinds ignore it.
	SetTotalInputLength(n uint64) error

	// Get writes every requested kind's completed digest, one Output
	// per kind this Pipeline was constructed with, in an
	// implementation-defined but stable order.
	Get() ([]Output, error)

	// Reset clears all internal state so the Pipeline can be reused for
	// the next input without reallocating per-kind state objects.
	Reset()

	// Clone returns an independent copy of the Pipeline's current state,
	// letting a caller fork a partially-hashed prefix across branches
	// (e.g. comparing two suffixes against a shared common prefix).
	Clone() Pipeline
}

// NewPipeline is left unimplemented: concrete digest algorithms are out
// of scope for this module (spec.md §1 Non-goals). Callers wire their
// own kinds []hashkind.Kind -> Pipeline constructor.
