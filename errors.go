package fuzzpatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fuzzpatch/fuzzpatch/internal/hunk"
	"github.com/fuzzpatch/fuzzpatch/internal/locate"
)

// Failure sentinels. Per-hunk failures wrap one of these, and the
// aggregate ApplyError exposes them through Unwrap, so errors.Is works
// directly on the error returned by Apply.
var (
	// ErrNoMatch: the hunk's before content cannot be located anywhere in
	// the document, even fuzzily. Recoverable at the hunk level; the
	// remaining hunks still attempt.
	ErrNoMatch = locate.ErrNoMatch

	// ErrAmbiguousMatch: the before content matches more than one location
	// at the same confidence tier. Always fatal for that hunk and never
	// resolved by a looser tier.
	ErrAmbiguousMatch = locate.ErrAmbiguous

	// ErrMalformedHunk: the hunk is structurally unusable, such as an
	// add-only hunk against an existing non-empty document.
	ErrMalformedHunk = errors.New("malformed hunk")
)

// Advisory text carried in failure descriptions. Callers hand these back
// to whatever produced the diff, so the wording tells the producer how to
// fix its next attempt.
const (
	adviceNoMatch    = "the diff must apply cleanly to the lines of the current document; retry with a smaller, more targeted diff, and do not skip blank or unchanged lines"
	adviceNotUnique  = "the diff matches more than one set of lines; retry with a more targeted diff that applies to a unique set of lines"
	adviceMalformed  = "the hunk adds lines with no anchoring context; include the unchanged lines around the insertion point"
	noteHunksApplied = "note: some hunks did apply successfully"
)

// ApplyError aggregates the per-hunk failures of one Apply call. It is
// returned only after every hunk has been attempted.
type ApplyError struct {
	// Failures holds one description per failed hunk, in hunk order.
	Failures []string
	// Partial reports whether at least one other hunk applied, meaning
	// the text in the accompanying Result was still mutated.
	Partial bool

	errs []error
}

func (e *ApplyError) Error() string {
	msg := strings.Join(e.Failures, "\n---\n")
	if e.Partial {
		msg += "\n\n" + noteHunksApplied
	}
	return msg
}

// Unwrap exposes the underlying per-hunk errors for errors.Is and
// errors.As.
func (e *ApplyError) Unwrap() []error { return e.errs }

// excerptLimit caps how much of a failed hunk's before text is echoed in
// its failure description.
const excerptLimit = 200

// describeFailure renders one failed hunk for the aggregate report: its
// position, the cause, an excerpt of the lines it expected, and advice for
// the diff producer.
func describeFailure(pos, total int, h hunk.Hunk, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "hunk %d/%d failed to apply: %v\n", pos, total, err)
	if excerpt := beforeExcerpt(h); excerpt != "" {
		fmt.Fprintf(&b, "expected lines:\n%s\n", excerpt)
	}
	switch {
	case errors.Is(err, ErrAmbiguousMatch):
		b.WriteString(adviceNotUnique)
	case errors.Is(err, ErrMalformedHunk):
		b.WriteString(adviceMalformed)
	default:
		b.WriteString(adviceNoMatch)
	}
	return b.String()
}

func beforeExcerpt(h hunk.Hunk) string {
	s := strings.TrimRight(h.Before(), "\n")
	if len(s) > excerptLimit {
		s = s[:excerptLimit] + "..."
	}
	return s
}
