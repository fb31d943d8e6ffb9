package fuzzpatch

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fuzzpatch/fuzzpatch/internal/hunk"
	"github.com/fuzzpatch/fuzzpatch/internal/locate"
)

// DefaultSimilarityThreshold is the minimum fuzzy-match ratio accepted
// when Options.SimilarityThreshold is zero. Observed callers of this kind
// of engine converge on 0.8; raise it for documents with many
// near-duplicate regions, where a loose match is riskier than a retry.
const DefaultSimilarityThreshold = locate.DefaultThreshold

// Options tune one Apply call. The zero value, and a nil *Options, give
// the defaults.
type Options struct {
	// SimilarityThreshold is the minimum similarity ratio in (0, 1] a
	// fuzzy match must reach. Zero means DefaultSimilarityThreshold.
	SimilarityThreshold float64

	// Exists reports whether the named target currently exists. It decides
	// create semantics for add-only hunks: a hunk with no before content
	// against a target that does not exist yields the hunk's after content
	// as the whole document. Nil means every target exists.
	Exists func(target string) bool

	// Logger receives per-hunk progress at debug level. Nil disables
	// logging.
	Logger *zap.Logger
}

func (o *Options) threshold() float64 {
	if o == nil || o.SimilarityThreshold == 0 {
		return DefaultSimilarityThreshold
	}
	return o.SimilarityThreshold
}

func (o *Options) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *Options) targetExists(target string) bool {
	if o == nil || o.Exists == nil {
		return true
	}
	return o.Exists(target)
}

// Result reports what one Apply call did.
type Result struct {
	// Text is the full replacement document. On failure it still carries
	// whatever the successful hunks produced.
	Text string
	// Found counts the unique hunks attempted, after duplicate and no-op
	// hunks are dropped.
	Found int
	// Applied counts hunks that landed.
	Applied int
	// Skipped counts hunks dropped without an attempt: duplicates of an
	// earlier hunk, and hunks that normalize to no change.
	Skipped int
	// Failures holds one description per failed hunk, in hunk order. The
	// same descriptions form the message of the returned ApplyError.
	Failures []string
}

// Apply applies the edits described by diffText to document and returns
// the edited text with application counts. target names the document for
// create semantics only (see Options.Exists); nothing is read or written
// on any filesystem.
//
// Hunks apply strictly in parsed order, each against the result of its
// predecessors. A diff with no recognizable edits returns the document
// unchanged with zero counts and no error. When one or more hunks fail,
// Apply returns a non-nil *Result alongside a *ApplyError: the Result
// carries the partially-patched text and the error carries every per-hunk
// failure, so the caller chooses to keep or discard.
func Apply(diffText, document, target string, opts *Options) (*Result, error) {
	log := opts.logger()

	doc, hadCRLF := normalizeEOL(document)
	diff, _ := normalizeEOL(diffText)

	res := &Result{Text: document}
	parsed := hunk.Parse(diff)
	if len(parsed) == 0 {
		log.Debug("no hunks found in diff")
		return res, nil
	}

	var attempts []hunk.Hunk
	seen := make(map[string]bool)
	for i, h := range parsed {
		n := hunk.Normalize(h)
		if !n.IsEdit() {
			log.Debug("skipping hunk: no change after normalization", zap.Int("hunk", i+1))
			res.Skipped++
			continue
		}
		key := n.Text()
		if seen[key] {
			log.Debug("skipping duplicate hunk", zap.Int("hunk", i+1))
			res.Skipped++
			continue
		}
		seen[key] = true
		attempts = append(attempts, n)
	}
	res.Found = len(attempts)
	log.Debug("parsed diff", zap.Int("hunks", len(parsed)), zap.Int("unique", res.Found))

	loc := &locate.Locator{Threshold: opts.threshold(), Logger: log}

	var errs []error
	for i, h := range attempts {
		next, err := applyHunk(doc, h, target, opts, loc)
		if err != nil {
			log.Debug("hunk failed", zap.Int("hunk", i+1), zap.Int("total", res.Found), zap.Error(err))
			res.Failures = append(res.Failures, describeFailure(i+1, res.Found, h, err))
			errs = append(errs, fmt.Errorf("hunk %d/%d: %w", i+1, res.Found, err))
			continue
		}
		log.Debug("hunk applied", zap.Int("hunk", i+1), zap.Int("total", res.Found))
		doc = next
		res.Applied++
	}

	res.Text = restoreEOL(doc, hadCRLF)
	if len(res.Failures) > 0 {
		return res, &ApplyError{Failures: res.Failures, Partial: res.Applied > 0, errs: errs}
	}
	return res, nil
}

// applyHunk applies one normalized hunk to doc and returns the new text.
func applyHunk(doc string, h hunk.Hunk, target string, opts *Options, loc *locate.Locator) (string, error) {
	if strings.TrimSpace(h.Before()) == "" {
		// Add-only hunk: nothing to locate.
		switch {
		case !opts.targetExists(target):
			return h.After(), nil
		case strings.TrimSpace(doc) == "":
			return doc + h.After(), nil
		default:
			return "", fmt.Errorf("add-only hunk against a non-empty document: %w", ErrMalformedHunk)
		}
	}

	next, err := loc.Replace(doc, h.BeforeLines(), h.AfterLines())
	if err == nil {
		return next, nil
	}
	if errors.Is(err, ErrAmbiguousMatch) {
		return "", err
	}
	return applyPartial(doc, h, loc)
}

// normalizeEOL rewrites CRLF line endings to LF, reporting whether any
// were present.
func normalizeEOL(s string) (string, bool) {
	if !strings.Contains(s, "\r\n") {
		return s, false
	}
	return strings.ReplaceAll(s, "\r\n", "\n"), true
}

// restoreEOL reinstates CRLF endings on text whose source used them.
func restoreEOL(s string, crlf bool) string {
	if !crlf {
		return s
	}
	return strings.ReplaceAll(s, "\n", "\r\n")
}
