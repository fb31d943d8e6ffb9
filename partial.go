package fuzzpatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fuzzpatch/fuzzpatch/internal/hunk"
	"github.com/fuzzpatch/fuzzpatch/internal/locate"
)

// applyPartial retries a hunk that failed as a whole, change section by
// change section, shrinking the surrounding context until each section
// lands. Later sections run against the already-mutated document: the
// sections of one hunk are not independent. If any section exhausts every
// context size the whole hunk fails, and the caller keeps the document
// unchanged (all-or-nothing per hunk).
func applyPartial(doc string, h hunk.Hunk, loc *locate.Locator) (string, error) {
	secs := h.Sections()
	out := doc
	section := 0
	for i, sec := range secs {
		if !sec.Change {
			continue
		}
		section++
		// Sections alternate, so the neighbors are context when present.
		var prec, foll []hunk.Line
		if i > 0 {
			prec = secs[i-1].Lines
		}
		if i+1 < len(secs) {
			foll = secs[i+1].Lines
		}
		next, err := applySection(out, prec, sec.Lines, foll, loc)
		if err != nil {
			return "", fmt.Errorf("change section %d: %w", section, err)
		}
		out = next
	}
	return out, nil
}

// applySection locates one change section using progressively less of its
// surrounding context: all of it, half, one line each side, none. The
// preceding context contributes its last lines and the following context
// its first, so the retained context stays adjacent to the change.
func applySection(doc string, prec, change, foll []hunk.Line, loc *locate.Locator) (string, error) {
	for _, size := range contextLadder(len(prec), len(foll)) {
		lines := make([]hunk.Line, 0, size.prec+len(change)+size.foll)
		lines = append(lines, prec[len(prec)-size.prec:]...)
		lines = append(lines, change...)
		lines = append(lines, foll[:size.foll]...)
		mini := hunk.Hunk{Lines: lines}
		if strings.TrimSpace(mini.Before()) == "" {
			// A pure insertion needs at least one context or delete line
			// to anchor on.
			continue
		}
		next, err := loc.Replace(doc, mini.BeforeLines(), mini.AfterLines())
		if err == nil {
			return next, nil
		}
		if errors.Is(err, ErrAmbiguousMatch) {
			// Shrinking context only widens the candidate set.
			return "", err
		}
	}
	return "", fmt.Errorf("no context size matched: %w", ErrNoMatch)
}

type contextSize struct {
	prec, foll int
}

// contextLadder returns the (preceding, following) context sizes to try,
// largest first. Halving floors at one line so the sizes shrink through
// every rung: full, half, single, none.
func contextLadder(np, nf int) []contextSize {
	halve := func(n int) int {
		if n <= 1 {
			return n
		}
		return n / 2
	}
	steps := []contextSize{
		{np, nf},
		{halve(np), halve(nf)},
		{min(np, 1), min(nf, 1)},
		{0, 0},
	}
	out := make([]contextSize, 0, len(steps))
	for _, s := range steps {
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	return out
}
