// Package locate finds where a hunk's before text lives in a document and
// splices in the after text, tolerating the whitespace drift of
// machine-generated diffs.
package locate

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/fuzzpatch/fuzzpatch/internal/hunk"
)

// DefaultThreshold is the minimum similarity ratio the fuzzy strategy
// accepts when Locator.Threshold is unset.
const DefaultThreshold = 0.8

// Location failure sentinels. Returned errors wrap these with detail; test
// with errors.Is.
var (
	ErrNoMatch   = errors.New("hunk context not found")
	ErrAmbiguous = errors.New("hunk context is not unique")
)

// Locator locates a hunk's before lines in a document. Strategies run in
// fixed order, strictest first, and every strategy demands a unique match:
//
//  1. Exact: the before text occurs in the document as a substring.
//  2. Whitespace-insensitive: a window of document lines equals the before
//     lines after trimming surrounding whitespace from both sides.
//  3. Fuzzy: the window whose text is most similar to the before text,
//     accepted when the best ratio meets Threshold and no other window
//     ties it.
//
// More than one candidate at the exact or whitespace tier reports
// ErrAmbiguous: a duplicated match there is evidence of true ambiguity in
// the document, and no looser strategy may override it. At the fuzzy tier
// both a sub-threshold best and a tied best report ErrNoMatch; the
// caller's recourse is shrinking the hunk, not a looser scan.
type Locator struct {
	// Threshold is the minimum similarity ratio in (0, 1] for fuzzy
	// matches. Zero means DefaultThreshold.
	Threshold float64
	// Logger receives per-strategy outcomes at debug level. Nil disables.
	Logger *zap.Logger
}

// Replace applies the edit described by before and after to doc. Both are
// line slices whose elements retain their trailing newlines. The same
// windowing and the same similarity metric serve the fuzzy threshold check
// and its uniqueness check.
func (l *Locator) Replace(doc string, before, after []string) (string, error) {
	beforeText := strings.Join(before, "")
	afterText := strings.Join(after, "")
	if strings.TrimSpace(beforeText) == "" {
		return "", fmt.Errorf("empty before text: %w", ErrNoMatch)
	}

	switch n := strings.Count(doc, beforeText); n {
	case 0:
		// Formatting drift; fall through to the line strategies.
	case 1:
		l.logger().Debug("exact match", zap.Int("before_lines", len(before)))
		return strings.Replace(doc, beforeText, afterText, 1), nil
	default:
		return "", fmt.Errorf("before text occurs %d times: %w", n, ErrAmbiguous)
	}

	docLines := hunk.SplitLines(doc)
	offsets := lineOffsets(docLines)

	start, err := trimmedWindow(docLines, before)
	if err != nil {
		return "", err
	}
	if start >= 0 {
		l.logger().Debug("whitespace-insensitive match", zap.Int("line", start))
		return splice(doc, offsets, start, len(before), afterText), nil
	}

	start, err = l.fuzzyWindow(doc, offsets, len(before), beforeText)
	if err != nil {
		return "", err
	}
	l.logger().Debug("fuzzy match", zap.Int("line", start))
	return splice(doc, offsets, start, len(before), afterText), nil
}

func (l *Locator) threshold() float64 {
	if l.Threshold <= 0 {
		return DefaultThreshold
	}
	return l.Threshold
}

func (l *Locator) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// lineOffsets returns the byte offset of each line start, plus a final
// entry at the end of the document. Window i..i+n of the document is the
// byte range offsets[i]:offsets[i+n].
func lineOffsets(lines []string) []int {
	offs := make([]int, len(lines)+1)
	for i, ln := range lines {
		offs[i+1] = offs[i] + len(ln)
	}
	return offs
}

// splice replaces the window of n lines starting at line start with repl.
func splice(doc string, offsets []int, start, n int, repl string) string {
	return doc[:offsets[start]] + repl + doc[offsets[start+n]:]
}

// trimmedWindow returns the start line of the unique window that equals
// before with surrounding whitespace ignored, or -1 when no window
// matches.
func trimmedWindow(docLines, before []string) (int, error) {
	n := len(before)
	if n == 0 || n > len(docLines) {
		return -1, nil
	}
	trimmed := make([]string, n)
	for i, b := range before {
		trimmed[i] = strings.TrimSpace(b)
	}
	found := -1
	count := 0
	for i := 0; i+n <= len(docLines); i++ {
		ok := true
		for j := 0; j < n; j++ {
			if strings.TrimSpace(docLines[i+j]) != trimmed[j] {
				ok = false
				break
			}
		}
		if ok {
			count++
			if found < 0 {
				found = i
			}
		}
	}
	if count > 1 {
		return -1, fmt.Errorf("%d windows match ignoring whitespace: %w", count, ErrAmbiguous)
	}
	return found, nil
}

// fuzzyWindow scores every window of n lines against beforeText and
// returns the start line of the unique best-scoring window at or above the
// threshold.
func (l *Locator) fuzzyWindow(doc string, offsets []int, n int, beforeText string) (int, error) {
	docLineCount := len(offsets) - 1
	if n == 0 || n > docLineCount {
		return -1, fmt.Errorf("no window of %d lines fits the document: %w", n, ErrNoMatch)
	}
	best := -1.0
	bestStart := -1
	ties := 0
	for i := 0; i+n <= docLineCount; i++ {
		r := similarity(doc[offsets[i]:offsets[i+n]], beforeText)
		switch {
		case r > best:
			best, bestStart, ties = r, i, 1
		case r == best:
			ties++
		}
	}
	th := l.threshold()
	if best < th {
		return -1, fmt.Errorf("best similarity %.3f below threshold %.3f: %w", best, th, ErrNoMatch)
	}
	if ties > 1 {
		return -1, fmt.Errorf("%d windows tie at similarity %.3f: %w", ties, best, ErrNoMatch)
	}
	return bestStart, nil
}

// similarity returns a normalized ratio in [0, 1]: 1 - distance/maxLen,
// where distance is the Levenshtein distance derived from a
// character-level diff and maxLen the rune length of the longer input.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	return 1 - float64(distance)/float64(maxLen)
}
