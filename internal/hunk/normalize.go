package hunk

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// indentUnit is the number of spaces indentation is rounded to. Upstream
// diff generators drift by a space or two relative to the real document;
// rounding the hunk's lines to the nearest unit removes that noise. The
// document itself is never reindented.
const indentUnit = 4

// NormalizeIndent rounds the leading-space indentation of line to the
// nearest multiple of indentUnit, ties rounding up: 1, 2, 3, 5, 6, 7
// leading spaces become 0, 4, 4, 4, 8, 8. Blank and whitespace-only lines
// pass through unchanged, as do tab-indented lines. Idempotent.
func NormalizeIndent(line string) string {
	spaces := 0
	for spaces < len(line) && line[spaces] == ' ' {
		spaces++
	}
	rest := line[spaces:]
	if strings.TrimSpace(rest) == "" || strings.HasPrefix(rest, "\t") {
		return line
	}
	rounded := (spaces + indentUnit/2) / indentUnit * indentUnit
	if rounded == spaces {
		return line
	}
	return strings.Repeat(" ", rounded) + rest
}

// Normalize returns a canonical form of h: indentation rounded, whitespace-
// only lines reduced to bare newlines, and the line tags re-derived by
// running a line-level diff between the hunk's own before and after
// reconstructions. Re-deriving corrects self-inconsistent hunks (a context
// line that differs between before and after, a delete that should have
// been context) by trusting the reconstructed texts rather than the
// original tags. The result carries full context: every shared line
// appears as context around the changes.
//
// A hunk whose normalized before and after are identical normalizes to a
// hunk with no lines. Normalize is idempotent with respect to Before and
// After.
func Normalize(h Hunk) Hunk {
	beforeText := strings.Join(normalizeLines(h.BeforeLines()), "")
	afterText := strings.Join(normalizeLines(h.AfterLines()), "")

	out := Hunk{Header: h.Header}
	if beforeText == afterText {
		return out
	}

	// Diff based on lines:
	dmp := diffmatchpatch.New()
	rBefore, rAfter, lineArray := dmp.DiffLinesToRunes(beforeText, afterText)
	diffs := dmp.DiffMainRunes(rBefore, rAfter, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	for _, d := range diffs {
		var op Op
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			op = Context
		case diffmatchpatch.DiffDelete:
			op = Delete
		case diffmatchpatch.DiffInsert:
			op = Add
		}
		// Decode the rune-string back to original lines via lineArray.
		for _, r := range d.Text {
			idx := int(r)
			if idx < 0 || idx >= len(lineArray) {
				continue
			}
			out.Lines = append(out.Lines, Line{Op: op, Text: lineArray[idx]})
		}
	}
	return out
}

// normalizeLines rounds indentation on every line and reduces whitespace-
// only lines to their bare line terminator.
func normalizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			if strings.HasSuffix(ln, "\n") {
				out[i] = "\n"
			} else {
				out[i] = ""
			}
			continue
		}
		out[i] = NormalizeIndent(ln)
	}
	return out
}
