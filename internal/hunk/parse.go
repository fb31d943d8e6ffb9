package hunk

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Parse extracts hunks from diffText. Three dialects are recognized, in
// priority order:
//
//  1. Markdown-fenced diff blocks: fenced code blocks whose info string is
//     "diff". Each block is split on "@@" marker lines. The fence opener
//     acts as the first marker, so a block with no "@@" at all still
//     yields its whole body as one hunk.
//  2. Bare unified-diff text: the input itself is split on "@@" marker
//     lines; text before the first marker is ignored.
//  3. Raw fallback: input whose every line starts with ' ', '+', '-' or is
//     blank, with at least one '+' or '-' line among them, becomes a
//     single unmarked hunk.
//
// A marker with no add or delete line accumulated since the previous
// marker discards those lines, so stray markers and pure-context runs
// produce nothing. "--- file" / "+++ file" header pairs are dropped
// wherever they appear. An empty result is not an error: it means the text
// carries no edits.
func Parse(diffText string) []Hunk {
	if diffText == "" {
		return nil
	}
	if !strings.HasSuffix(diffText, "\n") {
		diffText += "\n"
	}

	if blocks := fencedDiffBlocks(diffText); len(blocks) > 0 {
		var hunks []Hunk
		for _, block := range blocks {
			hunks = append(hunks, splitHunks(block, true)...)
		}
		return hunks
	}

	if hunks := splitHunks(diffText, false); len(hunks) > 0 {
		return hunks
	}

	return rawHunk(diffText)
}

// SplitLines splits s into lines, each retaining its trailing newline. A
// final line without a newline is kept as-is.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// splitHunks cuts s into hunks at "@@" marker lines. When openAtStart is
// true, s is already inside a diff region and lines before the first
// marker belong to an implicit leading hunk; otherwise they are ignored.
func splitHunks(s string, openAtStart bool) []Hunk {
	lines := dropFileHeaders(SplitLines(s))

	var hunks []Hunk
	open := openAtStart
	var header string
	var body []string

	flush := func() {
		if !open {
			return
		}
		if h, ok := buildHunk(header, body); ok {
			hunks = append(hunks, h)
		}
	}

	for _, ln := range lines {
		if strings.HasPrefix(ln, "@@") {
			flush()
			open = true
			header = strings.TrimRight(ln, "\n")
			body = nil
			continue
		}
		body = append(body, ln)
	}
	flush()
	return hunks
}

// dropFileHeaders removes adjacent "--- file" / "+++ file" pairs. One
// invocation targets one document, so file headers carry no information,
// and left in place their leading bytes would classify as delete and add
// lines.
func dropFileHeaders(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ ") {
			i++
			continue
		}
		out = append(out, lines[i])
	}
	return out
}

// buildHunk classifies body lines by their first byte and returns the hunk
// when it contains at least one add or delete line. Lines with any other
// prefix (fence remnants, prose, "\ No newline at end of file" notes) are
// not hunk material and are skipped.
func buildHunk(header string, body []string) (Hunk, bool) {
	h := Hunk{Header: header}
	for _, ln := range body {
		switch {
		case ln == "\n" || ln == "":
			h.Lines = append(h.Lines, Line{Op: Context, Text: ln})
		case ln[0] == byte(Context) || ln[0] == byte(Delete) || ln[0] == byte(Add):
			h.Lines = append(h.Lines, Line{Op: Op(ln[0]), Text: ln[1:]})
		}
	}
	if !h.IsEdit() {
		return Hunk{}, false
	}
	return h, true
}

// rawHunk treats the whole input as one unmarked hunk, provided every line
// is diff-shaped.
func rawHunk(s string) []Hunk {
	lines := SplitLines(s)
	hasChange := false
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		switch ln[0] {
		case byte(Add), byte(Delete):
			hasChange = true
		case byte(Context):
		default:
			return nil
		}
	}
	if !hasChange {
		return nil
	}
	h, ok := buildHunk("", lines)
	if !ok {
		return nil
	}
	return []Hunk{h}
}

// fencedDiffBlocks returns the contents of markdown fenced code blocks
// whose info string names the diff language.
func fencedDiffBlocks(s string) []string {
	src := []byte(s)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var blocks []string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var info string
		if fcb.Info != nil {
			info = string(fcb.Info.Value(src))
		}
		if !isDiffInfo(info) {
			return ast.WalkContinue, nil
		}
		if content := fencedContent(src, fcb); content != "" {
			blocks = append(blocks, content)
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

func isDiffInfo(info string) bool {
	fields := strings.Fields(info)
	return len(fields) > 0 && strings.EqualFold(fields[0], "diff")
}

// fencedContent joins the source segments of a fenced code block back into
// its literal body.
func fencedContent(src []byte, fcb *ast.FencedCodeBlock) string {
	lines := fcb.Lines()
	if lines == nil || lines.Len() == 0 {
		return ""
	}
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if seg.Start < 0 || seg.Stop < seg.Start || seg.Stop > len(src) {
			continue
		}
		buf.Write(src[seg.Start:seg.Stop])
	}
	return buf.String()
}
