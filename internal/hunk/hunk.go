// Package hunk models the edits described by diff-like text: parsing the
// text into tagged line runs, and normalizing those runs into a canonical
// form suitable for matching against a document.
package hunk

import "strings"

// Op classifies one line of a hunk. The value is the unified-diff prefix
// byte for that line kind.
type Op byte

const (
	Context Op = ' '
	Delete  Op = '-'
	Add     Op = '+'
)

// Line is one tagged line of a hunk.
//
// Invariants:
//   - Text includes the trailing newline when the source line had one; only
//     the final line of a diff or document may lack it.
//   - Op is one of Context, Delete, Add.
type Line struct {
	Op   Op
	Text string
}

// Hunk is one self-contained, localized edit: an ordered run of context,
// delete, and add lines.
//
// Invariants:
//   - Lines appear in source order.
//   - Header, when present, is the "@@" marker line the hunk was parsed
//     under. It is diagnostic only: positions encoded in it are never
//     trusted, and it contributes nothing to Before/After.
type Hunk struct {
	Header string
	Lines  []Line
}

// IsEdit reports whether h contains at least one Add or Delete line. A run
// of pure context describes no change and is not an edit.
func (h Hunk) IsEdit() bool {
	for _, ln := range h.Lines {
		if ln.Op != Context {
			return true
		}
	}
	return false
}

// BeforeLines returns the document lines the hunk expects prior to
// application: context and delete lines, in order.
func (h Hunk) BeforeLines() []string {
	out := make([]string, 0, len(h.Lines))
	for _, ln := range h.Lines {
		if ln.Op == Context || ln.Op == Delete {
			out = append(out, ln.Text)
		}
	}
	return out
}

// AfterLines returns the document lines the hunk produces: context and add
// lines, in order.
func (h Hunk) AfterLines() []string {
	out := make([]string, 0, len(h.Lines))
	for _, ln := range h.Lines {
		if ln.Op == Context || ln.Op == Add {
			out = append(out, ln.Text)
		}
	}
	return out
}

// Before returns BeforeLines joined into a single string.
func (h Hunk) Before() string { return strings.Join(h.BeforeLines(), "") }

// After returns AfterLines joined into a single string.
func (h Hunk) After() string { return strings.Join(h.AfterLines(), "") }

// Text renders the hunk body with each line's op prefix restored. Two hunks
// describing the same edit render identically, so normalized Text serves as
// a deduplication key.
func (h Hunk) Text() string {
	var b strings.Builder
	for _, ln := range h.Lines {
		b.WriteByte(byte(ln.Op))
		b.WriteString(ln.Text)
	}
	return b.String()
}

// Section is a maximal run of lines of one class: context, or change
// (delete and add together). Sections exist only to support partial
// application, where a failed hunk is retried change section by change
// section with shrinking context.
type Section struct {
	Change bool
	Lines  []Line
}

// Sections splits h into its alternating context and change sections.
func (h Hunk) Sections() []Section {
	var out []Section
	for _, ln := range h.Lines {
		change := ln.Op != Context
		if len(out) == 0 || out[len(out)-1].Change != change {
			out = append(out, Section{Change: change})
		}
		last := &out[len(out)-1]
		last.Lines = append(last.Lines, ln)
	}
	return out
}
