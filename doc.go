// Package fuzzpatch applies diff-like edit descriptions to the text of a single document, tolerating the formatting drift of machine-generated diffs.
//
// Dialects: Apply accepts three input shapes, tried in priority order:
//   - markdown-fenced diff blocks: fenced code blocks tagged "diff", each split on "@@" marker lines
//   - bare unified-diff text containing "@@" marker lines directly
//   - raw prefixed lines: text whose every line starts with ' ', '+', '-' or is blank is a single unmarked hunk
//
// Line numbers in "@@" headers are never trusted; hunks are located purely by content. "--- file" / "+++ file" header pairs are ignored. A diff carrying no '+' or
// '-' lines is a no-op, not an error.
//
// Matching: each hunk is normalized (indentation rounded to multiples of four, line tags re-derived from the hunk's own before/after reconstruction) and then
// located by a cascade of strategies, strictest first: exact substring, whitespace-insensitive line window, fuzzy window by similarity ratio. Every strategy demands
// a unique candidate. More than one candidate at the exact or whitespace tier fails the hunk as ambiguous rather than falling through: a duplicated match there is
// evidence of true ambiguity in the document, not of formatting drift. When the whole hunk cannot be located, it is retried change section by change section with
// progressively less surrounding context (all, half, one line each side, none); sections of one hunk apply in order against the already-mutated document, and the
// hunk is all-or-nothing.
//
// Hunks in one diff apply strictly in parsed order, each seeing the effects of its predecessors; identical hunks are attempted once. Order is a correctness
// requirement: a later hunk's context may only exist after an earlier hunk has applied.
//
// Errors: failures are collected per hunk and never abort the remaining hunks. After all hunks, Apply returns an *ApplyError aggregating every failure; when some
// hunks applied and some failed, the error says so and the Result still carries the mutated text, so the caller decides whether to keep it. Failure kinds are
// testable with errors.Is against ErrNoMatch, ErrAmbiguousMatch, and ErrMalformedHunk.
//
// Newlines: '\n' is the line separator. CRLF input is normalized on entry and restored on output, so callers see their own convention preserved. A hunk line's
// trailing newline is part of its payload.
package fuzzpatch
