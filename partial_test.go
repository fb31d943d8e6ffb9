package fuzzpatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fuzzpatch/fuzzpatch/internal/hunk"
	"github.com/fuzzpatch/fuzzpatch/internal/locate"
)

func TestApplyPartial_ShrinksContextUntilUnique(t *testing.T) {
	// The first context line never existed in the document, so the full
	// hunk cannot match; dropping to one preceding context line leaves a
	// unique exact window.
	doc := "import os\n\nsettings = load(\"config.ini\")\ndef main():\n    run(settings)\n"
	h := hunk.Hunk{Lines: []hunk.Line{
		{Op: hunk.Context, Text: "stale_context_line\n"},
		{Op: hunk.Context, Text: "settings = load(\"config.ini\")\n"},
		{Op: hunk.Delete, Text: "def main():\n"},
		{Op: hunk.Add, Text: "def main(argv):\n"},
	}}

	got, err := applyPartial(doc, h, &locate.Locator{})
	require.NoError(t, err)
	require.Equal(t, "import os\n\nsettings = load(\"config.ini\")\ndef main(argv):\n    run(settings)\n", got)
}

func TestApplyPartial_AmbiguityAborts(t *testing.T) {
	// Once a rung reports an ambiguous window the ladder stops: shrinking
	// the context further can only add candidates, never remove them.
	doc := "x\nz\nx\n"
	h := hunk.Hunk{Lines: []hunk.Line{
		{Op: hunk.Context, Text: "ctx_drift\n"},
		{Op: hunk.Delete, Text: "x\n"},
		{Op: hunk.Add, Text: "y\n"},
	}}

	_, err := applyPartial(doc, h, &locate.Locator{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAmbiguousMatch)
	require.Contains(t, err.Error(), "change section 1")
}

func TestApplyPartial_SectionsSeeEarlierEdits(t *testing.T) {
	// Two change sections in one hunk; the second locates against the
	// document the first already rewrote.
	doc := "one\ntwo\nthree\nfour\n"
	h := hunk.Hunk{Lines: []hunk.Line{
		{Op: hunk.Context, Text: "stale1\n"},
		{Op: hunk.Delete, Text: "two\n"},
		{Op: hunk.Add, Text: "TWO\n"},
		{Op: hunk.Context, Text: "three\n"},
		{Op: hunk.Delete, Text: "four\n"},
		{Op: hunk.Add, Text: "FOUR\n"},
	}}

	got, err := applyPartial(doc, h, &locate.Locator{})
	require.NoError(t, err)
	require.Equal(t, "one\nTWO\nthree\nFOUR\n", got)
}

func TestApply_PartialAllOrNothing(t *testing.T) {
	// The first change section of the hunk would land, but the second
	// cannot match at any context size, so the hunk fails and the
	// document keeps its original text.
	document := "one\ntwo\nthree\nfour\n"
	diff := trimLeadingNewline(`
@@
 stale1
-two
+TWO
 three
-MISSING
+whatever
`)

	res, err := Apply(diff, document, "", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "change section 2")
	require.NotNil(t, res)
	require.Equal(t, document, res.Text)
	require.Equal(t, 1, res.Found)
	require.Equal(t, 0, res.Applied)
}

func TestApplySection_PureInsertionNeedsAnchor(t *testing.T) {
	loc := &locate.Locator{}

	change := []hunk.Line{{Op: hunk.Add, Text: "new\n"}}
	_, err := applySection("doc\n", nil, change, nil, loc)
	require.ErrorIs(t, err, ErrNoMatch)

	prec := []hunk.Line{{Op: hunk.Context, Text: "a\n"}}
	got, err := applySection("a\nb\n", prec, change, nil, loc)
	require.NoError(t, err)
	require.Equal(t, "a\nnew\nb\n", got)
}

func TestContextLadder(t *testing.T) {
	cases := []struct {
		name   string
		np, nf int
		want   []contextSize
	}{
		{
			name: "full context halves then shrinks to none",
			np:   4, nf: 4,
			want: []contextSize{{4, 4}, {2, 2}, {1, 1}, {0, 0}},
		},
		{
			name: "single line context skips duplicate rungs",
			np:   1, nf: 0,
			want: []contextSize{{1, 0}, {0, 0}},
		},
		{
			name: "no context",
			np:   0, nf: 0,
			want: []contextSize{{0, 0}},
		},
		{
			name: "uneven context",
			np:   5, nf: 2,
			want: []contextSize{{5, 2}, {2, 1}, {1, 1}, {0, 0}},
		},
		{
			name: "halving floors at one line",
			np:   2, nf: 0,
			want: []contextSize{{2, 0}, {1, 0}, {0, 0}},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, contextLadder(tc.np, tc.nf))
		})
	}
}
