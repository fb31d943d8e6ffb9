package locate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func lines(ss ...string) []string { return ss }

func TestReplaceExact(t *testing.T) {
	loc := &Locator{}
	got, err := loc.Replace("a\nb\nc\n", lines("b\n"), lines("B\n"))
	require.NoError(t, err)
	require.Equal(t, "a\nB\nc\n", got)
}

func TestReplaceExactMultiline(t *testing.T) {
	loc := &Locator{}
	doc := "one\ntwo\nthree\nfour\n"
	got, err := loc.Replace(doc, lines("two\n", "three\n"), lines("2\n", "3\n"))
	require.NoError(t, err)
	require.Equal(t, "one\n2\n3\nfour\n", got)
}

func TestReplaceExactAmbiguous(t *testing.T) {
	loc := &Locator{}
	_, err := loc.Replace("x\ny\nx\n", lines("x\n"), lines("z\n"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAmbiguous)
	require.Contains(t, err.Error(), "occurs 2 times")
}

func TestReplaceWhitespaceInsensitive(t *testing.T) {
	loc := &Locator{}
	doc := "  foo()  \n  bar()\n"
	got, err := loc.Replace(doc, lines("foo()\n", "bar()\n"), lines("foo2()\n", "bar()\n"))
	require.NoError(t, err)
	// The window is replaced by the after lines as written.
	require.Equal(t, "foo2()\nbar()\n", got)
}

func TestReplaceWhitespaceAmbiguous(t *testing.T) {
	loc := &Locator{}
	doc := "  a()  \nz\n  a()  \n"
	_, err := loc.Replace(doc, lines("a()\n"), lines("b()\n"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAmbiguous)
	require.Contains(t, err.Error(), "ignoring whitespace")
}

func TestReplaceFuzzy(t *testing.T) {
	loc := &Locator{}
	doc := "def calculate(x):\n    return x * 2\n\nprint(calculate(3))\n"
	got, err := loc.Replace(doc,
		lines("def calculate(y):\n", "    return y * 2\n"),
		lines("def calculate(y):\n", "    return y * 3\n"))
	require.NoError(t, err)
	require.Equal(t, "def calculate(y):\n    return y * 3\n\nprint(calculate(3))\n", got)
}

func TestReplaceFuzzyBelowThreshold(t *testing.T) {
	loc := &Locator{}
	_, err := loc.Replace("alpha\nbeta\n", lines("entirely unrelated text\n"), lines("x\n"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoMatch)
	require.Contains(t, err.Error(), "below threshold")
}

func TestReplaceFuzzyTie(t *testing.T) {
	// Both "aaaa" windows score 0.8 against "aaab": at or above the
	// threshold, but tied, so nothing is chosen.
	loc := &Locator{}
	_, err := loc.Replace("aaaa\nzzzz\naaaa\n", lines("aaab\n"), lines("bbbb\n"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoMatch)
	require.Contains(t, err.Error(), "tie")
}

func TestReplaceThresholdConfigurable(t *testing.T) {
	doc := "return calculate_value(x, y)\n"
	before := lines("return calculate_value(a, b)\n")
	after := lines("return compute(a, b)\n")

	got, err := (&Locator{}).Replace(doc, before, after)
	require.NoError(t, err)
	require.Equal(t, "return compute(a, b)\n", got)

	_, err = (&Locator{Threshold: 0.99}).Replace(doc, before, after)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestReplaceEmptyBefore(t *testing.T) {
	loc := &Locator{}
	_, err := loc.Replace("a\n", nil, lines("b\n"))
	require.ErrorIs(t, err, ErrNoMatch)

	_, err = loc.Replace("a\n", lines("  \n", "\n"), lines("b\n"))
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestReplaceHunkLargerThanDocument(t *testing.T) {
	loc := &Locator{}
	_, err := loc.Replace("a\n", lines("x\n", "y\n", "z\n"), lines("b\n"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestAmbiguityDoesNotFallThrough(t *testing.T) {
	// The document holds the before text twice and a near-miss that a
	// fuzzy scan would locate uniquely. The exact tier's ambiguity wins.
	doc := "val = 1\nother\nval = 1\nval = 2\n"
	loc := &Locator{}
	_, err := loc.Replace(doc, lines("val = 1\n"), lines("val = 9\n"))
	require.ErrorIs(t, err, ErrAmbiguous)
}

func TestDefaultThreshold(t *testing.T) {
	require.InDelta(t, 0.8, DefaultThreshold, 1e-9)
	require.InDelta(t, 0.8, (&Locator{}).threshold(), 1e-9)
	require.InDelta(t, 0.95, (&Locator{Threshold: 0.95}).threshold(), 1e-9)
}

func TestSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, similarity("abc", "abc"), 1e-9)
	require.InDelta(t, 0.0, similarity("", "abc"), 1e-9)
	require.InDelta(t, 0.75, similarity("abcd", "abcX"), 1e-9)
	// Rune-based lengths: one substitution in a five-rune word.
	require.InDelta(t, 0.8, similarity("héllo", "hello"), 1e-9)
}

func TestFuzzyUniqueBestAmongSeveralCandidates(t *testing.T) {
	// Two windows clear the threshold (0.857 and 0.833) but do not tie;
	// the unique best wins.
	doc := "abcde!\nzz\nabcdX\n"
	loc := &Locator{}
	got, err := loc.Replace(doc, lines("abcde\n"), lines("good\n"))
	require.NoError(t, err)
	require.Equal(t, "good\nzz\nabcdX\n", got)
}

func TestReplaceFuzzyChangesLineCount(t *testing.T) {
	doc := "start\nmid one\nmid two\nend\n"
	loc := &Locator{}
	got, err := loc.Replace(doc,
		lines("mid one\n", "mid twoX\n"),
		lines("first\n", "second\n", "third\n"))
	require.NoError(t, err)
	require.Equal(t, "start\nfirst\nsecond\nthird\nend\n", got)
}
