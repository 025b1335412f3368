package compare

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/twopane/duodiff/internal/markers"
)

type fakeView struct {
	lines []string
}

func (v fakeView) LineCount() int             { return len(v.lines) }
func (v fakeView) LineBytes(i int) []byte      { return []byte(v.lines[i]) }
func (v fakeView) ToLowerCase(b []byte) []byte { return bytes.ToLower(b) }

func newView(lines ...string) fakeView { return fakeView{lines: lines} }

// A single-char replace inside an otherwise matching document.
func TestCompareViews_Scenario1_SingleCharReplace(t *testing.T) {
	a := newView("x", "y", "z")
	b := newView("x", "Y", "z")

	out, err := CompareViews(a, b, Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, ResultMismatch, out.Result)

	require.Len(t, out.SideA.Markers, 1)
	require.Equal(t, markers.LineMarker{Line: 1, Mask: markers.Changed}, out.SideA.Markers[0])
	require.Len(t, out.SideB.Markers, 1)
	require.Equal(t, markers.LineMarker{Line: 1, Mask: markers.Changed}, out.SideB.Markers[0])

	require.Len(t, out.SideA.Highlights, 1)
	require.Equal(t, 0, out.SideA.Highlights[0].Change.Offset)
	require.Equal(t, 1, out.SideA.Highlights[0].Change.Length)
}

// A three-line rotation is recognized as moves when detectMoves is set.
func TestCompareViews_Scenario2_DetectsMoves(t *testing.T) {
	a := newView("a", "b", "c")
	b := newView("c", "a", "b")

	out, err := CompareViews(a, b, Options{DetectMoves: true}, nil)
	require.NoError(t, err)
	require.Equal(t, ResultMismatch, out.Result)

	for _, m := range out.SideA.Markers {
		require.Contains(t, []markers.Mask{markers.MovedLine, markers.MovedBegin, markers.MovedMid, markers.MovedEnd}, m.Mask)
	}
	for _, m := range out.SideB.Markers {
		require.Contains(t, []markers.Mask{markers.MovedLine, markers.MovedBegin, markers.MovedMid, markers.MovedEnd}, m.Mask)
	}
}

// ignoreCase + ignoreSpaces collapses a pure whitespace/case
// difference to MATCH.
func TestCompareViews_Scenario3_IgnoreCaseAndSpacesMatch(t *testing.T) {
	a := newView("hello world")
	b := newView("hello  WORLD")

	out, err := CompareViews(a, b, Options{IgnoreCase: true, IgnoreSpaces: true}, nil)
	require.NoError(t, err)
	require.Equal(t, ResultMatch, out.Result)
	require.Empty(t, out.SideA.Markers)
	require.Empty(t, out.SideB.Markers)
}

// charPrecision narrows a one-digit change to exactly that character.
func TestCompareViews_Scenario4_CharPrecisionNarrowsToDigit(t *testing.T) {
	a := newView("int x = 1;")
	b := newView("int x = 2;")

	out, err := CompareViews(a, b, Options{CharPrecision: true, MatchPercentThreshold: 50}, nil)
	require.NoError(t, err)
	require.Equal(t, ResultMismatch, out.Result)

	require.Len(t, out.SideA.Highlights, 1)
	require.Equal(t, 1, out.SideA.Highlights[0].Change.Length)
	require.Len(t, out.SideB.Highlights, 1)
	require.Equal(t, 1, out.SideB.Highlights[0].Change.Length)
}

// A below-threshold replacement produces plain remove/insert, no
// CHANGED mapping.
func TestCompareViews_Scenario5_BelowThresholdNoMapping(t *testing.T) {
	a := newView("foo", "bar")
	b := newView("baz", "qux")

	out, err := CompareViews(a, b, Options{MatchPercentThreshold: 70}, nil)
	require.NoError(t, err)
	require.Equal(t, ResultMismatch, out.Result)

	for _, m := range out.SideA.Markers {
		require.Equal(t, markers.Removed, m.Mask)
	}
	for _, m := range out.SideB.Markers {
		require.Equal(t, markers.Added, m.Mask)
	}
}

// findUniqueMode marks hash-unique lines on each side only.
func TestCompareViews_Scenario6_FindUniqueMode(t *testing.T) {
	a := newView("h1", "h2", "h3")
	b := newView("h2", "h4")

	out, err := CompareViews(a, b, Options{FindUniqueMode: true}, nil)
	require.NoError(t, err)
	require.Equal(t, ResultMismatch, out.Result)

	require.ElementsMatch(t, []markers.LineMarker{
		{Line: 0, Mask: markers.Removed},
		{Line: 2, Mask: markers.Removed},
	}, out.SideA.Markers)
	require.ElementsMatch(t, []markers.LineMarker{
		{Line: 1, Mask: markers.Added},
	}, out.SideB.Markers)
}

func TestCompareViews_SelfCompareAlwaysMatches(t *testing.T) {
	v := newView("alpha", "beta", "", "gamma")
	out, err := CompareViews(v, v, Options{DetectMoves: true, CharPrecision: true, MatchPercentThreshold: 60}, nil)
	require.NoError(t, err)
	require.Equal(t, ResultMatch, out.Result)
	require.Empty(t, out.SideA.Markers)
	require.Empty(t, out.SideB.Markers)
}

func TestCompareViews_BothSidesEmpty(t *testing.T) {
	v := newView()
	out, err := CompareViews(v, v, Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, ResultMatch, out.Result)
}

func TestCompareViews_OneSideEmpty(t *testing.T) {
	a := newView()
	b := newView("x", "y")

	out, err := CompareViews(a, b, Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, ResultMismatch, out.Result)
	require.Empty(t, out.SideA.Markers)
	require.Len(t, out.SideB.Markers, 2)
	for _, m := range out.SideB.Markers {
		require.Equal(t, markers.Added, m.Mask)
	}
}

func TestCompareViews_OldFileViewIDSwapsMaskFamily(t *testing.T) {
	a := newView("foo")
	b := newView("bar")

	out, err := CompareViews(a, b, Options{MatchPercentThreshold: 100, OldFileViewID: SubView}, nil)
	require.NoError(t, err)
	require.Equal(t, ResultMismatch, out.Result)
	for _, m := range out.SideA.Markers {
		require.Equal(t, markers.Added, m.Mask)
	}
	for _, m := range out.SideB.Markers {
		require.Equal(t, markers.Removed, m.Mask)
	}
}

type cancelingProgress struct{ calls int }

func (p *cancelingProgress) SetMaxCount(int) {}
func (p *cancelingProgress) NextPhase() bool { return true }
func (p *cancelingProgress) Advance() bool {
	p.calls++
	return false
}

func TestCompareViews_CancellationReturnsCancelledResult(t *testing.T) {
	lines := make([]string, 2000)
	for i := range lines {
		lines[i] = "x"
	}
	a := newView(lines...)
	b := newView(lines...)

	out, err := CompareViews(a, b, Options{}, &cancelingProgress{})
	require.ErrorIs(t, err, ErrCancelled)
	require.Equal(t, ResultCancelled, out.Result)
}
