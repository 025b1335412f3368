package moves

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/twopane/duodiff/internal/blockdiff"
	"github.com/twopane/duodiff/internal/linehash"
	"github.com/twopane/duodiff/internal/section"
)

func lines(hashes ...uint64) []linehash.Line {
	out := make([]linehash.Line, len(hashes))
	for i, h := range hashes {
		out[i] = linehash.Line{Hash: h, SourceLine: i}
	}
	return out
}

func TestDetect_SingleLineMove(t *testing.T) {
	// A: [x, y, c] -> only "c" (hash 3) is a Remove/Insert pair; x,y are
	// elsewhere matched (not relevant to this unit).
	linesA := lines(1, 2, 3)
	linesB := lines(3, 1, 2)

	blocks := []blockdiff.Block{
		{Kind: blockdiff.Insert, Off: 0, Len: 1, MatchBlock: blockdiff.NoMatch},
		{Kind: blockdiff.Match, Off: 1, Len: 2},
		{Kind: blockdiff.Remove, Off: 2, Len: 1, MatchBlock: blockdiff.NoMatch},
	}

	ok := Detect(blocks, linesA, linesB, nil)
	require.True(t, ok)

	require.Len(t, blocks[2].Moves, 1)
	require.Equal(t, 0, blocks[2].Moves[0].Offset)
	require.Equal(t, 1, blocks[2].Moves[0].Length)

	require.Len(t, blocks[0].Moves, 1)
	require.Equal(t, 0, blocks[0].Moves[0].Offset)
	require.Equal(t, 1, blocks[0].Moves[0].Length)
}

func TestDetect_MultiLineMoveExtendsBothDirections(t *testing.T) {
	// Remove block holds [10,20,30] at A[5:8]; Insert block holds the
	// same run at B[0:3]. Should be detected as a single 3-line move.
	linesA := lines(0, 0, 0, 0, 0, 10, 20, 30)
	linesB := lines(10, 20, 30, 0, 0, 0, 0, 0)

	blocks := []blockdiff.Block{
		{Kind: blockdiff.Insert, Off: 0, Len: 3, MatchBlock: blockdiff.NoMatch},
		{Kind: blockdiff.Remove, Off: 5, Len: 3, MatchBlock: blockdiff.NoMatch},
	}

	ok := Detect(blocks, linesA, linesB, nil)
	require.True(t, ok)

	require.Len(t, blocks[1].Moves, 1)
	require.Equal(t, section.Section{Offset: 0, Length: 3}, blocks[1].Moves[0])
	require.Len(t, blocks[0].Moves, 1)
	require.Equal(t, section.Section{Offset: 0, Length: 3}, blocks[0].Moves[0])
}

func TestDetect_TieDropsCandidate(t *testing.T) {
	// Two separate Insert blocks each contain a single line equal to the
	// Remove block's only line, with no way to extend either run. Equal
	// best-length candidates must be dropped, not arbitrarily picked.
	linesA := lines(42)
	linesB := lines(42, 42)

	blocks := []blockdiff.Block{
		{Kind: blockdiff.Insert, Off: 0, Len: 1, MatchBlock: blockdiff.NoMatch},
		{Kind: blockdiff.Insert, Off: 1, Len: 1, MatchBlock: blockdiff.NoMatch},
		{Kind: blockdiff.Remove, Off: 0, Len: 1, MatchBlock: blockdiff.NoMatch},
	}

	ok := Detect(blocks, linesA, linesB, nil)
	require.True(t, ok)

	require.Empty(t, blocks[0].Moves)
	require.Empty(t, blocks[1].Moves)
	require.Empty(t, blocks[2].Moves)
}

func TestDetect_TerminatesOnAdversarialRepeatedHash(t *testing.T) {
	n := 50
	hashesA := make([]uint64, n)
	hashesB := make([]uint64, n)
	for i := range hashesA {
		hashesA[i] = 7
		hashesB[i] = 7
	}
	linesA := lines(hashesA...)
	linesB := lines(hashesB...)

	blocks := []blockdiff.Block{
		{Kind: blockdiff.Remove, Off: 0, Len: n, MatchBlock: blockdiff.NoMatch},
		{Kind: blockdiff.Insert, Off: 0, Len: n, MatchBlock: blockdiff.NoMatch},
	}

	ok := Detect(blocks, linesA, linesB, nil)
	require.True(t, ok)
}
