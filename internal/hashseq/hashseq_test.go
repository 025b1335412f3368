package hashseq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func hashes(vals ...uint64) []uint64 { return vals }

func TestDiff_IdenticalSequences(t *testing.T) {
	a := hashes(1, 2, 3)
	segs, swapped, err := Diff(a, a)
	require.NoError(t, err)
	require.False(t, swapped)
	require.Len(t, segs, 1)
	require.Equal(t, Segment{Kind: Match, OffA: 0, OffB: 0, Len: 3}, segs[0])
}

func TestDiff_BothEmpty(t *testing.T) {
	segs, _, err := Diff(nil, nil)
	require.NoError(t, err)
	require.Empty(t, segs)
}

func TestDiff_OneSideEmpty(t *testing.T) {
	segs, _, err := Diff(nil, hashes(1, 2))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	require.Equal(t, Insert, segs[0].Kind)
	require.Equal(t, 2, segs[0].Len)

	segs2, _, err := Diff(hashes(1, 2), nil)
	require.NoError(t, err)
	require.Len(t, segs2, 1)
	require.Equal(t, Remove, segs2[0].Kind)
	require.Equal(t, 2, segs2[0].Len)
}

func TestDiff_SimpleReplace(t *testing.T) {
	a := hashes(10, 20, 30)
	b := hashes(10, 99, 30)
	segs, _, err := Diff(a, b)
	require.NoError(t, err)

	var kinds []Kind
	for _, s := range segs {
		kinds = append(kinds, s.Kind)
	}
	require.Equal(t, []Kind{Match, Remove, Insert, Match}, kinds)
}

func TestDiff_SwapNormalizesCoordinates(t *testing.T) {
	// a is longer than b, forcing the internal swap path.
	a := hashes(1, 2, 3, 4, 5, 6, 7, 8, 10)
	b := hashes(1, 2, 9, 4, 5, 6, 7, 8)
	segsLong, swappedLong, err := Diff(a, b)
	require.NoError(t, err)
	require.True(t, swappedLong)

	segsShort, swappedShort, err := Diff(b, a)
	require.NoError(t, err)
	require.False(t, swappedShort)

	// Swapping sides and re-diffing should flip Remove<->Insert with
	// the same offsets.
	require.Len(t, segsLong, len(segsShort))
	for i := range segsLong {
		l, s := segsLong[i], segsShort[i]
		require.Equal(t, l.Len, s.Len)
		switch l.Kind {
		case Match:
			require.Equal(t, Match, s.Kind)
			require.Equal(t, l.OffA, s.OffB)
			require.Equal(t, l.OffB, s.OffA)
		case Remove:
			require.Equal(t, Insert, s.Kind)
			require.Equal(t, l.OffA, s.OffB)
		case Insert:
			require.Equal(t, Remove, s.Kind)
			require.Equal(t, l.OffB, s.OffA)
		}
	}
}

func TestDiff_SegmentsReconstructLengths(t *testing.T) {
	a := hashes(1, 2, 3, 4, 5)
	b := hashes(9, 2, 3, 8, 5, 7)
	segs, _, err := Diff(a, b)
	require.NoError(t, err)

	var lenA, lenB int
	for _, s := range segs {
		switch s.Kind {
		case Match:
			lenA += s.Len
			lenB += s.Len
		case Remove:
			lenA += s.Len
		case Insert:
			lenB += s.Len
		}
	}
	require.Equal(t, len(a), lenA)
	require.Equal(t, len(b), lenB)
}
