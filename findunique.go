package compare

import (
	"github.com/twopane/duodiff/internal/linehash"
	"github.com/twopane/duodiff/internal/markers"
	"github.com/twopane/duodiff/internal/section"
)

// compareFindUnique is the find-unique-lines short circuit: it skips
// the LCS kernel and block comparator entirely, reusing the same line
// hasher the main path uses, and marks every line whose hash is
// absent on the other side.
func compareFindUnique(a, b HostView, opts Options, poll func() bool) (Outcome, error) {
	topts := tokenizerOptions(a, opts)
	lopts := linehash.Options{Options: topts, IgnoreEmptyLines: opts.IgnoreEmptyLines}

	var selA, selB *section.Section
	if opts.SelectionCompare {
		selA, selB = &opts.SelectionA, &opts.SelectionB
	}

	linesA, ok := linehash.Hash(hostViewAdapter{a}, selA, lopts, poll)
	if !ok {
		return Outcome{Result: ResultCancelled}, ErrCancelled
	}
	linesB, ok := linehash.Hash(hostViewAdapter{b}, selB, lopts, poll)
	if !ok {
		return Outcome{Result: ResultCancelled}, ErrCancelled
	}

	hashesA := make(map[uint64]bool, len(linesA))
	for _, l := range linesA {
		hashesA[l.Hash] = true
	}
	hashesB := make(map[uint64]bool, len(linesB))
	for _, l := range linesB {
		hashesB[l.Hash] = true
	}

	removeMask, insertMask := markers.Removed, markers.Added
	if opts.OldFileViewID == SubView {
		removeMask, insertMask = markers.Added, markers.Removed
	}

	var sideA, sideB markers.Side
	result := ResultMatch

	for _, l := range linesA {
		if !hashesB[l.Hash] {
			sideA.Markers = append(sideA.Markers, markers.LineMarker{Line: l.SourceLine, Mask: removeMask})
			result = ResultMismatch
		}
	}
	for _, l := range linesB {
		if !hashesA[l.Hash] {
			sideB.Markers = append(sideB.Markers, markers.LineMarker{Line: l.SourceLine, Mask: insertMask})
			result = ResultMismatch
		}
	}

	return Outcome{Result: result, SideA: sideA, SideB: sideB}, nil
}
