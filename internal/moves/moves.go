// Package moves implements the move detector: it reclassifies
// matching regions across Remove/Insert blocks as moves, resolved
// iteratively to a mutually-best-match fixed point.
package moves

import (
	"github.com/twopane/duodiff/internal/blockdiff"
	"github.com/twopane/duodiff/internal/dbglog"
	"github.com/twopane/duodiff/internal/linehash"
	"github.com/twopane/duodiff/internal/section"
)

// Detect finds moves among blocks and appends them to each
// participating block's Moves field in place. linesA/linesB are the
// full hashed line vectors for side A and B; every block's Off/Len
// indexes into whichever of the two corresponds to its Kind (Remove
// blocks index linesA, Insert blocks index linesB).
//
// poll, if non-nil, is consulted after each REMOVE block is fully
// processed in a sweep; if it returns false the caller should treat
// the whole compare run as cancelled.
func Detect(blocks []blockdiff.Block, linesA, linesB []linehash.Line, poll func() bool) (ok bool) {
	// Every iteration that commits a move strictly grows covered-line
	// count, which is bounded by total input size, so this cap is a
	// defensive ceiling that should never actually bind.
	maxIter := len(linesA) + len(linesB) + 1

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i := range blocks {
			if blocks[i].Kind != blockdiff.Remove {
				continue
			}
			for off := 0; off < blocks[i].Len; off++ {
				if blocks[i].Covered(off) {
					continue
				}
				if tryCommit(blocks, linesA, linesB, i, off) {
					changed = true
				}
			}
			if poll != nil && !poll() {
				return false
			}
		}
		dbglog.MoveSweep(iter, changed)
		if !changed {
			return true
		}
	}
	dbglog.MoveSweepCapped(maxIter)
	return true
}

// tryCommit runs a forward best-match search from (blocks[remIdx],
// off), then a reverse search from the match back toward REMOVE
// blocks to confirm mutuality, and commits the overlapping run as a
// move on both blocks if the reverse search points back to remIdx.
func tryCommit(blocks []blockdiff.Block, linesA, linesB []linehash.Line, remIdx, off int) bool {
	found, insIdx, remStart, remLen, insStart := findBestMatch(blocks, linesA, linesB, blockdiff.Remove, remIdx, off)
	if !found {
		return false
	}

	found2, remIdx2, _, insLen2, remStart2 := findBestMatch(blocks, linesA, linesB, blockdiff.Insert, insIdx, insStart)
	if !found2 || remIdx2 != remIdx {
		return false
	}

	lo := remStart
	if remStart2 > lo {
		lo = remStart2
	}
	hi := remStart + remLen
	if remStart2+insLen2 < hi {
		hi = remStart2 + insLen2
	}
	if hi <= lo {
		return false
	}

	delta := lo - remStart
	finalInsStart := insStart + delta
	finalLen := hi - lo

	blocks[remIdx].Moves = append(blocks[remIdx].Moves, section.Section{Offset: lo, Length: finalLen})
	blocks[insIdx].Moves = append(blocks[insIdx].Moves, section.Section{Offset: finalInsStart, Length: finalLen})
	return true
}

// findBestMatch locates the longest run of mutually-uncovered equal
// hashes containing the single line at (blocks[fromIdx], localOff) of
// kind fromKind, searching across every block of the opposite kind.
// Ties (two candidate runs of equal best length) are discarded
// deliberately: picking one arbitrarily would make move detection
// order-dependent, so an ambiguous match is left undetected instead.
func findBestMatch(blocks []blockdiff.Block, linesA, linesB []linehash.Line, fromKind blockdiff.Kind, fromIdx, localOff int) (found bool, toIdx, fromStart, length, toStart int) {
	fromLines, toLines := sidesFor(fromKind, linesA, linesB)
	toKind := opposite(fromKind)
	fromBlock := blocks[fromIdx]
	lookupHash := fromLines[fromBlock.Off+localOff].Hash

	bestLen := 0
	tie := false
	var bestToIdx, bestFromStart, bestToStart int

	for ti, tb := range blocks {
		if tb.Kind != toKind {
			continue
		}
		for p := 0; p < tb.Len; p++ {
			if toLines[tb.Off+p].Hash != lookupHash || tb.Covered(p) {
				continue
			}

			l := 0
			for localOff-l-1 >= 0 && p-l-1 >= 0 &&
				!fromBlock.Covered(localOff-l-1) && !tb.Covered(p-l-1) &&
				fromLines[fromBlock.Off+localOff-l-1].Hash == toLines[tb.Off+p-l-1].Hash {
				l++
			}
			r := 0
			for localOff+r+1 < fromBlock.Len && p+r+1 < tb.Len &&
				!fromBlock.Covered(localOff+r+1) && !tb.Covered(p+r+1) &&
				fromLines[fromBlock.Off+localOff+r+1].Hash == toLines[tb.Off+p+r+1].Hash {
				r++
			}

			runLen := l + r + 1
			switch {
			case runLen > bestLen:
				bestLen = runLen
				bestToIdx = ti
				bestFromStart = localOff - l
				bestToStart = p - l
				tie = false
			case runLen == bestLen:
				tie = true
			}
		}
	}

	if bestLen == 0 || tie {
		return false, 0, 0, 0, 0
	}
	return true, bestToIdx, bestFromStart, bestLen, bestToStart
}

func opposite(k blockdiff.Kind) blockdiff.Kind {
	if k == blockdiff.Remove {
		return blockdiff.Insert
	}
	return blockdiff.Remove
}

func sidesFor(k blockdiff.Kind, linesA, linesB []linehash.Line) (own, other []linehash.Line) {
	if k == blockdiff.Remove {
		return linesA, linesB
	}
	return linesB, linesA
}
