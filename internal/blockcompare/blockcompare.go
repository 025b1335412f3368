// Package blockcompare is the block comparator: for a replace pair of
// Remove/Insert blocks, it picks the line-to-line mapping that
// maximizes total similarity, then diffs each paired line at word
// granularity with optional character-level refinement.
package blockcompare

import (
	"sort"

	"github.com/twopane/duodiff/internal/blockdiff"
	"github.com/twopane/duodiff/internal/dbglog"
	"github.com/twopane/duodiff/internal/hashseq"
	"github.com/twopane/duodiff/internal/section"
	"github.com/twopane/duodiff/internal/texttoken"
)

// LineSource fetches the raw bytes (excluding EOL) of a source line on
// one side of the comparison.
type LineSource interface {
	LineBytes(sourceLine int) []byte
}

// Options controls candidate scoring and intra-line diffing.
type Options struct {
	texttoken.Options
	MatchPercentThreshold int // 0-100: minimum line-pair similarity to keep a candidate
	CharPrecision         bool
}

// candidate is a surviving (i, j) line pair, before mapping selection
// narrows it down to the winning set.
type candidate struct {
	i, j        int
	convergence int
}

// Pair runs the full candidate-scoring/mapping-selection/intra-line-diff
// pipeline for one replace pair of blocks, populating ChangedLines on
// both. The two blocks must already be linked via MatchBlock by the
// caller; Pair only fills ChangedLines.
func Pair(removeBlock, insertBlock *blockdiff.Block, srcA, srcB LineSource, opts Options) error {
	var candidates []candidate

	for i := 0; i < removeBlock.Len; i++ {
		if removeBlock.Covered(i) {
			continue
		}
		lineA := stripEOL(srcA.LineBytes(removeBlock.Off + i))
		for j := 0; j < insertBlock.Len; j++ {
			if insertBlock.Covered(j) {
				continue
			}
			lineB := stripEOL(srcB.LineBytes(insertBlock.Off + j))

			conv, ok, err := charConvergence(lineA, lineB, opts)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			candidates = append(candidates, candidate{i: i, j: j, convergence: conv})
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.convergence != cb.convergence {
			return ca.convergence > cb.convergence
		}
		if ca.i != cb.i {
			return ca.i < cb.i
		}
		return ca.j < cb.j
	})

	finalPairs, score := selectMapping(candidates, removeBlock.Len, insertBlock.Len)
	dbglog.MappingSelected(score, len(finalPairs))

	for _, c := range finalPairs {
		lineA := stripEOL(srcA.LineBytes(removeBlock.Off + c.i))
		lineB := stripEOL(srcB.LineBytes(insertBlock.Off + c.j))

		changesA, changesB, ok, err := diffLinePair(lineA, lineB, opts)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		removeBlock.ChangedLines = append(removeBlock.ChangedLines, blockdiff.ChangedLine{Line: c.i, Changes: changesA})
		insertBlock.ChangedLines = append(insertBlock.ChangedLines, blockdiff.ChangedLine{Line: c.j, Changes: changesB})
	}

	return nil
}

// selectMapping tries every possible starting position in the
// convergence-sorted candidate list,
// greedily claim pairs in order until one side's line budget is
// exhausted, then score the claimed set by summing convergences of
// only the subsequence whose j values strictly increase with i. The
// highest-scoring start wins; ties keep the earliest (the first strict
// improvement found, since later equal scores are never adopted).
func selectMapping(sorted []candidate, budgetA, budgetB int) (finalPairs []candidate, bestScore int) {
	bestScore = -1

	for start := 0; start < len(sorted); start++ {
		claimedI := make(map[int]bool)
		claimedJ := make(map[int]bool)
		var claimed []candidate

		for k := start; k < len(sorted); k++ {
			c := sorted[k]
			if claimedI[c.i] || claimedJ[c.j] {
				continue
			}
			claimedI[c.i] = true
			claimedJ[c.j] = true
			claimed = append(claimed, c)
			if len(claimedI) >= budgetA || len(claimedJ) >= budgetB {
				break
			}
		}

		sort.Slice(claimed, func(a, b int) bool { return claimed[a].i < claimed[b].i })

		score := 0
		maxJ := -1
		var monotone []candidate
		for _, c := range claimed {
			if c.j > maxJ {
				score += c.convergence
				maxJ = c.j
				monotone = append(monotone, c)
			}
		}

		if score > bestScore {
			bestScore = score
			finalPairs = monotone
		}
	}

	return finalPairs, bestScore
}

// charConvergence rejects early on the length-ratio gate, then
// returns the character-level convergence percentage.
func charConvergence(lineA, lineB []byte, opts Options) (convergence int, ok bool, err error) {
	a := texttoken.Chars(lineA, opts.Options)
	b := texttoken.Chars(lineB, opts.Options)

	if len(a) == 0 || len(b) == 0 {
		return 0, false, nil
	}

	minLen, maxLen := len(a), len(b)
	if maxLen < minLen {
		minLen, maxLen = maxLen, minLen
	}
	if minLen*100/maxLen < opts.MatchPercentThreshold {
		return 0, false, nil
	}

	segs, _, err := hashseq.Diff(texttoken.CharHashes(a), texttoken.CharHashes(b))
	if err != nil {
		return 0, false, err
	}

	matched := 0
	for _, s := range segs {
		if s.Kind == hashseq.Match {
			matched += s.Len
		}
	}

	conv := matched * 100 / maxLen
	if conv < opts.MatchPercentThreshold {
		return 0, false, nil
	}
	return conv, true, nil
}

// diffLinePair diffs one already-mapped (i,j) line pair at word
// granularity, returning the change spans for each side. ok is false
// when the
// pair should be discarded entirely (either the degenerate
// single-change abandon case in refinement, or the final line-wide
// match-ratio guard).
func diffLinePair(lineA, lineB []byte, opts Options) (changesA, changesB []section.Section, ok bool, err error) {
	wordsA := texttoken.Words(lineA, opts.Options)
	wordsB := texttoken.Words(lineB, opts.Options)

	segs, _, err := hashseq.Diff(texttoken.WordHashes(wordsA), texttoken.WordHashes(wordsB))
	if err != nil {
		return nil, nil, false, err
	}

	changeGroups := 0
	inGroup := false
	for _, s := range segs {
		if s.Kind == hashseq.Match {
			inGroup = false
			continue
		}
		if !inGroup {
			changeGroups++
			inGroup = true
		}
	}

	totalMatchLen := 0

	for k := 0; k < len(segs); k++ {
		s := segs[k]
		switch s.Kind {
		case hashseq.Match:
			for w := s.OffA; w < s.OffA+s.Len; w++ {
				totalMatchLen += wordsA[w].Len
			}
		case hashseq.Remove:
			if opts.CharPrecision && k+1 < len(segs) && segs[k+1].Kind == hashseq.Insert {
				ins := segs[k+1]
				mA, mB, matchLen, abandon, err := refineWordReplace(lineA, lineB, wordsA, wordsB, s, ins, opts, changeGroups == 1)
				if err != nil {
					return nil, nil, false, err
				}
				if abandon {
					return nil, nil, false, nil
				}
				changesA = append(changesA, mA...)
				changesB = append(changesB, mB...)
				totalMatchLen += matchLen
				k++ // consumed the paired Insert too
				continue
			}
			changesA = append(changesA, wordSpan(wordsA, s.OffA, s.Len))
		case hashseq.Insert:
			changesB = append(changesB, wordSpan(wordsB, s.OffB, s.Len))
		}
	}

	lineLen1, lineLen2 := len(texttoken.Chars(lineA, opts.Options)), len(texttoken.Chars(lineB, opts.Options))
	maxLen := lineLen1
	if lineLen2 > maxLen {
		maxLen = lineLen2
	}
	if maxLen == 0 {
		return nil, nil, false, nil
	}
	if totalMatchLen*100/maxLen < opts.MatchPercentThreshold {
		return nil, nil, false, nil
	}

	return changesA, changesB, true, nil
}

// wordSpan returns the column-range Section spanned by words[off:off+n].
func wordSpan(words []texttoken.Word, off, n int) section.Section {
	first := words[off]
	last := words[off+n-1]
	return section.Section{Offset: first.Pos, Length: last.Pos + last.Len - first.Pos}
}

// refineWordReplace narrows one adjacent Remove/Insert word-level pair
// to character precision. matchLen is the number of
// characters to credit toward the line's totalMatchLen; abandon signals
// the degenerate case where the whole line pair must be discarded.
func refineWordReplace(lineA, lineB []byte, wordsA, wordsB []texttoken.Word, rem, ins hashseq.Segment, opts Options, onlyChange bool) (changesA, changesB []section.Section, matchLen int, abandon bool, err error) {
	oldSpan := wordSpan(wordsA, rem.OffA, rem.Len)
	newSpan := wordSpan(wordsB, ins.OffB, ins.Len)

	oldBytes := lineA[oldSpan.Offset:oldSpan.End()]
	newBytes := lineB[newSpan.Offset:newSpan.End()]

	charsA := texttoken.Chars(oldBytes, opts.Options)
	charsB := texttoken.Chars(newBytes, opts.Options)

	if len(charsA) == 0 || len(charsB) == 0 {
		return []section.Section{oldSpan}, []section.Section{newSpan}, 0, false, nil
	}

	chSegs, _, err := hashseq.Diff(texttoken.CharHashes(charsA), texttoken.CharHashes(charsB))
	if err != nil {
		return nil, nil, 0, false, err
	}

	matched, matchSections := 0, 0
	for _, cs := range chSegs {
		if cs.Kind == hashseq.Match {
			matched += cs.Len
			matchSections++
		}
	}

	if matchSections > 0 && matched*100/len(charsA) >= opts.MatchPercentThreshold {
		for _, cs := range chSegs {
			switch cs.Kind {
			case hashseq.Remove:
				changesA = append(changesA, section.Section{
					Offset: oldSpan.Offset + charsA[cs.OffA].Pos,
					Length: cs.Len,
				})
			case hashseq.Insert:
				changesB = append(changesB, section.Section{
					Offset: newSpan.Offset + charsB[cs.OffB].Pos,
					Length: cs.Len,
				})
			}
		}
		return changesA, changesB, matched, false, nil
	}

	if matchSections > 0 {
		prefix := commonPrefixLen(charsA, charsB)
		suffix := commonSuffixLen(charsA, charsB, prefix)

		if prefix == 0 && suffix == 0 && onlyChange {
			return nil, nil, 0, true, nil
		}

		oldMidStart, oldMidEnd := charPos(charsA, prefix, len(charsA)-suffix, oldSpan)
		newMidStart, newMidEnd := charPos(charsB, prefix, len(charsB)-suffix, newSpan)

		if oldMidEnd > oldMidStart {
			changesA = append(changesA, section.Section{Offset: oldMidStart, Length: oldMidEnd - oldMidStart})
		}
		if newMidEnd > newMidStart {
			changesB = append(changesB, section.Section{Offset: newMidStart, Length: newMidEnd - newMidStart})
		}
		return changesA, changesB, prefix + suffix, false, nil
	}

	return []section.Section{oldSpan}, []section.Section{newSpan}, 0, false, nil
}

// charPos maps a [lo,hi) range of filtered Chars back to absolute
// column offsets within the line, given the Section the Chars were
// extracted from.
func charPos(chars []texttoken.Char, lo, hi int, span section.Section) (start, end int) {
	if lo >= hi {
		mid := span.Offset + chars[min(lo, len(chars)-1)].Pos
		return mid, mid
	}
	start = span.Offset + chars[lo].Pos
	end = span.Offset + chars[hi-1].Pos + 1
	return start, end
}

func commonPrefixLen(a, b []texttoken.Char) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i].Ch == b[i].Ch {
		i++
	}
	return i
}

func commonSuffixLen(a, b []texttoken.Char, prefix int) int {
	i, j := len(a)-1, len(b)-1
	n := 0
	for i >= prefix && j >= prefix && a[i].Ch == b[j].Ch {
		i--
		j--
		n++
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func stripEOL(line []byte) []byte {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
		if n > 0 && line[n-1] == '\r' {
			n--
		}
	}
	return line[:n]
}
