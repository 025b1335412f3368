// Package hashseq implements the engine's LCS kernel: a Myers-style
// longest-common-subsequence diff over sequences of 64-bit hashes.
//
// The kernel knows nothing about lines, words, or characters. Every
// caller (line hasher, tokenizer-driven word/char comparators) reduces
// its elements to a hash up front; equality for the kernel's purposes
// is hash equality only.
package hashseq

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Kind is the classification of a Segment.
type Kind int

const (
	// Match is a run of elements present, in order, on both sides.
	Match Kind = iota
	// Remove is a run of elements present only on side A.
	Remove
	// Insert is a run of elements present only on side B.
	Insert
)

func (k Kind) String() string {
	switch k {
	case Match:
		return "Match"
	case Remove:
		return "Remove"
	case Insert:
		return "Insert"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Segment is one contiguous run of the diff between two hash sequences.
//
// For Match, OffA and OffB are both meaningful and Len elements are
// equal pairwise starting at those offsets. For Remove, only OffA is
// meaningful (an offset into side A); for Insert, only OffB (an offset
// into side B).
type Segment struct {
	Kind Kind
	OffA int
	OffB int
	Len  int
}

// maxDistinctHashes bounds how many distinct hash values a single Diff
// call will encode as runes. diffmatchpatch encodes each element as one
// rune; beyond this many distinct values we'd either overflow past the
// valid encode range or degrade into an unreasonably large scratch
// allocation, so we fail fast with a wrapped error instead.
const maxDistinctHashes = 1 << 20

// privateUseBase is the first code point used to encode hash values as
// runes. Starting above the basic multilingual plane's private-use
// area avoids colliding with diffmatchpatch's own sentinel handling of
// ASCII control characters in DiffCleanupSemantic-adjacent codepaths.
const privateUseBase = 0x10000

// Diff computes the LCS-based edit script from hash sequence a to hash
// sequence b.
//
// It returns the ordered Segments covering both inputs and a swapped
// flag for diagnostic purposes only: internally, Diff always runs the
// underlying Myers search with the shorter sequence as the primary
// operand (the diagonal band search in Myers' algorithm is bounded by
// the edit distance, and presenting the shorter sequence first keeps
// the band centered), then normalizes the resulting Segments back into
// true A/B coordinates before returning. Callers never need to rebind
// sides themselves; swapped simply reports whether that normalization
// happened, so tests can assert on the optimization having kicked in.
func Diff(a, b []uint64) (segments []Segment, swapped bool, err error) {
	x, y := a, b
	swapped = false
	if len(a) > len(b) {
		x, y = b, a
		swapped = true
	}

	encode := make(map[uint64]rune, len(x)+len(y))
	next := rune(privateUseBase)
	runesFor := func(seq []uint64) ([]rune, error) {
		out := make([]rune, len(seq))
		for i, h := range seq {
			r, ok := encode[h]
			if !ok {
				if len(encode) >= maxDistinctHashes {
					return nil, fmt.Errorf("hashseq: too many distinct hashes (>%d) to encode", maxDistinctHashes)
				}
				r = next
				encode[h] = r
				next++
			}
			out[i] = r
		}
		return out, nil
	}

	runesX, err := runesFor(x)
	if err != nil {
		return nil, false, err
	}
	runesY, err := runesFor(y)
	if err != nil {
		return nil, false, err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(runesX, runesY, false)

	var raw []Segment
	offX, offY := 0, 0
	for _, d := range diffs {
		n := len([]rune(d.Text))
		if n == 0 {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			raw = append(raw, Segment{Kind: Match, OffA: offX, OffB: offY, Len: n})
			offX += n
			offY += n
		case diffmatchpatch.DiffDelete:
			raw = append(raw, Segment{Kind: Remove, OffA: offX, Len: n})
			offX += n
		case diffmatchpatch.DiffInsert:
			raw = append(raw, Segment{Kind: Insert, OffB: offY, Len: n})
			offY += n
		}
	}

	if !swapped {
		return raw, false, nil
	}

	// x was b, y was a: flip Remove/Insert and swap the offset fields so
	// the Segments returned describe true a->b, not x->y.
	out := make([]Segment, len(raw))
	for i, s := range raw {
		switch s.Kind {
		case Match:
			out[i] = Segment{Kind: Match, OffA: s.OffB, OffB: s.OffA, Len: s.Len}
		case Remove:
			out[i] = Segment{Kind: Insert, OffB: s.OffA, Len: s.Len}
		case Insert:
			out[i] = Segment{Kind: Remove, OffA: s.OffB, Len: s.Len}
		}
	}
	return out, true, nil
}
