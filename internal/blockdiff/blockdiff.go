// Package blockdiff holds the engine's enriched block-level diff
// model: the line-level LCS output (internal/hashseq.Segment)
// widened with replace-pair linkage, detected moves, and per-line
// intra-line changes.
package blockdiff

import (
	"fmt"

	"github.com/twopane/duodiff/internal/section"
)

// Kind classifies a Block exactly like hashseq.Kind classifies a
// Segment; it is redeclared here rather than reused so this package
// stays decoupled from the LCS kernel's own vocabulary.
type Kind int

const (
	Match Kind = iota
	Remove
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

// ChangedLine records the intra-line changes found for one line of a
// replace-pair block, relative to its corresponding line on the
// opposite block.
type ChangedLine struct {
	Line    int // local line index within the block
	Changes []section.Section
}

// Block is one line-level segment of the comparison, enriched with
// replace-pair linkage and move detection.
//
// MatchBlock is the index of the paired opposite-kind Block within the
// enclosing []Block when this Remove/Insert was recognized as a
// replace; -1 otherwise. It is modeled as an index rather than a
// pointer so the enclosing slice can be the sole owner: no cycle, no
// separate lifetime to manage.
type Block struct {
	Kind       Kind
	Off        int
	Len        int
	MatchBlock int

	Moves        []section.Section
	ChangedLines []ChangedLine
}

// NoMatch is the MatchBlock sentinel meaning "not part of a replace pair".
const NoMatch = -1

// Covered reports whether localLine (an offset within the block) lies
// inside any of the block's Moves sections.
func (b Block) Covered(localLine int) bool {
	for _, m := range b.Moves {
		if m.Contains(localLine) {
			return true
		}
	}
	return false
}

// Validate checks the cross-block invariants the rest of the pipeline
// relies on: MatchBlock symmetry and kind-compatibility, move sections
// fitting within their block, and ChangedLines being strictly
// increasing and equal length between paired blocks.
func Validate(blocks []Block) error {
	for i, b := range blocks {
		for _, m := range b.Moves {
			if m.Offset < 0 || m.End() > b.Len {
				return fmt.Errorf("block[%d]: move section %v escapes block bounds [0,%d)", i, m, b.Len)
			}
		}

		last := -1
		for _, cl := range b.ChangedLines {
			if cl.Line <= last {
				return fmt.Errorf("block[%d]: changedLines not strictly increasing at line %d", i, cl.Line)
			}
			last = cl.Line
			for ci := 1; ci < len(cl.Changes); ci++ {
				if cl.Changes[ci].Offset < cl.Changes[ci-1].End() {
					return fmt.Errorf("block[%d] line %d: changes overlap or are out of order", i, cl.Line)
				}
			}
		}

		if b.MatchBlock == NoMatch {
			continue
		}
		if b.MatchBlock < 0 || b.MatchBlock >= len(blocks) {
			return fmt.Errorf("block[%d]: matchBlock index %d out of range", i, b.MatchBlock)
		}
		other := blocks[b.MatchBlock]
		if other.MatchBlock != i {
			return fmt.Errorf("block[%d]: matchBlock %d is not symmetric", i, b.MatchBlock)
		}
		if b.Kind == other.Kind {
			return fmt.Errorf("block[%d]: matchBlock %d has the same kind", i, b.MatchBlock)
		}
		if len(b.ChangedLines) != len(other.ChangedLines) {
			return fmt.Errorf("block[%d]/block[%d]: changedLines length mismatch (%d vs %d)", i, b.MatchBlock, len(b.ChangedLines), len(other.ChangedLines))
		}
	}
	return nil
}
