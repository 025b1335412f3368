// Package markers walks the enriched block-diff list and produces
// per-line marker assignments, per-span character highlights, and an
// ordered alignment table for the host UI.
package markers

import (
	"fmt"

	"github.com/twopane/duodiff/internal/blockdiff"
	"github.com/twopane/duodiff/internal/dbglog"
	"github.com/twopane/duodiff/internal/linehash"
	"github.com/twopane/duodiff/internal/section"
)

// Mask mirrors the host editor's marker mask enumeration.
type Mask int

const (
	None Mask = iota
	Added
	Removed
	AddedLocal
	RemovedLocal
	MovedLine
	MovedBegin
	MovedMid
	MovedEnd
	Changed
	ChangedLocal
)

func (m Mask) String() string {
	switch m {
	case None:
		return "None"
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	case AddedLocal:
		return "AddedLocal"
	case RemovedLocal:
		return "RemovedLocal"
	case MovedLine:
		return "MovedLine"
	case MovedBegin:
		return "MovedBegin"
	case MovedMid:
		return "MovedMid"
	case MovedEnd:
		return "MovedEnd"
	case Changed:
		return "Changed"
	case ChangedLocal:
		return "ChangedLocal"
	default:
		return fmt.Sprintf("Mask(%d)", int(m))
	}
}

// LineMarker assigns a Mask to one source line of one side.
type LineMarker struct {
	Line int
	Mask Mask
}

// CharHighlight marks a column-range span on one source line of one
// side that differs from its corresponding line on the other side.
type CharHighlight struct {
	Line   int
	Change section.Section
}

// AlignmentPair is one visually-locked row: a line number and mask on
// each side.
type AlignmentPair struct {
	MainLine int
	MainMask Mask
	SubLine  int
	SubMask  Mask
}

// Side collects the per-line output for one of the two compared views.
type Side struct {
	Markers    []LineMarker
	Highlights []CharHighlight
}

// NonUnique reports, by source line, whether a line's hash is shared
// with the opposite side.
type NonUnique struct {
	A map[int]bool
	B map[int]bool
}

// MaskAssignment resolves which mask family a Remove/Insert block
// paints. It is resolved once per run, before any line is marked,
// rather than branched on at every marker call site.
// DefaultMaskAssignment matches the common case where side A is the
// old file.
type MaskAssignment struct {
	RemoveMask      Mask
	RemoveLocalMask Mask
	InsertMask      Mask
	InsertLocalMask Mask
}

// DefaultMaskAssignment paints REMOVE as Removed and INSERT as Added,
// the assignment used when side A is the old file.
var DefaultMaskAssignment = MaskAssignment{
	RemoveMask:      Removed,
	RemoveLocalMask: RemovedLocal,
	InsertMask:      Added,
	InsertLocalMask: AddedLocal,
}

// SwappedMaskAssignment paints REMOVE as Added and INSERT as Removed,
// used when oldFileViewId names side B as the old file.
var SwappedMaskAssignment = MaskAssignment{
	RemoveMask:      Added,
	RemoveLocalMask: AddedLocal,
	InsertMask:      Removed,
	InsertLocalMask: RemovedLocal,
}

// Emit walks blocks in order and produces both sides' markers and
// highlights plus the alignment table. selA/selB, if non-nil, mark the
// run as a selection compare and cause a trailing anchor pair to be
// appended, pointing at the line just past each selection's end, so a
// host can anchor the view there once the compared ranges run out.
//
// poll, if non-nil, is consulted after each block; false means the run
// was cancelled and Emit returns ok=false with no usable output.
func Emit(blocks []blockdiff.Block, linesA, linesB []linehash.Line, nonUnique NonUnique, assign MaskAssignment, selA, selB *section.Section, poll func() bool) (sideA, sideB Side, alignment []AlignmentPair, ok bool) {
	for i := range blocks {
		emitLineMarkers(&blocks[i], linesA, linesB, nonUnique, assign, &sideA, &sideB)
		if poll != nil && !poll() {
			return Side{}, Side{}, nil, false
		}
	}

	alignment = buildAlignment(blocks, assign)
	if selA != nil && selB != nil {
		alignment = append(alignment, AlignmentPair{MainLine: selA.End(), MainMask: None, SubLine: selB.End(), SubMask: None})
	}

	dbglog.MarkersEmitted(len(sideA.Markers), len(sideB.Markers), len(alignment))
	return sideA, sideB, alignment, true
}

func emitLineMarkers(b *blockdiff.Block, linesA, linesB []linehash.Line, nonUnique NonUnique, assign MaskAssignment, sideA, sideB *Side) {
	switch b.Kind {
	case blockdiff.Match:
		return
	case blockdiff.Remove:
		changed := changedLineSet(b)
		for k := 0; k < b.Len; k++ {
			src := linesA[b.Off+k].SourceLine
			if mk, ok := moveMarkerFor(b, k); ok {
				sideA.Markers = append(sideA.Markers, LineMarker{Line: src, Mask: mk})
				continue
			}
			if cl, ok := changed[k]; ok {
				m := Changed
				if nonUnique.A[src] {
					m = ChangedLocal
				}
				sideA.Markers = append(sideA.Markers, LineMarker{Line: src, Mask: m})
				for _, span := range cl.Changes {
					sideA.Highlights = append(sideA.Highlights, CharHighlight{Line: src, Change: span})
				}
				continue
			}
			m := assign.RemoveMask
			if nonUnique.A[src] {
				m = assign.RemoveLocalMask
			}
			sideA.Markers = append(sideA.Markers, LineMarker{Line: src, Mask: m})
		}
	case blockdiff.Insert:
		changed := changedLineSet(b)
		for k := 0; k < b.Len; k++ {
			src := linesB[b.Off+k].SourceLine
			if mk, ok := moveMarkerFor(b, k); ok {
				sideB.Markers = append(sideB.Markers, LineMarker{Line: src, Mask: mk})
				continue
			}
			if cl, ok := changed[k]; ok {
				m := Changed
				if nonUnique.B[src] {
					m = ChangedLocal
				}
				sideB.Markers = append(sideB.Markers, LineMarker{Line: src, Mask: m})
				for _, span := range cl.Changes {
					sideB.Highlights = append(sideB.Highlights, CharHighlight{Line: src, Change: span})
				}
				continue
			}
			m := assign.InsertMask
			if nonUnique.B[src] {
				m = assign.InsertLocalMask
			}
			sideB.Markers = append(sideB.Markers, LineMarker{Line: src, Mask: m})
		}
	}
}

func changedLineSet(b *blockdiff.Block) map[int]blockdiff.ChangedLine {
	out := make(map[int]blockdiff.ChangedLine, len(b.ChangedLines))
	for _, cl := range b.ChangedLines {
		out[cl.Line] = cl
	}
	return out
}

// moveMarkerFor reports the move marker for local line k of b, if any.
func moveMarkerFor(b *blockdiff.Block, k int) (Mask, bool) {
	for _, m := range b.Moves {
		if !m.Contains(k) {
			continue
		}
		if m.Length == 1 {
			return MovedLine, true
		}
		switch k {
		case m.Offset:
			return MovedBegin, true
		case m.End() - 1:
			return MovedEnd, true
		default:
			return MovedMid, true
		}
	}
	return None, false
}

// buildAlignment walks blocks in order, maintaining a running
// (alignA, alignB) counter pair, and emits one AlignmentPair per row:
// an identity row for each matched line, a one-sided row for each
// unpaired remove/insert line, and for a replace pair, a changed row
// per mapped line interleaved with the uncorresponded runs around it.
func buildAlignment(blocks []blockdiff.Block, assign MaskAssignment) []AlignmentPair {
	var out []AlignmentPair
	alignA, alignB := 0, 0

	for i := range blocks {
		b := blocks[i]
		switch {
		case b.Kind == blockdiff.Match:
			for k := 0; k < b.Len; k++ {
				out = append(out, AlignmentPair{MainLine: alignA, SubLine: alignB})
				alignA++
				alignB++
			}
		case b.Kind == blockdiff.Remove && b.MatchBlock == blockdiff.NoMatch:
			for k := 0; k < b.Len; k++ {
				out = append(out, AlignmentPair{MainLine: alignA, MainMask: assign.RemoveMask, SubLine: alignB})
				alignA++
			}
		case b.Kind == blockdiff.Insert && b.MatchBlock == blockdiff.NoMatch:
			for k := 0; k < b.Len; k++ {
				out = append(out, AlignmentPair{MainLine: alignA, SubLine: alignB, SubMask: assign.InsertMask})
				alignB++
			}
		case b.Kind == blockdiff.Remove && b.MatchBlock != blockdiff.NoMatch:
			ins := blocks[b.MatchBlock]
			ri, rj := 0, 0
			for idx, cl := range b.ChangedLines {
				target := ins.ChangedLines[idx].Line
				for ri < cl.Line {
					out = append(out, AlignmentPair{MainLine: alignA, MainMask: assign.RemoveMask, SubLine: alignB})
					alignA++
					ri++
				}
				for rj < target {
					out = append(out, AlignmentPair{MainLine: alignA, SubLine: alignB, SubMask: assign.InsertMask})
					alignB++
					rj++
				}
				out = append(out, AlignmentPair{MainLine: alignA, MainMask: Changed, SubLine: alignB, SubMask: Changed})
				alignA++
				alignB++
				ri++
				rj++
			}
			for ri < b.Len {
				out = append(out, AlignmentPair{MainLine: alignA, MainMask: assign.RemoveMask, SubLine: alignB})
				alignA++
				ri++
			}
			for rj < ins.Len {
				out = append(out, AlignmentPair{MainLine: alignA, SubLine: alignB, SubMask: assign.InsertMask})
				alignB++
				rj++
			}
		case b.Kind == blockdiff.Insert && b.MatchBlock != blockdiff.NoMatch:
			continue // already emitted alongside its REMOVE pair
		}
	}

	return out
}
