// Package compare is the engine's public entry point: it wires the
// LCS kernel, tokenizer, line hasher, move detector, block comparator,
// and marker/alignment emitter into the single CompareViews operation.
package compare

import (
	"fmt"

	"github.com/twopane/duodiff/internal/blockcompare"
	"github.com/twopane/duodiff/internal/blockdiff"
	"github.com/twopane/duodiff/internal/dbglog"
	"github.com/twopane/duodiff/internal/hashseq"
	"github.com/twopane/duodiff/internal/linehash"
	"github.com/twopane/duodiff/internal/markers"
	"github.com/twopane/duodiff/internal/moves"
	"github.com/twopane/duodiff/internal/section"
	"github.com/twopane/duodiff/internal/texttoken"
)

// ViewID names one of the two compared views.
type ViewID int

const (
	MainView ViewID = iota
	SubView
)

// HostView is the host-editor collaborator the engine consumes,
// narrowed to the read-only text access the engine actually needs.
// Marker painting is not modeled here because the engine never
// mutates the buffer or paints markers itself; it only reports them
// in the returned Outcome, so a caller applies them through whatever
// host-specific facility it has.
type HostView interface {
	LineCount() int
	// LineBytes returns the raw bytes of line lineIdx, excluding its
	// line terminator.
	LineBytes(lineIdx int) []byte
	// ToLowerCase case-folds b honoring the host's locale rules. A nil
	// return value falls back to bytes.ToLower.
	ToLowerCase(b []byte) []byte
}

// Progress is the progress collaborator the engine consumes. A nil
// Progress is treated as an always-continue no-op.
type Progress interface {
	SetMaxCount(n int)
	// Advance reports progress and returns false if the user
	// requested cancellation.
	Advance() bool
	NextPhase() bool
}

// Options controls how CompareViews runs.
type Options struct {
	FindUniqueMode   bool
	DetectMoves      bool
	IgnoreCase       bool
	IgnoreSpaces     bool
	IgnoreEmptyLines bool
	CharPrecision    bool

	// MatchPercentThreshold is 0-100: the minimum line-pair similarity
	// the block comparator requires before mapping a replace pair
	// line-for-line instead of leaving it a plain remove/insert.
	MatchPercentThreshold int

	SelectionCompare bool
	SelectionA       section.Section
	SelectionB       section.Section

	// OldFileViewID governs which side paints the ADDED vs REMOVED
	// mask family: the view named here is treated as the "old" side,
	// so its changes paint as removals and the other view's as
	// insertions, regardless of which HostView was passed as a or b.
	OldFileViewID ViewID
}

// Result is the coarse-grained outcome of a compare run.
type Result int

const (
	ResultMatch Result = iota
	ResultMismatch
	ResultCancelled
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultMatch:
		return "MATCH"
	case ResultMismatch:
		return "MISMATCH"
	case ResultCancelled:
		return "CANCELLED"
	case ResultError:
		return "ERROR"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Outcome is everything CompareViews produces.
type Outcome struct {
	Result    Result
	SideA     markers.Side
	SideB     markers.Side
	Alignment []markers.AlignmentPair
}

// CompareViews runs the full line-hash/LCS/move-detect/block-compare
// pipeline against the two views, per opts. It recovers from any
// panic internally so a misbehaving collaborator or an internal
// invariant violation never crashes the caller, and always returns a
// usable Outcome plus a descriptive error when Result is ResultError.
func CompareViews(a, b HostView, opts Options, progress Progress) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			dbglog.Cancelled(fmt.Sprintf("recovered panic: %v", r))
			outcome = Outcome{Result: ResultError}
			err = fmt.Errorf("compare: %v: %w", r, ErrLogicViolation)
		}
	}()

	if progress == nil {
		progress = noopProgress{}
	}
	poll := func() bool { return progress.Advance() }

	if opts.FindUniqueMode {
		return compareFindUnique(a, b, opts, poll)
	}

	topts := tokenizerOptions(a, opts)
	lopts := linehash.Options{Options: topts, IgnoreEmptyLines: opts.IgnoreEmptyLines}

	var selA, selB *section.Section
	if opts.SelectionCompare {
		selA, selB = &opts.SelectionA, &opts.SelectionB
	}

	progress.SetMaxCount(4)

	linesA, ok := linehash.Hash(hostViewAdapter{a}, selA, lopts, poll)
	if !ok {
		return Outcome{Result: ResultCancelled}, ErrCancelled
	}
	linesB, ok := linehash.Hash(hostViewAdapter{b}, selB, lopts, poll)
	if !ok {
		return Outcome{Result: ResultCancelled}, ErrCancelled
	}
	progress.NextPhase()

	segs, _, err := hashseq.Diff(lineHashes(linesA), lineHashes(linesB))
	if err != nil {
		return Outcome{Result: ResultError}, fmt.Errorf("compare: line-level LCS: %v: %w", err, ErrResourceExhausted)
	}

	blocks := buildBlocks(segs)
	nonUnique := findNonUniqueLines(linesA, linesB)

	if opts.DetectMoves {
		if ok := moves.Detect(blocks, linesA, linesB, poll); !ok {
			return Outcome{Result: ResultCancelled}, ErrCancelled
		}
	}
	progress.NextPhase()

	bopts := blockcompare.Options{Options: topts, MatchPercentThreshold: opts.MatchPercentThreshold, CharPrecision: opts.CharPrecision}
	for i := range blocks {
		if blocks[i].Kind != blockdiff.Remove || blocks[i].MatchBlock == blockdiff.NoMatch {
			continue
		}
		rem, ins := &blocks[i], &blocks[blocks[i].MatchBlock]
		if err := blockcompare.Pair(rem, ins, hostViewAdapter{a}, hostViewAdapter{b}, bopts); err != nil {
			return Outcome{Result: ResultError}, fmt.Errorf("compare: block comparator: %v: %w", err, ErrResourceExhausted)
		}
		if !poll() {
			return Outcome{Result: ResultCancelled}, ErrCancelled
		}
	}
	progress.NextPhase()

	if err := blockdiff.Validate(blocks); err != nil {
		return Outcome{Result: ResultError}, fmt.Errorf("compare: %v: %w", err, ErrLogicViolation)
	}

	assign := markers.DefaultMaskAssignment
	if opts.OldFileViewID == SubView {
		assign = markers.SwappedMaskAssignment
	}

	sideA, sideB, alignment, ok := markers.Emit(blocks, linesA, linesB, nonUnique, assign, selA, selB, poll)
	if !ok {
		return Outcome{Result: ResultCancelled}, ErrCancelled
	}

	result := ResultMatch
	if len(sideA.Markers) > 0 || len(sideB.Markers) > 0 {
		result = ResultMismatch
	}

	return Outcome{Result: result, SideA: sideA, SideB: sideB, Alignment: alignment}, nil
}

func tokenizerOptions(a HostView, opts Options) texttoken.Options {
	return texttoken.Options{
		IgnoreCase:   opts.IgnoreCase,
		IgnoreSpaces: opts.IgnoreSpaces,
		Fold:         a.ToLowerCase,
	}
}

func lineHashes(lines []linehash.Line) []uint64 {
	out := make([]uint64, len(lines))
	for i, l := range lines {
		out[i] = l.Hash
	}
	return out
}

// buildBlocks widens raw hashseq.Segments into blockdiff.Blocks,
// linking every Remove block immediately followed by an Insert block
// into a replace pair.
func buildBlocks(segs []hashseq.Segment) []blockdiff.Block {
	blocks := make([]blockdiff.Block, len(segs))
	for i, s := range segs {
		switch s.Kind {
		case hashseq.Match:
			blocks[i] = blockdiff.Block{Kind: blockdiff.Match, Off: s.OffA, Len: s.Len, MatchBlock: blockdiff.NoMatch}
		case hashseq.Remove:
			blocks[i] = blockdiff.Block{Kind: blockdiff.Remove, Off: s.OffA, Len: s.Len, MatchBlock: blockdiff.NoMatch}
		case hashseq.Insert:
			blocks[i] = blockdiff.Block{Kind: blockdiff.Insert, Off: s.OffB, Len: s.Len, MatchBlock: blockdiff.NoMatch}
		}
	}
	for i := 0; i+1 < len(blocks); i++ {
		if blocks[i].Kind == blockdiff.Remove && blocks[i+1].Kind == blockdiff.Insert {
			blocks[i].MatchBlock = i + 1
			blocks[i+1].MatchBlock = i
		}
	}
	return blocks
}

// findNonUniqueLines records, for every line on either side whose
// hash also occurs on the other side, that it should get the "local"
// variant of its marker rather than the plain one.
func findNonUniqueLines(linesA, linesB []linehash.Line) markers.NonUnique {
	byHash := make(map[uint64][]int, len(linesA))
	for _, l := range linesA {
		byHash[l.Hash] = append(byHash[l.Hash], l.SourceLine)
	}

	nu := markers.NonUnique{A: map[int]bool{}, B: map[int]bool{}}
	for _, l := range linesB {
		srcs, ok := byHash[l.Hash]
		if !ok {
			continue
		}
		nu.B[l.SourceLine] = true
		for _, src := range srcs {
			nu.A[src] = true
		}
	}
	return nu
}

type noopProgress struct{}

func (noopProgress) SetMaxCount(int) {}
func (noopProgress) Advance() bool   { return true }
func (noopProgress) NextPhase() bool { return true }

// hostViewAdapter adapts HostView to the narrower View interfaces
// internal/linehash and internal/blockcompare each declare for
// themselves: every internal package depends only on what it actually
// calls, never on the full HostView.
type hostViewAdapter struct{ HostView }
