// Command duodiff is a thin CLI shell around the compare engine: it
// reads two files into memory, runs compare.CompareViews, and prints
// the result as a colorized unified-diff-style rendering (or, with
// -align, the raw alignment table).
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-runewidth"

	compare "github.com/twopane/duodiff"
	"github.com/twopane/duodiff/internal/markers"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("duodiff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	ignoreCase := fs.Bool("ignore-case", false, "ignore letter case when comparing lines")
	ignoreSpaces := fs.Bool("ignore-spaces", false, "ignore spaces and tabs when comparing lines")
	ignoreEmptyLines := fs.Bool("ignore-empty-lines", false, "drop blank lines from the comparison")
	detectMoves := fs.Bool("detect-moves", false, "recognize relocated blocks as moves instead of remove+insert")
	charPrecision := fs.Bool("char-precision", false, "narrow changed spans to the exact changed characters")
	matchPercent := fs.Int("match-percent", 0, "minimum percent similarity for a replace pair to be mapped line-for-line")
	findUnique := fs.Bool("find-unique", false, "only mark lines whose content has no match anywhere on the other side")
	align := fs.Bool("align", false, "print the alignment table instead of the unified-diff rendering")
	noColor := fs.Bool("no-color", false, "disable ANSI color in the rendering")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintf(stderr, "usage: duodiff [flags] fileA fileB\n")
		fs.PrintDefaults()
		return 2
	}
	pathA, pathB := fs.Arg(0), fs.Arg(1)

	viewA, err := loadView(pathA)
	if err != nil {
		fmt.Fprintf(stderr, "duodiff: %v\n", err)
		return 2
	}
	viewB, err := loadView(pathB)
	if err != nil {
		fmt.Fprintf(stderr, "duodiff: %v\n", err)
		return 2
	}

	opts := compare.Options{
		FindUniqueMode:        *findUnique,
		DetectMoves:           *detectMoves,
		IgnoreCase:            *ignoreCase,
		IgnoreSpaces:          *ignoreSpaces,
		IgnoreEmptyLines:      *ignoreEmptyLines,
		CharPrecision:         *charPrecision,
		MatchPercentThreshold: *matchPercent,
	}

	progress := &cliProgress{}
	defer progress.Close()

	outcome, err := compare.CompareViews(viewA, viewB, opts, progress)
	switch outcome.Result {
	case compare.ResultError, compare.ResultCancelled:
		fmt.Fprintf(stderr, "duodiff: %v\n", err)
		return 2
	}

	w := stdout
	if *align {
		printAlignment(w, outcome.Alignment, !*noColor)
	} else {
		printUnified(w, viewA, viewB, outcome, pathA, pathB, !*noColor)
	}

	if outcome.Result == compare.ResultMismatch {
		return 1
	}
	return 0
}

// cliProgress is the Progress collaborator the CLI hands the engine.
// It never cancels; it exists so CompareViews always has a concrete
// collaborator to poll rather than relying on the nil/no-op fallback a
// real host would own and tear down itself. Close is a no-op here
// since there is no UI element to tear down, but every exit path
// still calls it for symmetry with a real host.
type cliProgress struct{}

func (*cliProgress) SetMaxCount(int) {}
func (*cliProgress) Advance() bool   { return true }
func (*cliProgress) NextPhase() bool { return true }
func (*cliProgress) Close()          {}

// fileView implements compare.HostView directly over an in-memory
// slice of lines read from disk.
type fileView struct {
	lines [][]byte
}

func loadView(path string) (fileView, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileView{}, err
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return fileView{}, fmt.Errorf("%s: %w", path, err)
	}
	return fileView{lines: lines}, nil
}

func (v fileView) LineCount() int              { return len(v.lines) }
func (v fileView) LineBytes(i int) []byte      { return v.lines[i] }
func (v fileView) ToLowerCase(b []byte) []byte { return bytes.ToLower(b) }

// printUnified renders outcome as unified-diff-style text: side A's
// removed/changed lines prefixed "-", side B's added/changed lines
// prefixed "+", matched lines prefixed " ". Alignment row indices
// are treated as direct line indices into viewA/viewB, which holds
// exactly when neither side drops lines (no -ignore-empty-lines, no
// selection compare) — the CLI never selection-compares, so the only
// skew case is -ignore-empty-lines, where the rendering falls back to
// printing the dropped side's neighboring context slightly coarser
// than an editor with real buffer offsets would.
func printUnified(w io.Writer, viewA, viewB fileView, outcome compare.Outcome, pathA, pathB string, color bool) {
	const (
		reset = "\x1b[0m"
		red   = "\x1b[31m"
		green = "\x1b[32m"
		cyan  = "\x1b[1;36m"
	)
	colorize := func(s, code string) string {
		if !color {
			return s
		}
		return code + s + reset
	}

	fmt.Fprintln(w, colorize("--- "+pathA, cyan))
	fmt.Fprintln(w, colorize("+++ "+pathB, cyan))

	maskA := make(map[int]markers.Mask, len(outcome.SideA.Markers))
	for _, m := range outcome.SideA.Markers {
		maskA[m.Line] = m.Mask
	}
	maskB := make(map[int]markers.Mask, len(outcome.SideB.Markers))
	for _, m := range outcome.SideB.Markers {
		maskB[m.Line] = m.Mask
	}

	// -find-unique never builds a block structure (it bypasses the LCS
	// kernel entirely), so it has no Alignment to interleave by; fall
	// back to listing each side's marked lines on their own,
	// unmatched-against-each-other.
	if len(outcome.Alignment) == 0 {
		for _, m := range outcome.SideA.Markers {
			tag, code := tagFor(m.Mask, '-', red)
			fmt.Fprintln(w, colorize(tag+string(viewA.LineBytes(m.Line)), code))
		}
		for _, m := range outcome.SideB.Markers {
			tag, code := tagFor(m.Mask, '+', green)
			fmt.Fprintln(w, colorize(tag+string(viewB.LineBytes(m.Line)), code))
		}
		return
	}

	for _, pair := range outcome.Alignment {
		if pair.MainMask != markers.None && pair.MainLine < viewA.LineCount() {
			tag, code := tagFor(maskA[pair.MainLine], '-', red)
			fmt.Fprintln(w, colorize(tag+string(viewA.LineBytes(pair.MainLine)), code))
		}
		if pair.SubMask != markers.None && pair.SubLine < viewB.LineCount() {
			tag, code := tagFor(maskB[pair.SubLine], '+', green)
			fmt.Fprintln(w, colorize(tag+string(viewB.LineBytes(pair.SubLine)), code))
		}
		if pair.MainMask == markers.None && pair.SubMask == markers.None && pair.MainLine < viewA.LineCount() {
			fmt.Fprintln(w, " "+string(viewA.LineBytes(pair.MainLine)))
		}
	}
}

func tagFor(mask markers.Mask, fallbackTag byte, fallbackCode string) (string, string) {
	switch mask {
	case markers.MovedLine, markers.MovedBegin, markers.MovedMid, markers.MovedEnd:
		return "~", "\x1b[35m"
	default:
		return string(fallbackTag), fallbackCode
	}
}

// printAlignment dumps the raw alignment table: one row per
// markers.AlignmentPair, with a gutter wide enough for the largest
// line number on either side. go-runewidth measures the gutter's
// display width so it lines up even if a terminal renders digits at
// non-1-cell width.
func printAlignment(w io.Writer, alignment []markers.AlignmentPair, color bool) {
	gutter := 1
	for _, p := range alignment {
		if n := runewidth.StringWidth(fmt.Sprintf("%d", p.MainLine)); n > gutter {
			gutter = n
		}
		if n := runewidth.StringWidth(fmt.Sprintf("%d", p.SubLine)); n > gutter {
			gutter = n
		}
	}
	for _, p := range alignment {
		left := runewidth.FillRight(fmt.Sprintf("%d", p.MainLine), gutter)
		right := runewidth.FillRight(fmt.Sprintf("%d", p.SubLine), gutter)
		fmt.Fprintf(w, "%s %-12s | %s %-12s\n", left, maskName(p.MainMask), right, maskName(p.SubMask))
	}
}

func maskName(m markers.Mask) string {
	switch m {
	case markers.None:
		return "-"
	case markers.Added:
		return "added"
	case markers.Removed:
		return "removed"
	case markers.AddedLocal:
		return "added*"
	case markers.RemovedLocal:
		return "removed*"
	case markers.MovedLine:
		return "moved"
	case markers.MovedBegin:
		return "moved-begin"
	case markers.MovedMid:
		return "moved-mid"
	case markers.MovedEnd:
		return "moved-end"
	case markers.Changed:
		return "changed"
	case markers.ChangedLocal:
		return "changed*"
	default:
		return "?"
	}
}
