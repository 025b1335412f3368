// Package linehash walks a document and produces its hashed line
// vector, honoring the ignore-case/ignore-spaces/ignore-empty-lines
// options and cooperative cancellation polling.
package linehash

import (
	"github.com/twopane/duodiff/internal/section"
	"github.com/twopane/duodiff/internal/texttoken"
)

// View is the minimal read access the line hasher needs into a
// document. It is a narrower view than the engine's full host
// collaborator (compare.HostView): just enough to walk lines.
type View interface {
	LineCount() int
	// LineBytes returns the raw bytes of line lineIdx, excluding its
	// line terminator.
	LineBytes(lineIdx int) []byte
}

// Options controls hashing, extending texttoken.Options with the one
// policy that belongs to the line-stream level rather than to
// tokenizing a single line.
type Options struct {
	texttoken.Options
	IgnoreEmptyLines bool
}

// Line is one hashed line of a document.
type Line struct {
	Hash       uint64
	SourceLine int
}

// cancelPollInterval is how often (in source lines walked) the hasher
// checks poll for a cancellation request.
const cancelPollInterval = 500

// Hash walks view, optionally restricted to sec, and returns the
// hashed line vector in buffer order.
//
// If sec is non-nil and overruns the document, its length is clamped
// rather than rejected (section.Section.Clamp); a section that starts
// past the end of the document yields no lines. Lines whose post-filter
// hash equals texttoken.Seed() are dropped when opts.IgnoreEmptyLines
// is set.
//
// poll, if non-nil, is consulted every 500 lines; if it returns false
// the run is considered cancelled, Hash returns (nil, false), and the
// caller must discard whatever partial Lines were accumulated so far
// (they are not returned).
func Hash(view View, sec *section.Section, opts Options, poll func() bool) (lines []Line, ok bool) {
	total := view.LineCount()

	start, end := 0, total
	if sec != nil {
		clamped := sec.Clamp(total)
		start, end = clamped.Offset, clamped.End()
		if start < 0 {
			start = 0
		}
		if end > total {
			end = total
		}
		if start > end {
			start = end
		}
	}

	out := make([]Line, 0, end-start)
	for i := start; i < end; i++ {
		if poll != nil && i != start && (i-start)%cancelPollInterval == 0 {
			if !poll() {
				return nil, false
			}
		}

		h := texttoken.LineHash(view.LineBytes(i), opts.Options)
		if opts.IgnoreEmptyLines && h == texttoken.Seed() {
			continue
		}
		out = append(out, Line{Hash: h, SourceLine: i})
	}

	return out, true
}
