// Package dbglog is an environment-gated diagnostic sink for the
// compare pipeline. Rather than a generic printf pass-through, it
// exposes one function per event shape, so each call site reports its
// own domain fields instead of composing a format string.
package dbglog

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
)

var mu sync.Mutex

type field struct {
	key string
	val any
}

// Int, Bool, and Str build one key=value field for a log record.
func Int(key string, v int) field    { return field{key, v} }
func Bool(key string, v bool) field  { return field{key, v} }
func Str(key string, v string) field { return field{key, v} }

// Cancelled records that CompareViews aborted partway through, and why.
func Cancelled(reason string) {
	write("compare", "cancelled", Str("reason", reason))
}

// MoveSweep records one fixed-point iteration of the move detector:
// the iteration number and whether it changed any assignment.
func MoveSweep(iteration int, changed bool) {
	write("moves", "sweep", Int("iteration", iteration), Bool("changed", changed))
}

// MoveSweepCapped records that the move detector gave up after
// maxIterations without reaching a fixed point.
func MoveSweepCapped(maxIterations int) {
	write("moves", "sweep_capped", Int("max_iterations", maxIterations))
}

// MappingSelected records the block comparator's chosen line mapping
// for one replace pair: its convergence score and the number of
// mapped line pairs.
func MappingSelected(score, pairs int) {
	write("blockcompare", "mapping_selected", Int("score", score), Int("pairs", pairs))
}

// MarkersEmitted records the marker and alignment counts produced for
// one compare run.
func MarkersEmitted(lineMarkersA, lineMarkersB, alignmentPairs int) {
	write("markers", "emitted",
		Int("side_a", lineMarkersA),
		Int("side_b", lineMarkersB),
		Int("alignment_pairs", alignmentPairs),
	)
}

// write appends one logfmt-style record to the file named by the
// DUODIFF_LOG_FILE environment variable.
//
// If DUODIFF_LOG_FILE is unset/empty or the path can't be opened as a
// file, write is a no-op. Never affects control flow.
func write(component, event string, fields ...field) {
	path := os.Getenv("DUODIFF_LOG_FILE")
	if path == "" {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	var b bytes.Buffer
	fmt.Fprintf(&b, "component=%s event=%s", component, event)
	for _, fl := range fields {
		fmt.Fprintf(&b, " %s=%s", fl.key, formatVal(fl.val))
	}
	b.WriteByte('\n')
	_, _ = f.Write(b.Bytes())
}

// formatVal renders a field value as it appears after its key=, quoting
// strings that contain a space, '=', or '"' so a record stays one line
// of space-separated tokens.
func formatVal(v any) string {
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	if strings.ContainsAny(s, " =\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
