// Package section defines the half-open (offset, length) range used
// throughout the engine to describe a span over some indexed sequence
// — lines within a buffer, or byte/word positions within a line.
package section

// Section is a half-open range [Offset, Offset+Length).
type Section struct {
	Offset int
	Length int
}

// End returns the first index past the section.
func (s Section) End() int { return s.Offset + s.Length }

// Contains reports whether i falls within [Offset, End()).
func (s Section) Contains(i int) bool {
	return i >= s.Offset && i < s.End()
}

// Overlaps reports whether s and other share any index.
func (s Section) Overlaps(other Section) bool {
	return s.Offset < other.End() && other.Offset < s.End()
}

// Clamp returns s truncated so it never runs past a sequence of the
// given total length. If s starts at or beyond total, the result has
// Length 0. Offset is never adjusted; only Length is clamped — this
// matches the engine's policy of clamping an overrunning selection
// rather than rejecting it.
func (s Section) Clamp(total int) Section {
	if s.Offset >= total {
		return Section{Offset: s.Offset, Length: 0}
	}
	if s.End() > total {
		return Section{Offset: s.Offset, Length: total - s.Offset}
	}
	return s
}
