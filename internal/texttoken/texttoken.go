// Package texttoken implements the engine's tokenizer: it classifies
// line bytes into SPACE/ALPHANUM/OTHER runs, segments a line into
// words or characters along those class boundaries, and computes the
// hashes the LCS kernel (internal/hashseq) diffs over.
package texttoken

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/graphemes"
)

// Class is a character classification used to find word boundaries.
type Class int

const (
	// Space is a space or tab byte.
	Space Class = iota
	// AlphaNum is a letter, digit, or underscore.
	AlphaNum
	// Other is everything else.
	Other
)

// Options controls tokenization and hashing. The zero value is the
// strictest comparison (case-sensitive, whitespace-sensitive).
type Options struct {
	IgnoreCase   bool
	IgnoreSpaces bool

	// Fold case-folds a byte slice, honoring whatever locale rules the
	// caller's collaborator applies (compare.HostView.ToLowerCase, in
	// the full engine; a plain bytes.ToLower in headless use). Only
	// consulted when IgnoreCase is set. A nil Fold, or a nil result from
	// it, falls back to bytes.ToLower.
	Fold func([]byte) []byte
}

func (o Options) fold(b []byte) []byte {
	if !o.IgnoreCase {
		return b
	}
	if o.Fold != nil {
		if out := o.Fold(b); out != nil {
			return out
		}
	}
	return bytes.ToLower(b)
}

// Word is a single word-class token within a line.
type Word struct {
	Pos  int // byte offset within the line
	Len  int // byte length
	Hash uint64
}

// Char is a single retained byte within a line.
type Char struct {
	Ch  byte // the (possibly case-folded) byte
	Pos int  // byte offset within the line
}

// seed is the fixed 64-bit starting value for all hashes computed by
// this package. It must match the existing fingerprint scheme bit for
// bit: changing it would invalidate cached comparisons built on it.
const seed uint64 = 0x84222325

// mix folds one retained byte into a running hash. FNV-like XOR
// followed by a shifted-add mixer.
func mix(h uint64, c byte) uint64 {
	h ^= uint64(c)
	h = h + (h << 1) + (h << 4) + (h << 5) + (h << 7) + (h << 8) + (h << 40)
	return h
}

// classifyLine returns a Class for every byte offset in line, derived
// from the grapheme cluster that byte belongs to. Classifying by
// cluster (rather than raw byte) keeps a multi-byte character's
// continuation bytes from being misclassified on their own and
// possibly splitting a word mid-rune when IgnoreSpaces or word
// segmentation later walks this slice.
func classifyLine(line []byte) []Class {
	classes := make([]Class, len(line))
	iter := graphemes.FromBytes(line)
	for iter.Next() {
		cluster := iter.Value()
		start := iter.Start()
		r, _ := utf8.DecodeRune(cluster)
		cls := classifyRune(r)
		for i := start; i < iter.End(); i++ {
			classes[i] = cls
		}
	}
	return classes
}

func classifyRune(r rune) Class {
	switch {
	case r == ' ' || r == '\t':
		return Space
	case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		return AlphaNum
	default:
		return Other
	}
}

// LineHash computes the 64-bit fingerprint of line under opts.
// Space/tab bytes are excluded when IgnoreSpaces is set; the whole
// line is case-folded first when IgnoreCase is set. line must not
// include its trailing EOL.
func LineHash(line []byte, opts Options) uint64 {
	line = opts.fold(line)
	h := seed
	for i := 0; i < len(line); i++ {
		c := line[i]
		if opts.IgnoreSpaces && (c == ' ' || c == '\t') {
			continue
		}
		h = mix(h, c)
	}
	return h
}

// Seed returns the fixed starting hash value; a LineHash result equal
// to Seed means the line contributed no retained characters (i.e. it
// is empty after filtering), which is the trigger for IgnoreEmptyLines
// in the line hasher.
func Seed() uint64 { return seed }

// Words segments line into word-class tokens along Space/AlphaNum/Other
// class boundaries. Space words are dropped from the result when
// IgnoreSpaces is set, but they still terminate the adjacent runs.
// line must not include its trailing EOL.
func Words(line []byte, opts Options) []Word {
	folded := opts.fold(line)
	classes := classifyLine(folded)

	var words []Word
	i := 0
	for i < len(folded) {
		cls := classes[i]
		j := i + 1
		for j < len(folded) && classes[j] == cls {
			j++
		}
		if !(opts.IgnoreSpaces && cls == Space) {
			h := seed
			for k := i; k < j; k++ {
				h = mix(h, folded[k])
			}
			words = append(words, Word{Pos: i, Len: j - i, Hash: h})
		}
		i = j
	}
	return words
}

// Chars segments line into individual retained-byte tokens, dropping
// space/tab bytes when IgnoreSpaces is set. line must not include its
// trailing EOL.
func Chars(line []byte, opts Options) []Char {
	folded := opts.fold(line)

	var chars []Char
	for i, c := range folded {
		if opts.IgnoreSpaces && (c == ' ' || c == '\t') {
			continue
		}
		chars = append(chars, Char{Ch: c, Pos: i})
	}
	return chars
}

// WordHashes returns the hash sequence of ws, for feeding into
// internal/hashseq.
func WordHashes(ws []Word) []uint64 {
	out := make([]uint64, len(ws))
	for i, w := range ws {
		out[i] = w.Hash
	}
	return out
}

// CharHashes returns the hash sequence of cs, for feeding into
// internal/hashseq. Each byte hashes to its own value (itself, widened)
// since character-granularity equality is exact-byte equality once
// case-folding/space-filtering have already been applied by Chars.
func CharHashes(cs []Char) []uint64 {
	out := make([]uint64, len(cs))
	for i, c := range cs {
		out[i] = uint64(c.Ch)
	}
	return out
}
