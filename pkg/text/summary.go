// Package text implements the immutable text slices shared by loom
// insertions, together with the (byte, char, line, rightmost-column)
// summary that the sum tree of fragments accumulates. Grapheme-cluster
// and display-column handling is built on uax29 and golang.org/x/text.
package text

import (
	"github.com/clipperhouse/uax29/graphemes"
	"golang.org/x/text/width"
)

// Point is a (row, column) position, row and column both 0-based. Column
// is counted in characters from the start of the row, not in bytes:
// Buffer.ToPoint counts grapheme clusters across whole fragments and
// runes within a partially covered fragment, and Summary.Rightmost's
// column is a display width.
type Point struct {
	Row    int
	Column int
}

// Less reports whether p sorts strictly before other in row-major order.
func (p Point) Less(other Point) bool {
	if p.Row != other.Row {
		return p.Row < other.Row
	}
	return p.Column < other.Column
}

// Summary is the monoidal summary cached at every sum tree node: total
// byte/char/line counts plus the rightmost column reached anywhere in
// the summarized span, all computed over the span's own text only
// (visibility restriction, when it applies, is the caller's job — see
// pkg/buffer's FragmentSummary, which zeroes this out for invisible
// fragments).
type Summary struct {
	Bytes int
	Chars int // grapheme clusters, not raw runes
	Lines int // count of '\n' bytes

	// FirstLineChars/LastLineChars track partial-row char counts so two
	// summaries can be combined without re-scanning: when two spans are
	// concatenated, the first span's last row continues into the second
	// span's first row.
	FirstLineChars int
	LastLineChars  int

	// Rightmost is the furthest-right column reached by any row fully
	// contained in or ending within the summarized span. When a caller's
	// range splits a row, the tie always goes to the wider column.
	Rightmost Point
}

// Add combines two summaries as if their underlying text were
// concatenated: s followed by other.
func (s Summary) Add(other Summary) Summary {
	if s.Bytes == 0 {
		return other
	}
	if other.Bytes == 0 {
		return s
	}

	out := Summary{
		Bytes: s.Bytes + other.Bytes,
		Chars: s.Chars + other.Chars,
		Lines: s.Lines + other.Lines,
	}
	out.FirstLineChars = s.FirstLineChars
	if s.Lines == 0 {
		out.FirstLineChars = s.FirstLineChars + other.FirstLineChars
	}
	out.LastLineChars = other.LastLineChars
	if other.Lines == 0 {
		out.LastLineChars = s.LastLineChars + other.LastLineChars
	}

	joinedLastRowChars := s.LastLineChars + other.FirstLineChars
	joinedRow := s.Rightmost.Row
	rightmost := s.Rightmost
	if other.Lines == 0 {
		// other has no newline: its whole span continues s's last row.
		candidate := Point{Row: joinedRow, Column: s.LastLineChars + other.LastLineChars}
		if rightmost.Less(candidate) {
			rightmost = candidate
		}
	} else {
		candidate := Point{Row: joinedRow, Column: joinedLastRowChars}
		if rightmost.Less(candidate) {
			rightmost = candidate
		}
		shifted := Point{Row: joinedRow + other.Rightmost.Row, Column: other.Rightmost.Column}
		if rightmost.Less(shifted) {
			rightmost = shifted
		}
	}
	out.Rightmost = rightmost
	return out
}

// NewSummary computes the summary of a UTF-8 byte slice from scratch.
// Character counts are grapheme-cluster counts (via uax29), so column
// math lines up with what a terminal or editor actually renders as one
// "character".
func NewSummary(b []byte) Summary {
	var s Summary
	s.Bytes = len(b)

	row, col := 0, 0
	seg := graphemes.NewSegmenter(b)
	for seg.Next() {
		cluster := seg.Bytes()
		s.Chars++
		if row == 0 {
			s.FirstLineChars++
		}
		col += clusterWidth(cluster)
		if containsNewline(cluster) {
			s.Lines++
			if s.Rightmost.Less(Point{Row: row, Column: col}) {
				s.Rightmost = Point{Row: row, Column: col}
			}
			row++
			col = 0
		}
	}
	s.LastLineChars = colCharsOnLastRow(b)
	if row == 0 {
		s.FirstLineChars = s.Chars
	}
	if s.Rightmost.Less(Point{Row: row, Column: col}) {
		s.Rightmost = Point{Row: row, Column: col}
	}
	return s
}

func containsNewline(cluster []byte) bool {
	for _, c := range cluster {
		if c == '\n' {
			return true
		}
	}
	return false
}

// clusterWidth approximates display width using golang.org/x/text/width:
// two columns for each wide or fullwidth rune in the cluster and one for
// every other rune, combining marks included. It counts per rune, not
// per byte, and needs no full terminal-width table.
func clusterWidth(cluster []byte) int {
	n := 0
	for len(cluster) > 0 {
		r := rune(cluster[0])
		size := 1
		if cluster[0] >= 0x80 {
			// decode as UTF-8 rune boundary conservatively
			for size < len(cluster) && (cluster[size]&0xC0) == 0x80 {
				size++
			}
			r = decodeFirstRune(cluster[:size])
		}
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
		cluster = cluster[size:]
	}
	return n
}

func decodeFirstRune(b []byte) rune {
	r, _ := decodeRune(b)
	return r
}

// decodeRune is a tiny UTF-8 decoder kept local to avoid importing
// unicode/utf8 just for this one call site used by clusterWidth's
// best-effort wide-character heuristic.
func decodeRune(b []byte) (rune, int) {
	if len(b) == 0 {
		return 0, 0
	}
	c0 := b[0]
	switch {
	case c0 < 0x80:
		return rune(c0), 1
	case c0&0xE0 == 0xC0 && len(b) >= 2:
		return rune(c0&0x1F)<<6 | rune(b[1]&0x3F), 2
	case c0&0xF0 == 0xE0 && len(b) >= 3:
		return rune(c0&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F), 3
	case c0&0xF8 == 0xF0 && len(b) >= 4:
		return rune(c0&0x07)<<18 | rune(b[1]&0x3F)<<12 | rune(b[2]&0x3F)<<6 | rune(b[3]&0x3F), 4
	default:
		return rune(c0), 1
	}
}

func colCharsOnLastRow(b []byte) int {
	lastNL := -1
	for i, c := range b {
		if c == '\n' {
			lastNL = i
		}
	}
	tail := b[lastNL+1:]
	seg := graphemes.NewSegmenter(tail)
	n := 0
	for seg.Next() {
		n++
	}
	return n
}
