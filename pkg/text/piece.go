package text

// Piece is an immutable, shared slice of text together with its cached
// Summary. Go strings are already immutable and sub-slicing a string
// never copies its backing bytes, so Piece is a thin wrapper: sharing an
// immutable text slice falls out of Go's string representation for
// free, with no manual reference counting required.
type Piece struct {
	s       string
	summary Summary
}

// New wraps s, computing its summary once.
func New(s string) Piece {
	return Piece{s: s, summary: NewSummary([]byte(s))}
}

// String returns the underlying text.
func (p Piece) String() string {
	return p.s
}

// Len returns the byte length.
func (p Piece) Len() int {
	return len(p.s)
}

// Summary returns the cached summary, satisfying sumtree.Item indirectly
// (callers wrap Piece in a larger Fragment/Insertion type that implements
// sumtree.Item itself; Piece is a value type, not a tree item).
func (p Piece) Summary() Summary {
	return p.summary
}

// Slice returns the sub-piece [start, end) in byte offsets, recomputing
// the summary for the narrower span. start and end must fall on UTF-8
// rune boundaries; callers resolve grapheme-safe offsets via
// ClipToCharBoundary before calling Slice.
func (p Piece) Slice(start, end int) Piece {
	return New(p.s[start:end])
}

// ClipToCharBoundary nudges byte offset b to the nearest grapheme
// cluster boundary at or before b, so a caller can never split a
// multi-byte rune or a combining grapheme cluster in two.
func ClipToCharBoundary(s string, b int) int {
	if b <= 0 {
		return 0
	}
	if b >= len(s) {
		return len(s)
	}
	offset := 0
	last := 0
	it := newGraphemeIterator(s)
	for it.next() {
		if offset == b {
			return b
		}
		if offset > b {
			return last
		}
		last = offset
		offset += it.clusterLen()
	}
	return last
}
