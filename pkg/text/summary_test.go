package text

import "testing"

func TestNewSummaryBasic(t *testing.T) {
	s := NewSummary([]byte("hello"))
	if s.Bytes != 5 || s.Chars != 5 || s.Lines != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestNewSummaryCountsLines(t *testing.T) {
	s := NewSummary([]byte("abc\ndef\n"))
	if s.Lines != 2 {
		t.Fatalf("expected 2 lines, got %d", s.Lines)
	}
}

func TestSummaryAddConcatenatesCounts(t *testing.T) {
	a := NewSummary([]byte("abc"))
	b := NewSummary([]byte("def\n"))
	sum := a.Add(b)
	full := NewSummary([]byte("abcdef\n"))
	if sum.Bytes != full.Bytes || sum.Chars != full.Chars || sum.Lines != full.Lines {
		t.Fatalf("piecewise summary %+v does not match whole-text summary %+v", sum, full)
	}
}

func TestSummaryAddIdentity(t *testing.T) {
	var zero Summary
	a := NewSummary([]byte("xyz"))
	if zero.Add(a) != a {
		t.Fatalf("expected zero value to act as additive identity")
	}
}

func TestPieceSliceAndLen(t *testing.T) {
	p := New("hello world")
	sub := p.Slice(6, 11)
	if sub.String() != "world" {
		t.Fatalf("expected %q, got %q", "world", sub.String())
	}
	if sub.Len() != 5 {
		t.Fatalf("expected length 5, got %d", sub.Len())
	}
}

func TestClipToCharBoundary(t *testing.T) {
	s := "a\xe4\xb8\xadb" // "a" + CJK char (3 bytes) + "b"
	if got := ClipToCharBoundary(s, 2); got != 1 {
		t.Fatalf("expected clip to land before multi-byte rune, got %d", got)
	}
	if got := ClipToCharBoundary(s, 0); got != 0 {
		t.Fatalf("expected clip of 0 to stay 0, got %d", got)
	}
	if got := ClipToCharBoundary(s, len(s)); got != len(s) {
		t.Fatalf("expected clip of len(s) to stay len(s), got %d", got)
	}
}
