package buffer

import (
	"encoding/json"
	"sort"

	"github.com/coreseekdev/loom/pkg/clock"
	"github.com/coreseekdev/loom/pkg/fragid"
	"github.com/coreseekdev/loom/pkg/sumtree"
	"github.com/coreseekdev/loom/pkg/text"
)

// AnchorBias controls which side of a split an anchor sticks to. It
// reuses sumtree.Bias's Left/Right values directly: Left resolves a
// boundary to the content ending there (stable against insertions to
// the right of the anchor), Right resolves to content starting there
// (stable against insertions to the left).
type AnchorBias = sumtree.Bias

const (
	Left  = sumtree.Left
	Right = sumtree.Right
)

// anchorKind tags which of the three shapes an Anchor has taken.
type anchorKind int

const (
	anchorStart anchorKind = iota
	anchorEnd
	anchorMiddle
)

// Anchor is a bias-tagged position reference stable across concurrent
// edits. Start and End are symbolic document boundaries; Middle names a
// specific (insertion, offset) pair together with the bias used to
// resolve it, exactly the shape the wire format's start_id/start_offset
// and end_id/end_offset fields need.
type Anchor struct {
	kind        anchorKind
	insertionID clock.Local
	offset      int
	bias        AnchorBias
}

// wireAnchor is Anchor's JSON shape, used so loomd can ship EditOperation
// values over a websocket connection without reaching into Anchor's
// unexported fields.
type wireAnchor struct {
	Kind        anchorKind  `json:"kind"`
	InsertionID clock.Local `json:"insertion_id,omitempty"`
	Offset      int         `json:"offset,omitempty"`
	Bias        AnchorBias  `json:"bias,omitempty"`
}

func (a Anchor) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireAnchor{Kind: a.kind, InsertionID: a.insertionID, Offset: a.offset, Bias: a.bias})
}

func (a *Anchor) UnmarshalJSON(data []byte) error {
	var w wireAnchor
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	a.kind, a.insertionID, a.offset, a.bias = w.Kind, w.InsertionID, w.Offset, w.Bias
	return nil
}

// StartAnchor is the symbolic position before all text.
func StartAnchor() Anchor { return Anchor{kind: anchorStart} }

// EndAnchor is the symbolic position after all text.
func EndAnchor() Anchor { return Anchor{kind: anchorEnd} }

// IsStart reports whether a is the symbolic start-of-document anchor.
func (a Anchor) IsStart() bool { return a.kind == anchorStart }

// IsEnd reports whether a is the symbolic end-of-document anchor.
func (a Anchor) IsEnd() bool { return a.kind == anchorEnd }

// AnchorBefore returns an anchor immediately before the character at pos
// (left-biased: it stays attached to the text to its left). pos == 0
// returns the symbolic Start anchor.
func (b *Buffer) AnchorBefore(pos int) (Anchor, error) {
	return b.anchorAt(pos, Left)
}

// AnchorAfter returns an anchor immediately after the character at
// pos-1 (right-biased). pos == len(text) returns the symbolic End
// anchor.
func (b *Buffer) AnchorAfter(pos int) (Anchor, error) {
	return b.anchorAt(pos, Right)
}

func (b *Buffer) anchorAt(pos int, bias AnchorBias) (Anchor, error) {
	length := b.fragTree.Summary().Text.Bytes
	if pos < 0 || pos > length {
		return Anchor{}, newError(ErrOffsetOutOfRange, "pos out of range")
	}
	if pos == 0 && bias == Left {
		return StartAnchor(), nil
	}
	if pos == length && bias == Right {
		return EndAnchor(), nil
	}

	cur := sumtree.NewCursor[*Fragment, FragmentSummary](b.fragTree)
	cur.Seek(byVisibleByte(pos), bias)
	frag, ok := cur.Item()
	if !ok {
		// pos landed exactly at the end but with Left bias: fall back to
		// the last visible fragment.
		items := b.fragTree.Items()
		if len(items) == 0 {
			return StartAnchor(), nil
		}
		frag = items[len(items)-1]
	}
	withinVisible := pos - cur.Position().Text.Bytes
	insOffset := frag.StartOffset + visibleToRaw(b, frag, withinVisible)
	return Anchor{kind: anchorMiddle, insertionID: frag.InsertionID, offset: insOffset, bias: bias}, nil
}

// visibleToRaw maps a byte offset counted within the fragment's visible
// text to the corresponding raw offset within the fragment's own span.
// Since a fragment is either wholly visible or wholly invisible (there is
// no partial-visibility within one fragment — visibility is a per
// fragment flag), visible and raw offsets coincide whenever the fragment
// is visible, and the function only exists so a future per-character
// visibility model (there is none today) has a single seam to change.
func visibleToRaw(b *Buffer, f *Fragment, visibleOffset int) int {
	return visibleOffset
}

// ToOffset resolves an anchor to its current byte offset in the
// document. It resolves the named fragment and the visible bytes before
// it with a single cursor seek by dense id over the fragment tree,
// rather than summing every preceding fragment's length by hand.
func (b *Buffer) ToOffset(a Anchor) (int, error) {
	switch a.kind {
	case anchorStart:
		return 0, nil
	case anchorEnd:
		return b.fragTree.Summary().Text.Bytes, nil
	}
	fragID, ok := b.splits.resolve(a.insertionID, a.offset, a.bias)
	if !ok {
		return 0, newError(ErrUnknownInsertion, a.insertionID.String())
	}
	cur := sumtree.NewCursor[*Fragment, FragmentSummary](b.fragTree)
	cur.Seek(byFragmentID{id: fragID}, sumtree.Left)
	frag, ok := cur.Item()
	if !ok || !fragid.Equal(frag.ID, fragID) {
		return 0, newError(ErrUnknownInsertion, a.insertionID.String())
	}
	before := cur.Position().Text.Bytes

	if !frag.Visible {
		return before, nil
	}
	withinInsertion := a.offset - frag.StartOffset
	if withinInsertion < 0 {
		withinInsertion = 0
	}
	if withinInsertion > frag.Len() {
		withinInsertion = frag.Len()
	}
	return before + withinInsertion, nil
}

// ToPoint resolves an anchor to its current (row, column) position.
func (b *Buffer) ToPoint(a Anchor) (text.Point, error) {
	offset, err := b.ToOffset(a)
	if err != nil {
		return text.Point{}, err
	}
	return b.offsetToPoint(offset), nil
}

// offsetToPoint seeks the fragment tree once to land directly on the
// fragment straddling offset, reading the accumulated row/column of
// everything before it off the cursor's position instead of walking
// every preceding fragment; only the one straddling fragment's own text
// is walked byte by byte.
func (b *Buffer) offsetToPoint(offset int) text.Point {
	cur := sumtree.NewCursor[*Fragment, FragmentSummary](b.fragTree)
	cur.Seek(byVisibleByte(offset), sumtree.Right)
	before := cur.Position()
	row, col := before.Text.Lines, before.Text.LastLineChars

	frag, ok := cur.Item()
	if !ok {
		return text.Point{Row: row, Column: col}
	}
	remaining := offset - before.Text.Bytes
	if remaining <= 0 || !frag.Visible {
		return text.Point{Row: row, Column: col}
	}

	s := frag.cachedText
	if remaining >= s.Bytes {
		row += s.Lines
		if s.Lines > 0 {
			col = s.LastLineChars
		} else {
			col += s.LastLineChars
		}
		return text.Point{Row: row, Column: col}
	}

	// Partial fragment: walk its text byte by byte counting newlines.
	raw := b.insertions[frag.InsertionID].Text.String()[frag.StartOffset : frag.StartOffset+remaining]
	for _, ch := range raw {
		if ch == '\n' {
			row++
			col = 0
		} else {
			col++
		}
	}
	return text.Point{Row: row, Column: col}
}

// ToOffsets resolves many anchors in one call. Anchors are sorted by
// kind and insertion id, then each is resolved with its own ToOffset
// lookup; results are returned in the caller's original order. There is
// no shared single pass: the cost is one ToOffset per anchor.
func (b *Buffer) ToOffsets(anchors []Anchor) ([]int, error) {
	type indexed struct {
		anchor Anchor
		pos    int
		err    error
	}
	out := make([]indexed, len(anchors))
	for i, a := range anchors {
		out[i].anchor = a
	}
	order := make([]int, len(anchors))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return anchorSortKey(out[order[i]].anchor).Less(anchorSortKey(out[order[j]].anchor))
	})
	for _, i := range order {
		out[i].pos, out[i].err = b.ToOffset(out[i].anchor)
	}
	result := make([]int, len(anchors))
	for i := range out {
		if out[i].err != nil {
			return nil, out[i].err
		}
		result[i] = out[i].pos
	}
	return result, nil
}

type anchorSortable struct {
	kind anchorKind
	id   clock.Local
}

func (a anchorSortable) Less(other anchorSortable) bool {
	if a.kind != other.kind {
		return a.kind < other.kind
	}
	return a.id.Less(other.id)
}

func anchorSortKey(a Anchor) anchorSortable {
	return anchorSortable{kind: a.kind, id: a.insertionID}
}

// fragmentIndex finds the index of the fragment with the given id in
// b.fragments, which is kept sorted by dense id the same way the
// fragment tree is, via binary search rather than a linear scan. Callers
// that already have a *Fragment from a tree cursor use this only to
// recover its slice position for splicing, not to relocate it.
func (b *Buffer) fragmentIndex(id fragid.ID) (int, bool) {
	n := len(b.fragments)
	i := sort.Search(n, func(i int) bool {
		return !fragid.Less(b.fragments[i].ID, id)
	})
	if i < n && fragid.Equal(b.fragments[i].ID, id) {
		return i, true
	}
	return 0, false
}
