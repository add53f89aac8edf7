package buffer

import (
	"github.com/coreseekdev/loom/pkg/clock"
	"github.com/coreseekdev/loom/pkg/fragid"
	"github.com/coreseekdev/loom/pkg/text"
)

// Fragment is a contiguous slice of exactly one insertion's text. It is
// split but never merged: once created it keeps the same ID, insertion
// reference and [StartOffset, EndOffset) range for its entire life, even
// after it becomes invisible. Fragment never duplicates the text
// itself, only the range into its Insertion.
type Fragment struct {
	ID           fragid.ID
	InsertionID  clock.Local
	StartOffset  int // inclusive, byte offset into the insertion's text
	EndOffset    int // exclusive
	Deletions    []clock.Local
	UndoTouches  []clock.Local // ids of undo/redo ops applied to an edit this fragment's insertion or deletions name
	Visible      bool

	// cachedText is the summary of this fragment's own [StartOffset,
	// EndOffset) span, computed once when the fragment is created or
	// split. Summary() reports it only while Visible, which is how an
	// invisible fragment's bytes drop out of the tree's aggregate text
	// summary.
	cachedText text.Summary
}

// Len returns the fragment's own byte length, independent of visibility.
func (f *Fragment) Len() int {
	return f.EndOffset - f.StartOffset
}

// sliceText returns the fragment's slice of its insertion's text.
func (f *Fragment) sliceText(buf *Buffer) text.Piece {
	ins := buf.insertions[f.InsertionID]
	return ins.Text.Slice(f.StartOffset, f.EndOffset)
}

// touchedVersion joins every local timestamp this fragment's visibility
// depends on: its insertion id, every deletion timestamp, and every undo
// operation that has touched it. This is folded into FragmentSummary so
// edits_since's filter predicate (MaxVersion.ChangedSince(base)) can
// prune whole subtrees that have not changed since a base version.
func (f *Fragment) touchedVersion() clock.Version {
	v := clock.NewVersion()
	v.Observe(f.InsertionID)
	for _, d := range f.Deletions {
		v.Observe(d)
	}
	for _, u := range f.UndoTouches {
		v.Observe(u)
	}
	return v
}

// FragmentSummary is the monoid cached at every sum tree node over
// fragments: visible text summary, the maximum dense id seen (used to
// binary-search/seek by identifier), and the joined version of every
// local timestamp recorded anywhere in the subtree.
type FragmentSummary struct {
	Text       text.Summary
	MaxID      fragid.ID
	MaxVersion clock.Version
}

// Add combines two fragment summaries in tree order (s, then other).
func (s FragmentSummary) Add(other FragmentSummary) FragmentSummary {
	maxID := s.MaxID
	if maxID == nil || (other.MaxID != nil && fragid.Less(maxID, other.MaxID)) {
		maxID = other.MaxID
	}
	version := s.MaxVersion
	if version == nil {
		version = clock.NewVersion()
	}
	if other.MaxVersion != nil {
		version = version.Join(other.MaxVersion)
	}
	return FragmentSummary{
		Text:       s.Text.Add(other.Text),
		MaxID:      maxID,
		MaxVersion: version,
	}
}

// Summary implements sumtree.Item. Invisible fragments contribute a zero
// text summary but still contribute their id and version, so seeking by
// id and filtering by version still sees them.
func (f *Fragment) Summary() FragmentSummary {
	var ts text.Summary
	if f.Visible {
		ts = f.cachedText
	}
	return FragmentSummary{Text: ts, MaxID: f.ID, MaxVersion: f.touchedVersion()}
}

// undone reports whether the given edit id (an insertion id or a
// deletion timestamp) has been undone an odd number of times, per the
// undo map um.
func undone(um UndoMap, editID clock.Local) bool {
	return um.UndoCount(editID)%2 == 1
}

// recomputeVisible applies the visibility invariant:
// visible = ¬undone(insertion) ∧ ∀d∈deletions: undone(d).
func (f *Fragment) recomputeVisible(um UndoMap) {
	if undone(um, f.InsertionID) {
		f.Visible = false
		return
	}
	for _, d := range f.Deletions {
		if !undone(um, d) {
			f.Visible = false
			return
		}
	}
	f.Visible = true
}
