package buffer

import (
	"github.com/coreseekdev/loom/pkg/clock"
	"github.com/coreseekdev/loom/pkg/fragid"
	"github.com/coreseekdev/loom/pkg/sumtree"
)

// splitEntry is one (extent, fragment) pair in an insertion's split
// index: extent is the byte length of the fragment's span within the
// insertion, and FragmentID names the fragment currently owning that
// span. Entries are kept in the order they occur within the insertion's
// text, which lets a (insertion_id, offset) pair resolve to a fragment
// id in O(log n) regardless of how many times that insertion has been
// split by concurrent edits.
type splitEntry struct {
	Extent     int
	FragmentID fragid.ID
}

type splitSummary struct {
	Extent int
}

func (s splitSummary) Add(other splitSummary) splitSummary {
	return splitSummary{Extent: s.Extent + other.Extent}
}

func (e splitEntry) Summary() splitSummary {
	return splitSummary{Extent: e.Extent}
}

// splitIndex is the full per-insertion map of where every original
// insertion's bytes currently live across its splits.
type splitIndex map[clock.Local]*sumtree.Tree[splitEntry, splitSummary]

func newSplitIndex() splitIndex {
	return make(splitIndex)
}

// resolve returns the id of the fragment currently owning byte offset
// within insertionID's text, honoring bias the same way anchor
// resolution does: Left resolves a boundary offset to the fragment
// ending there, Right resolves it to the fragment starting there.
func (idx splitIndex) resolve(insertionID clock.Local, offset int, bias sumtree.Bias) (fragid.ID, bool) {
	tree, ok := idx[insertionID]
	if !ok {
		return nil, false
	}
	cur := sumtree.NewCursor[splitEntry, splitSummary](tree)
	cur.Seek(byExtentOffset(offset), bias)
	entry, ok := cur.Item()
	if !ok {
		// Offset is at (or past) the very end of the insertion: resolve
		// to the last entry so "end of insertion" anchors still land
		// somewhere valid.
		items := tree.Items()
		if len(items) == 0 {
			return nil, false
		}
		return items[len(items)-1].FragmentID, true
	}
	return entry.FragmentID, true
}

// replace swaps the single entry naming oldID for newEntries, which must
// together span the same extent as the entry they replace. Used whenever
// a fragment is split into multiple pieces.
func (idx splitIndex) replace(insertionID clock.Local, oldID fragid.ID, newEntries []splitEntry) {
	tree, ok := idx[insertionID]
	if !ok {
		return
	}
	items := tree.Items()
	out := make([]splitEntry, 0, len(items)+len(newEntries))
	for _, it := range items {
		if fragid.Equal(it.FragmentID, oldID) {
			out = append(out, newEntries...)
			continue
		}
		out = append(out, it)
	}
	idx[insertionID] = sumtree.New[splitEntry, splitSummary](out)
}

// newInsertion registers a brand-new insertion's single initial fragment.
func (idx splitIndex) newInsertion(insertionID clock.Local, length int, fragmentID fragid.ID) {
	idx[insertionID] = sumtree.New[splitEntry, splitSummary]([]splitEntry{{Extent: length, FragmentID: fragmentID}})
}
