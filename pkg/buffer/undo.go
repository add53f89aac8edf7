package buffer

import (
	"sort"

	"github.com/coreseekdev/loom/pkg/clock"
	"github.com/coreseekdev/loom/pkg/fragid"
	"github.com/coreseekdev/loom/pkg/sumtree"
)

// UndoMap records, for every edit id that has ever been undone or redone,
// the highest undo count observed for it. Counts only ever increase: an
// UndoOperation names the count it sets rather than "undo" or "redo", so
// applying the same operation twice (or two replicas' operations in
// either order) converges on the same value, matching the rest of the
// operation algebra's commutativity requirement.
type UndoMap struct {
	counts map[clock.Local]uint32
}

// NewUndoMap returns an empty undo map; nothing is undone.
func NewUndoMap() *UndoMap {
	return &UndoMap{counts: make(map[clock.Local]uint32)}
}

// UndoCount returns the current undo count for editID, or 0 if it has
// never been touched.
func (m *UndoMap) UndoCount(editID clock.Local) uint32 {
	if m == nil {
		return 0
	}
	return m.counts[editID]
}

// Apply merges one UndoOperation's count into the map. Since counts are
// monotone, applying out of causal order or more than once is harmless.
func (m *UndoMap) Apply(editID clock.Local, count uint32) (changed bool) {
	if count > m.counts[editID] {
		m.counts[editID] = count
		return true
	}
	return false
}

// Undo bumps editID's undo count by one and returns the operation to
// broadcast. An odd count means undone and an even one restored, so on
// an edit that is currently undone (by this or a concurrent replica)
// Undo restores it.
func (b *Buffer) Undo(editID clock.Local) (Operation, error) {
	return b.toggleUndo(editID)
}

// Redo is symmetric with Undo: both simply bump the count by one, and
// the resulting parity is what determines visibility. A second call on
// the same edit id undoes what the first redid, exactly like a text
// editor's undo stack toggling back and forth.
func (b *Buffer) Redo(editID clock.Local) (Operation, error) {
	return b.toggleUndo(editID)
}

func (b *Buffer) toggleUndo(editID clock.Local) (Operation, error) {
	if !b.knowsEdit(editID) {
		return nil, newError(ErrUnknownInsertion, editID.String())
	}
	id := b.localClock.Tick()
	lamport := b.lamportClock.Tick()
	count := b.undoMap.UndoCount(editID) + 1
	op := UndoOperation{ID: id, EditID: editID, Count: count, Lamport: lamport}
	b.applyUndo(op)
	return op, nil
}

// knowsEdit reports whether editID names either a known insertion or a
// known deletion timestamp recorded on some fragment.
func (b *Buffer) knowsEdit(editID clock.Local) bool {
	if _, ok := b.insertions[editID]; ok {
		return true
	}
	for _, f := range b.fragments {
		for _, d := range f.Deletions {
			if d == editID {
				return true
			}
		}
	}
	return false
}

// applyUndo merges an UndoOperation's count into the undo map and
// recomputes visibility for every fragment whose insertion or deletion
// set names the touched edit id.
func (b *Buffer) applyUndo(op UndoOperation) {
	if !b.undoMap.Apply(op.EditID, op.Count) {
		return
	}
	touched := false
	for _, f := range b.fragments {
		if f.InsertionID != op.EditID && !touchesDeletion(f, op.EditID) {
			continue
		}
		f.UndoTouches = append(f.UndoTouches, op.ID)
		f.recomputeVisible(b.undoMap)
		touched = true
	}
	if touched {
		b.rebuildFragTree()
		b.emit(Edited{})
		if b.file.markDirty() {
			b.emit(Dirtied{})
		}
	}
}

func touchesDeletion(f *Fragment, editID clock.Local) bool {
	for _, d := range f.Deletions {
		if d == editID {
			return true
		}
	}
	return false
}

// rebuildFragTree reconstructs the read-side sum tree from the
// mutation-time fragment slice, keeping the slice (sorted by dense id)
// as the single source of truth.
func (b *Buffer) rebuildFragTree() {
	if len(b.fragments) == 0 {
		b.fragTree = sumtree.Empty[*Fragment, FragmentSummary]()
		return
	}
	sort.Slice(b.fragments, func(i, j int) bool {
		return fragid.Less(b.fragments[i].ID, b.fragments[j].ID)
	})
	b.fragTree = sumtree.New[*Fragment, FragmentSummary](b.fragments)
}
