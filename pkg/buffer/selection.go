package buffer

import (
	"sort"

	"github.com/coreseekdev/loom/pkg/clock"
)

// SelectionRange is one cursor or range selection within a selection
// set (anchor/head, either order), anchored at both ends to CRDT
// Anchors instead of raw offsets, so a selection set survives
// concurrent edits the same way a lone anchor does.
type SelectionRange struct {
	ID       clock.Local
	Start    Anchor // the side that doesn't move when extending
	End      Anchor // the side that moves when extending ("head")
	Reversed bool   // true if Start is logically after End in the text
	Goal     int    // remembered column for vertical cursor movement
}

// SelectionSet is an ordered list of selections sharing one Lamport-keyed
// identity. Selection sets are replicated but are not part of
// undo history; only the snapshots a Transaction takes are.
type SelectionSet struct {
	ID         clock.Lamport
	Selections []SelectionRange
}

// sortSelections orders ranges by resolved start offset, keeping each
// selection set an ordered list of selections sorted by start.
func (b *Buffer) sortSelections(ranges []SelectionRange) []SelectionRange {
	out := make([]SelectionRange, len(ranges))
	copy(out, ranges)
	offsets := make([]int, len(out))
	for i, r := range out {
		off, err := b.ToOffset(r.Start)
		if err != nil {
			off = 0
		}
		offsets[i] = off
	}
	sort.SliceStable(out, func(i, j int) bool { return offsets[i] < offsets[j] })
	return out
}

// AddSelectionSet creates a new selection set, returning the operation to
// broadcast. The set's identity is the Lamport timestamp assigned here.
func (b *Buffer) AddSelectionSet(ranges []SelectionRange) Operation {
	lamport := b.lamportClock.Tick()
	sorted := b.sortSelections(ranges)
	b.selections[lamport] = &SelectionSet{ID: lamport, Selections: sorted}
	return UpdateSelectionsOperation{SetID: lamport, Selections: sorted, Lamport: lamport}
}

// UpdateSelectionSet replaces the selections in an existing set.
func (b *Buffer) UpdateSelectionSet(setID clock.Lamport, ranges []SelectionRange) (Operation, error) {
	if _, ok := b.selections[setID]; !ok {
		return nil, newError(ErrUnknownSelectionSet, setID.String())
	}
	lamport := b.lamportClock.Tick()
	sorted := b.sortSelections(ranges)
	b.selections[setID].Selections = sorted
	return UpdateSelectionsOperation{SetID: setID, Selections: sorted, Lamport: lamport}, nil
}

// RemoveSelectionSet deletes a selection set.
func (b *Buffer) RemoveSelectionSet(setID clock.Lamport) (Operation, error) {
	if _, ok := b.selections[setID]; !ok {
		return nil, newError(ErrUnknownSelectionSet, setID.String())
	}
	lamport := b.lamportClock.Tick()
	delete(b.selections, setID)
	return UpdateSelectionsOperation{SetID: setID, Selections: nil, Lamport: lamport}, nil
}

// AllSelections returns every selection set currently known, for tests
// and convergence checks between replicas.
func (b *Buffer) AllSelections() map[clock.Lamport]*SelectionSet {
	out := make(map[clock.Lamport]*SelectionSet, len(b.selections))
	for k, v := range b.selections {
		cp := *v
		cp.Selections = append([]SelectionRange(nil), v.Selections...)
		out[k] = &cp
	}
	return out
}

// applyUpdateSelections applies a remote or locally-replayed
// UpdateSelectionsOperation.
func (b *Buffer) applyUpdateSelections(op UpdateSelectionsOperation) error {
	for _, r := range op.Selections {
		if !r.Start.IsStart() && !r.Start.IsEnd() {
			if !b.knowsInsertion(r.Start) {
				return newError(ErrUnknownInsertion, "selection start")
			}
		}
		if !r.End.IsStart() && !r.End.IsEnd() {
			if !b.knowsInsertion(r.End) {
				return newError(ErrUnknownInsertion, "selection end")
			}
		}
	}
	if op.Selections == nil {
		delete(b.selections, op.SetID)
		return nil
	}
	b.selections[op.SetID] = &SelectionSet{ID: op.SetID, Selections: op.Selections}
	return nil
}

func (b *Buffer) knowsInsertion(a Anchor) bool {
	_, ok := b.insertions[a.insertionID]
	return ok
}
