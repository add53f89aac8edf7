package buffer

import "github.com/coreseekdev/loom/pkg/clock"

// Operation is the commutative operation algebra every concrete
// operation type below satisfies. Operations are immutable once
// constructed and safe to broadcast to any number of replicas in any
// order.
type Operation interface {
	isOperation()
	// OpLamport returns the Lamport timestamp the operation's author
	// assigned it, used to order entries in the deferred queue.
	OpLamport() clock.Lamport
}

// EditOperation is the wire representation of a local edit: one range's
// worth of tombstoning plus an optional single insertion. Start and End
// anchor the edited span to fragments the author already knew about,
// which is what lets a remote replica check applicability before
// it has to resolve anything relative to its own, possibly different,
// view of byte offsets.
type EditOperation struct {
	ID             clock.Local
	Start          Anchor
	End            Anchor
	VersionInRange clock.Version
	NewText        string // empty means pure deletion
	Lamport        clock.Lamport
}

func (EditOperation) isOperation()                  {}
func (op EditOperation) OpLamport() clock.Lamport    { return op.Lamport }

// UndoOperation is a first-class undo/redo record: it never mutates
// history destructively, it only appends a new count for edit_id. Count
// odd means undone, even means restored; see UndoMap.
type UndoOperation struct {
	ID      clock.Local
	EditID  clock.Local
	Count   uint32
	Lamport clock.Lamport
}

func (UndoOperation) isOperation()               {}
func (op UndoOperation) OpLamport() clock.Lamport { return op.Lamport }

// UpdateSelectionsOperation replicates one selection set. A nil
// Selections slice (as opposed to an empty, non-nil one) signals removal
// of the set, matching add/update/remove all being modeled as the same
// wire operation.
type UpdateSelectionsOperation struct {
	SetID      clock.Lamport
	Selections []SelectionRange // nil => remove the set
	Lamport    clock.Lamport
}

func (UpdateSelectionsOperation) isOperation()               {}
func (op UpdateSelectionsOperation) OpLamport() clock.Lamport { return op.Lamport }
