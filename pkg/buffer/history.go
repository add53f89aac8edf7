package buffer

import (
	"time"

	"github.com/coreseekdev/loom/pkg/clock"
)

// groupInterval is how close a top-level transaction's first edit must
// follow the previous transaction's last edit for the two to be
// coalesced into one undo step, matching editors' usual
// "fast typing undoes as one word" behavior. It is a tuning constant, not
// part of the public contract.
const groupInterval = 300 * time.Millisecond

// Transaction groups one or more edit ids (and the selection sets in
// effect when it opened) into a single undo/redo step.
// Transactions may nest: EndTransaction on an inner transaction folds its
// edit ids into its parent rather than closing a top-level undo step.
type Transaction struct {
	EditIDs          []clock.Local
	SelectionsBefore map[clock.Lamport]*SelectionSet
	StartedAt        time.Time
	// FirstEditAt is when the first edit actually landed in this
	// transaction, set once by the first recordEdit call. It is distinct
	// from StartedAt because StartTransaction is often called ahead of
	// the keystroke that produces the first edit, and group_interval
	// grouping has to measure from real edit activity, not from when the
	// transaction happened to open.
	FirstEditAt time.Time
	LastEditAt  time.Time
}

// History is the transaction stack plus the undo/redo stacks of
// completed top-level transactions. It holds no document state of its
// own; undoing a transaction means toggling every one of its edit ids
// via Buffer.Undo, which is what actually changes fragment visibility.
type History struct {
	open []*Transaction // nested open transactions, innermost last
	undo []*Transaction
	redo []*Transaction
}

func newHistory() *History {
	return &History{}
}

// start pushes a new open transaction, snapshotting the given selection
// sets as SelectionsBefore.
func (h *History) start(selections map[clock.Lamport]*SelectionSet) {
	now := time.Now()
	h.open = append(h.open, &Transaction{SelectionsBefore: selections, StartedAt: now, LastEditAt: now})
}

// end closes the innermost open transaction. If it was top-level, it is
// either merged into the previous undo-stack entry (when it started
// within groupInterval of the previous one finishing) or pushed as its
// own undo step, and the redo stack is cleared. Returns the transaction
// that was closed.
func (h *History) end() (*Transaction, error) {
	if len(h.open) == 0 {
		return nil, ErrNoOpenTransaction
	}
	txn := h.open[len(h.open)-1]
	h.open = h.open[:len(h.open)-1]

	if len(h.open) > 0 {
		parent := h.open[len(h.open)-1]
		parent.EditIDs = append(parent.EditIDs, txn.EditIDs...)
		if parent.FirstEditAt.IsZero() {
			parent.FirstEditAt = txn.FirstEditAt
		}
		parent.LastEditAt = txn.LastEditAt
		return txn, nil
	}

	if len(txn.EditIDs) == 0 {
		return txn, nil
	}
	h.redo = nil
	if last := h.lastUndo(); last != nil && txn.FirstEditAt.Sub(last.LastEditAt) <= groupInterval {
		last.EditIDs = append(last.EditIDs, txn.EditIDs...)
		last.LastEditAt = txn.LastEditAt
		return txn, nil
	}
	h.undo = append(h.undo, txn)
	return txn, nil
}

func (h *History) lastUndo() *Transaction {
	if len(h.undo) == 0 {
		return nil
	}
	return h.undo[len(h.undo)-1]
}

// recordEdit attaches newly produced edit ids to whichever transaction is
// current: the innermost open one if Edit was called inside
// StartTransaction/EndTransaction, or an implicit single-edit top-level
// transaction otherwise (mirroring editors where every un-grouped
// keystroke is its own undo step). The first call on a transaction sets
// FirstEditAt; StartTransaction may have run well before this point.
func (h *History) recordEdit(editIDs []clock.Local) {
	if len(editIDs) == 0 {
		return
	}
	now := time.Now()
	if len(h.open) > 0 {
		top := h.open[len(h.open)-1]
		top.EditIDs = append(top.EditIDs, editIDs...)
		if top.FirstEditAt.IsZero() {
			top.FirstEditAt = now
		}
		top.LastEditAt = now
		return
	}
	h.start(nil)
	top := h.open[len(h.open)-1]
	top.EditIDs = editIDs
	top.FirstEditAt = now
	top.LastEditAt = now
	h.end() //nolint:errcheck // always has an open transaction here
}

// popUndo removes and returns the most recent undoable transaction.
func (h *History) popUndo() (*Transaction, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	txn := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, txn)
	return txn, true
}

// popRedo removes and returns the most recently undone transaction.
func (h *History) popRedo() (*Transaction, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	txn := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, txn)
	return txn, true
}

// StartTransaction opens a new (possibly nested) transaction, snapshotting
// the buffer's current selection sets.
func (b *Buffer) StartTransaction() {
	b.history.start(b.AllSelections())
}

// EndTransaction closes the innermost open transaction.
func (b *Buffer) EndTransaction() error {
	_, err := b.history.end()
	return err
}

// UndoTransaction undoes the most recent top-level transaction by
// toggling every one of its edit ids, most recent first, and returns the
// resulting operations to broadcast. It returns (nil, nil) if there is
// nothing to undo.
func (b *Buffer) UndoTransaction() ([]Operation, error) {
	txn, ok := b.history.popUndo()
	if !ok {
		return nil, nil
	}
	ops := make([]Operation, 0, len(txn.EditIDs))
	for i := len(txn.EditIDs) - 1; i >= 0; i-- {
		op, err := b.Undo(txn.EditIDs[i])
		if err != nil {
			return ops, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// RedoTransaction re-applies the most recently undone transaction.
func (b *Buffer) RedoTransaction() ([]Operation, error) {
	txn, ok := b.history.popRedo()
	if !ok {
		return nil, nil
	}
	ops := make([]Operation, 0, len(txn.EditIDs))
	for _, id := range txn.EditIDs {
		op, err := b.Redo(id)
		if err != nil {
			return ops, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}
