package buffer

import (
	"testing"

	"github.com/coreseekdev/loom/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBufferText(t *testing.T) {
	b := New(1, "hello world")
	assert.Equal(t, "hello world", b.Text())
	assert.Equal(t, 11, b.Len())
}

func TestEditInsertAndDelete(t *testing.T) {
	b := New(1, "hello world")
	_, err := b.Edit([]Range{{Start: 5, End: 11}}, ", go!")
	require.NoError(t, err)
	assert.Equal(t, "hello, go!", b.Text())
}

func TestEditMultiCursor(t *testing.T) {
	b := New(1, "aaa bbb ccc")
	ops, err := b.Edit([]Range{{Start: 0, End: 3}, {Start: 8, End: 11}}, "X")
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "X bbb ", b.Text())
}

func TestEditRejectsOverlappingRanges(t *testing.T) {
	b := New(1, "hello world")
	_, err := b.Edit([]Range{{Start: 0, End: 5}, {Start: 3, End: 8}}, "")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestEditRejectsOutOfRange(t *testing.T) {
	b := New(1, "hi")
	_, err := b.Edit([]Range{{Start: 0, End: 5}}, "")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestConvergenceOfDisjointConcurrentEdits(t *testing.T) {
	a := New(1, "hello world")
	bb := a.Fork(2)

	opsA, err := a.Edit([]Range{{Start: 0, End: 5}}, "goodbye")
	require.NoError(t, err)
	opsB, err := bb.Edit([]Range{{Start: 6, End: 11}}, "planet")
	require.NoError(t, err)

	require.NoError(t, a.ApplyOps(opsB))
	require.NoError(t, bb.ApplyOps(opsA))

	assert.Equal(t, a.Text(), bb.Text())
	assert.Equal(t, "goodbye planet", a.Text())
}

func TestApplyOpsIsOrderIndependent(t *testing.T) {
	origin := New(1, "0123456789")
	replicaForward := origin.Fork(3)
	replicaBackward := origin.Fork(4)

	opsA, err := origin.Edit([]Range{{Start: 0, End: 1}}, "A")
	require.NoError(t, err)
	opsB, err := origin.Edit([]Range{{Start: 9, End: 10}}, "B")
	require.NoError(t, err)

	require.NoError(t, replicaForward.ApplyOps(append(append([]Operation{}, opsA...), opsB...)))
	require.NoError(t, replicaBackward.ApplyOps(append(append([]Operation{}, opsB...), opsA...)))

	assert.Equal(t, replicaForward.Text(), replicaBackward.Text())
	assert.Equal(t, origin.Text(), replicaForward.Text())
}

func TestApplyOpsDefersUnsatisfiedDependencies(t *testing.T) {
	a := New(1, "hello world")
	replica := a.Fork(2)

	opsA1, err := a.Edit([]Range{{Start: 0, End: 5}}, "HELLO")
	require.NoError(t, err)
	opsA2, err := a.Edit([]Range{{Start: 0, End: 5}}, "Hello")
	require.NoError(t, err)

	// Apply the second edit before the first: it depends on anchors the
	// first edit introduced, so it must be deferred until both arrive.
	require.NoError(t, replica.ApplyOps(opsA2))
	assert.Equal(t, "hello world", replica.Text(), "out-of-order op should be deferred, not misapplied")

	require.NoError(t, replica.ApplyOps(opsA1))
	assert.Equal(t, a.Text(), replica.Text())
}

func TestAnchorStabilityAcrossConcurrentEdit(t *testing.T) {
	b := New(1, "hello world")
	anchor, err := b.AnchorBefore(6) // before "world"
	require.NoError(t, err)

	_, err = b.Edit([]Range{{Start: 0, End: 5}}, "goodbye")
	require.NoError(t, err)

	offset, err := b.ToOffset(anchor)
	require.NoError(t, err)
	assert.Equal(t, "world", b.Text()[offset:])
}

func TestUndoRestoresDeletedText(t *testing.T) {
	b := New(1, "hello world")
	ops, err := b.Edit([]Range{{Start: 5, End: 11}}, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", b.Text())

	editID := ops[0].(EditOperation).ID
	_, err = b.Undo(editID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", b.Text())
}

func TestUndoThenRedoToggles(t *testing.T) {
	b := New(1, "hello world")
	ops, err := b.Edit([]Range{{Start: 0, End: 5}}, "")
	require.NoError(t, err)
	editID := ops[0].(EditOperation).ID

	_, err = b.Undo(editID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", b.Text())

	_, err = b.Redo(editID)
	require.NoError(t, err)
	assert.Equal(t, " world", b.Text())
}

func TestTransactionGroupsUndo(t *testing.T) {
	b := New(1, "abc")
	b.StartTransaction()
	_, err := b.Edit([]Range{{Start: 0, End: 1}}, "")
	require.NoError(t, err)
	_, err = b.Edit([]Range{{Start: 0, End: 1}}, "")
	require.NoError(t, err)
	require.NoError(t, b.EndTransaction())
	assert.Equal(t, "c", b.Text())

	ops, err := b.UndoTransaction()
	require.NoError(t, err)
	assert.Len(t, ops, 2)
	assert.Equal(t, "abc", b.Text())
}

func TestEndTransactionWithoutStartFails(t *testing.T) {
	b := New(1, "abc")
	assert.ErrorIs(t, b.EndTransaction(), ErrNoOpenTransaction)
}

func TestVersionMonotonicallyGrows(t *testing.T) {
	b := New(1, "abc")
	before := b.Version()
	_, err := b.Edit([]Range{{Start: 0, End: 1}}, "x")
	require.NoError(t, err)
	after := b.Version()
	assert.True(t, before.LessEq(after))
	assert.False(t, after.LessEq(before))
}

func TestEditsSinceReportsInsertedAndDeletedSpans(t *testing.T) {
	b := New(1, "hello world")
	base := b.Version()
	_, err := b.Edit([]Range{{Start: 0, End: 5}}, "goodbye")
	require.NoError(t, err)

	changes := b.EditsSince(base)
	require.NotEmpty(t, changes)

	var sawInsert, sawDelete bool
	for _, c := range changes {
		if c.Kind == Inserted && c.Text == "goodbye" {
			sawInsert = true
		}
		if c.Kind == Deleted && c.Text == "hello" {
			sawDelete = true
		}
	}
	assert.True(t, sawInsert, "expected an Inserted change for the new text")
	assert.True(t, sawDelete, "expected a Deleted change for the replaced text")
}

func TestSelectionSetRoundTrips(t *testing.T) {
	b := New(1, "hello world")
	start, err := b.AnchorBefore(0)
	require.NoError(t, err)
	end, err := b.AnchorAfter(5)
	require.NoError(t, err)

	op := b.AddSelectionSet([]SelectionRange{{Start: start, End: end}})
	update, ok := op.(UpdateSelectionsOperation)
	require.True(t, ok)

	sets := b.AllSelections()
	require.Contains(t, sets, update.SetID)
	assert.Len(t, sets[update.SetID].Selections, 1)

	_, err = b.RemoveSelectionSet(update.SetID)
	require.NoError(t, err)
	assert.NotContains(t, b.AllSelections(), update.SetID)
}

func TestEmptyBufferOperations(t *testing.T) {
	b := New(1, "")
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, "", b.Text())

	start, err := b.AnchorBefore(0)
	require.NoError(t, err)
	assert.True(t, start.IsStart())

	ops, err := b.Edit([]Range{{Start: 0, End: 0}}, "hi")
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "hi", b.Text())
}

func TestDirtyAndSavedEvents(t *testing.T) {
	b := New(1, "abc")
	var dirtied, saved int
	b.Subscribe(func(e Event) {
		switch e.(type) {
		case Dirtied:
			dirtied++
		case Saved:
			saved++
		}
	})

	_, err := b.Edit([]Range{{Start: 0, End: 1}}, "x")
	require.NoError(t, err)
	_, err = b.Edit([]Range{{Start: 0, End: 1}}, "y")
	require.NoError(t, err)
	assert.Equal(t, 1, dirtied, "Dirtied should fire once per clean->dirty transition")

	b.MarkSaved()
	assert.Equal(t, 1, saved)
	assert.False(t, b.IsDirty())
}

func TestSetFileIdentityDirtiesAndFiresInOrder(t *testing.T) {
	b := New(1, "abc")
	var order []string
	b.Subscribe(func(e Event) {
		switch e.(type) {
		case Dirtied:
			order = append(order, "Dirtied")
		case FileHandleChanged:
			order = append(order, "FileHandleChanged")
		}
	})

	b.SetFileIdentity("/tmp/deleted-on-disk")
	assert.Equal(t, []string{"Dirtied", "FileHandleChanged"}, order)
	assert.True(t, b.IsDirty())

	order = nil
	b.SetFileIdentity("/tmp/save-as")
	assert.Equal(t, []string{"FileHandleChanged"}, order, "already-dirty buffer doesn't re-emit Dirtied")
}

func TestOffsetOutOfRangeRejected(t *testing.T) {
	b := New(1, "abc")
	_, err := b.AnchorBefore(-1)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)
	_, err = b.AnchorAfter(100)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)
}

func TestUnknownSelectionSetRejected(t *testing.T) {
	b := New(1, "abc")
	_, err := b.UpdateSelectionSet(clock.Lamport{Counter: 999}, nil)
	assert.ErrorIs(t, err, ErrUnknownSelectionSet)
}
