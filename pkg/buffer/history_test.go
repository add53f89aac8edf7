package buffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNestedTransactionsFoldIntoParent(t *testing.T) {
	b := New(1, "abcdef")
	b.StartTransaction()
	_, err := b.Edit([]Range{{Start: 0, End: 1}}, "")
	require.NoError(t, err)

	b.StartTransaction()
	_, err = b.Edit([]Range{{Start: 0, End: 1}}, "")
	require.NoError(t, err)
	require.NoError(t, b.EndTransaction())

	require.NoError(t, b.EndTransaction())
	assert.Equal(t, "cdef", b.Text())

	ops, err := b.UndoTransaction()
	require.NoError(t, err)
	assert.Len(t, ops, 2, "both edits should undo as one grouped step")
	assert.Equal(t, "abcdef", b.Text())
}

func TestRedoStackClearedByNewEdit(t *testing.T) {
	b := New(1, "abc")
	_, err := b.Edit([]Range{{Start: 0, End: 1}}, "")
	require.NoError(t, err)

	_, err = b.UndoTransaction()
	require.NoError(t, err)
	assert.Equal(t, "abc", b.Text())

	_, err = b.Edit([]Range{{Start: 1, End: 2}}, "")
	require.NoError(t, err)

	ops, err := b.RedoTransaction()
	require.NoError(t, err)
	assert.Empty(t, ops, "redo stack must be cleared once a new edit is made")
}

func TestUndoWithNoHistoryIsNoop(t *testing.T) {
	b := New(1, "abc")
	ops, err := b.UndoTransaction()
	require.NoError(t, err)
	assert.Nil(t, ops)
}

func TestGroupIntervalTiming(t *testing.T) {
	b := New(1, "abcdefgh")

	_, err := b.Edit([]Range{{Start: 0, End: 1}}, "")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = b.Edit([]Range{{Start: 0, End: 1}}, "")
	require.NoError(t, err)
	assert.Equal(t, "cdefgh", b.Text())

	ops, err := b.UndoTransaction()
	require.NoError(t, err)
	assert.Len(t, ops, 2, "edits 50ms apart should group into one undo step")
	assert.Equal(t, "abcdefgh", b.Text())

	_, err = b.Edit([]Range{{Start: 0, End: 1}}, "")
	require.NoError(t, err)
	assert.Equal(t, "bcdefgh", b.Text())
	time.Sleep(400 * time.Millisecond)
	_, err = b.Edit([]Range{{Start: 0, End: 1}}, "")
	require.NoError(t, err)
	assert.Equal(t, "cdefgh", b.Text())

	ops, err = b.UndoTransaction()
	require.NoError(t, err)
	assert.Len(t, ops, 1, "an edit 400ms later than the one before it is its own undo step")
	assert.Equal(t, "bcdefgh", b.Text())

	ops, err = b.UndoTransaction()
	require.NoError(t, err)
	assert.Len(t, ops, 1)
	assert.Equal(t, "abcdefgh", b.Text())
}
