package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditsSinceSingleInsertionIsOneChange(t *testing.T) {
	b := New(1, "ac")
	base := b.Version()

	_, err := b.Edit([]Range{{Start: 1, End: 1}}, "b")
	require.NoError(t, err)

	changes := b.EditsSince(base)
	require.Len(t, changes, 1)
	assert.Equal(t, Inserted, changes[0].Kind)
	assert.Equal(t, "b", changes[0].Text)
}

func TestEditsSinceEmptyWhenNothingChanged(t *testing.T) {
	b := New(1, "hello")
	base := b.Version()
	assert.Empty(t, b.EditsSince(base))
}

func TestEditsSinceIgnoresChangesBeforeBase(t *testing.T) {
	b := New(1, "hello world")
	_, err := b.Edit([]Range{{Start: 0, End: 5}}, "goodbye")
	require.NoError(t, err)

	base := b.Version()
	assert.Empty(t, b.EditsSince(base))

	_, err = b.Edit([]Range{{Start: 0, End: 7}}, "hi")
	require.NoError(t, err)
	changes := b.EditsSince(base)
	require.NotEmpty(t, changes)
}
