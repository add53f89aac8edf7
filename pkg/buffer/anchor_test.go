package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorAtZeroAndEndAreSymbolic(t *testing.T) {
	b := New(1, "hello")
	start, err := b.AnchorBefore(0)
	require.NoError(t, err)
	assert.True(t, start.IsStart())

	end, err := b.AnchorAfter(5)
	require.NoError(t, err)
	assert.True(t, end.IsEnd())
}

func TestToOffsetsBatchResolvesInAnyOrder(t *testing.T) {
	b := New(1, "hello world")
	a1, err := b.AnchorBefore(0)
	require.NoError(t, err)
	a2, err := b.AnchorBefore(6)
	require.NoError(t, err)
	a3, err := b.AnchorAfter(11)
	require.NoError(t, err)

	offsets, err := b.ToOffsets([]Anchor{a3, a1, a2})
	require.NoError(t, err)
	assert.Equal(t, []int{11, 0, 6}, offsets)
}

func TestToPointCountsRowsAndColumns(t *testing.T) {
	b := New(1, "ab\ncd\nef")
	anchor, err := b.AnchorBefore(6) // start of "ef"
	require.NoError(t, err)
	p, err := b.ToPoint(anchor)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Row)
	assert.Equal(t, 0, p.Column)
}

func TestAnchorJSONRoundTrip(t *testing.T) {
	b := New(1, "hello world")
	a, err := b.AnchorBefore(3)
	require.NoError(t, err)

	data, err := a.MarshalJSON()
	require.NoError(t, err)

	var out Anchor
	require.NoError(t, out.UnmarshalJSON(data))

	offsetBefore, err := b.ToOffset(a)
	require.NoError(t, err)
	offsetAfter, err := b.ToOffset(out)
	require.NoError(t, err)
	assert.Equal(t, offsetBefore, offsetAfter)
}
