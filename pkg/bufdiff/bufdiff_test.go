package bufdiff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreseekdev/loom/pkg/buffer"
)

func TestRenderChangesPrefixesInsertAndDelete(t *testing.T) {
	r := New()
	out := r.RenderChanges([]buffer.Change{
		{Kind: buffer.Inserted, Offset: 0, Text: "hello"},
		{Kind: buffer.Deleted, Offset: 6, Text: "world"},
	})
	assert.True(t, strings.Contains(out, "+hello"))
	assert.True(t, strings.Contains(out, "-world"))
}

func TestUnifiedSnapshotsShowsLineLevelChanges(t *testing.T) {
	r := New()
	out := r.UnifiedSnapshots("foo\nbar\nbaz", "foo\nBAR\nbaz")
	assert.True(t, strings.Contains(out, "-bar"))
	assert.True(t, strings.Contains(out, "+BAR"))
}

func TestRenderSnapshotsNoChangeProducesNoDiffs(t *testing.T) {
	r := New()
	diffs, pretty := r.RenderSnapshots("same", "same")
	for _, d := range diffs {
		assert.Equal(t, 0, int(d.Type))
	}
	assert.NotEmpty(t, pretty)
}
