// Package bufdiff renders a buffer.Change stream (or two whole-document
// snapshots) into human-readable diff text, using the diffmatchpatch
// library for line- and character-level diffing.
package bufdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/coreseekdev/loom/pkg/buffer"
)

// Renderer wraps a diffmatchpatch instance, matching PatchManager's
// shape: one long-lived value reused across calls rather than
// constructed per diff.
type Renderer struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// New returns a ready-to-use Renderer.
func New() *Renderer {
	return &Renderer{dmp: diffmatchpatch.New()}
}

// Hunk is one line-oriented change, the unit bufdiff's unified-style
// renderer emits.
type Hunk struct {
	Offset int
	Kind   buffer.ChangeKind
	Lines  []string
}

// RenderChanges turns an EditsSince result into unified-diff-style text:
// a "+"/"-" prefixed line per line of inserted/deleted text, headed by
// the byte offset the change occurred at. Multi-line changes are split
// so each source line gets its own prefixed row, matching how `diff -u`
// reads even though the underlying change unit is a byte span, not a
// line.
func (r *Renderer) RenderChanges(changes []buffer.Change) string {
	var sb strings.Builder
	for _, c := range changes {
		prefix := "+"
		if c.Kind == buffer.Deleted {
			prefix = "-"
		}
		fmt.Fprintf(&sb, "@@ offset %d @@\n", c.Offset)
		lines := strings.Split(c.Text, "\n")
		for i, line := range lines {
			if i == len(lines)-1 && line == "" {
				continue // trailing split artifact from a final newline
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// RenderSnapshots diffs two full document snapshots (e.g. a buffer's
// text before and after a batch of remote operations) and returns both
// the diffmatchpatch-native diff list and its pretty-printed text form,
// for callers that want semantic (not purely line-based) diff output.
func (r *Renderer) RenderSnapshots(oldText, newText string) (diffs []diffmatchpatch.Diff, pretty string) {
	diffs = r.dmp.DiffMain(oldText, newText, true)
	diffs = r.dmp.DiffCleanupSemantic(diffs)
	return diffs, r.dmp.DiffPrettyText(diffs)
}

// UnifiedSnapshots renders the diff between two snapshots as a compact
// "+"/"-"-prefixed line listing, reusing RenderSnapshots' semantic-clean
// diff so adjacent equal runs don't fragment the output.
func (r *Renderer) UnifiedSnapshots(oldText, newText string) string {
	diffs, _ := r.RenderSnapshots(oldText, newText)
	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.Split(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
