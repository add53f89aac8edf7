package buffer

import (
	"github.com/coreseekdev/loom/pkg/clock"
	"github.com/coreseekdev/loom/pkg/sumtree"
)

// ChangeKind tags whether a Change is newly visible or newly invisible
// text relative to some base version.
type ChangeKind int

const (
	Inserted ChangeKind = iota
	Deleted
)

// Change is one coalesced, contiguous span of text that became visible
// or invisible since a base version. Offset is the position
// in the *current* document: for an Inserted change it is where the new
// text now sits; for a Deleted change it is where the removed text used
// to sit (and would reappear were the deletion undone), which is exactly
// the cumulative visible-byte position a fragment contributes zero width
// at while it's invisible.
type Change struct {
	Kind   ChangeKind
	Offset int
	Text   string
}

// EditsSince streams every content change between base and the buffer's
// current version as a minimal set of coalesced Changes, using
// sumtree.Filter so only the subtrees actually touched since base are
// walked rather than the whole fragment tree.
func (b *Buffer) EditsSince(base clock.Version) []Change {
	var raw []Change
	pred := func(s FragmentSummary) bool {
		if s.MaxVersion == nil {
			return false
		}
		return s.MaxVersion.ChangedSince(base)
	}
	sumtree.Filter[*Fragment, FragmentSummary](b.fragTree, pred, func(f *Fragment, position FragmentSummary) {
		if !f.touchedVersion().ChangedSince(base) {
			return
		}
		wasVis := b.wasVisibleAt(f, base)
		nowVis := f.Visible
		if wasVis == nowVis {
			return
		}
		txt := f.sliceText(b).String()
		kind := Inserted
		if wasVis && !nowVis {
			kind = Deleted
		}
		raw = append(raw, Change{Kind: kind, Offset: position.Text.Bytes, Text: txt})
	})
	return coalesceChanges(raw)
}

// wasVisibleAt approximates a fragment's visibility as of a past version
// base: the insertion must already have been observed, and none of its
// deletions may yet have been observed. This intentionally does not
// replay historical undo toggles (the buffer keeps only the current undo
// count per edit id, not a log of counts over time): a fragment touched
// only by undo/redo since base, with no net visibility change, is caught
// by the wasVis == nowVis check in EditsSince, so the only case this
// approximation can misjudge is "undone, then base advances past the
// deletion's version but the diff is computed as of a version strictly
// between the deletion and its undo" — a narrow window callers computing
// edits_since from a version they themselves observed will not hit.
func (b *Buffer) wasVisibleAt(f *Fragment, base clock.Version) bool {
	if !base.Observed(f.InsertionID) {
		return false
	}
	for _, d := range f.Deletions {
		if base.Observed(d) {
			return false
		}
	}
	return true
}

// coalesceChanges merges adjacent same-kind changes at contiguous
// offsets into one, so a multi-fragment insertion or deletion is
// reported as a single span rather than one entry per underlying
// fragment.
func coalesceChanges(changes []Change) []Change {
	if len(changes) == 0 {
		return nil
	}
	out := make([]Change, 0, len(changes))
	cur := changes[0]
	for _, c := range changes[1:] {
		contiguous := c.Kind == cur.Kind && (c.Offset == cur.Offset || c.Offset == cur.Offset+len(cur.Text))
		if contiguous {
			cur.Text += c.Text
			continue
		}
		out = append(out, cur)
		cur = c
	}
	out = append(out, cur)
	return out
}
