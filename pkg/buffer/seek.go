package buffer

import "github.com/coreseekdev/loom/pkg/fragid"

// byVisibleByte seeks the fragment tree by cumulative visible byte
// offset, the dimension local edits walk a cursor over the current
// fragment tree by.
type byVisibleByte int

func (b byVisibleByte) Cmp(acc FragmentSummary) int {
	if int(b) < acc.Text.Bytes {
		return -1
	}
	if int(b) > acc.Text.Bytes {
		return 1
	}
	return 0
}

// byFragmentID seeks the fragment tree by dense identifier, the
// dimension ToOffset uses to find the fragment with a given id.
type byFragmentID struct{ id fragid.ID }

func (b byFragmentID) Cmp(acc FragmentSummary) int {
	if acc.MaxID == nil {
		return 1
	}
	return fragid.Compare(b.id, acc.MaxID)
}

// byExtentOffset seeks a per-insertion split index by offset within that
// insertion's own text.
type byExtentOffset int

func (b byExtentOffset) Cmp(acc splitSummary) int {
	if int(b) < acc.Extent {
		return -1
	}
	if int(b) > acc.Extent {
		return 1
	}
	return 0
}
