package buffer

import (
	"sort"

	"github.com/coreseekdev/loom/pkg/clock"
	"github.com/coreseekdev/loom/pkg/fragid"
	"github.com/coreseekdev/loom/pkg/sumtree"
	"github.com/coreseekdev/loom/pkg/text"
)

// Range is a half-open byte range [Start, End) passed to Edit. Ranges in
// one Edit call must be non-overlapping and given in any order; Edit
// sorts and applies them back to front so earlier edits' offsets never
// need adjusting for later ones.
type Range struct {
	Start, End int
}

// Buffer is a single replica's view of a collaboratively edited text
// document: the fragment tree plus every structure needed to resolve
// anchors, apply remote operations out of order, and undo/redo by edit
// id. It is single-owner and not internally synchronized; callers
// needing concurrent access guard the buffer themselves, e.g. with a
// mutex, the way loomd's relay does it, or with one goroutine per
// document fed by a channel.
type Buffer struct {
	replicaID clock.ReplicaID

	localClock   *clock.LocalClock
	lamportClock *clock.LamportClock
	version      clock.Version

	insertions map[clock.Local]*Insertion
	fragments  []*Fragment // sorted by dense fragid.ID; mutation-time source of truth
	fragTree   *sumtree.Tree[*Fragment, FragmentSummary]
	splits     splitIndex
	undoMap    *UndoMap

	selections map[clock.Lamport]*SelectionSet

	history *History

	deferred []Operation // operations received before their dependencies

	// blockedReplicas names every source replica that currently has at
	// least one deferred operation. Once a replica is blocked, every
	// later operation from it is deferred too, even one whose own
	// declared dependencies are already satisfied, so operations from
	// one replica always apply in the order that replica produced them.
	// ApplyOps recomputes it on each pass over the Lamport-ordered queue,
	// so the block clears once the operation that first deferred applies.
	blockedReplicas map[clock.ReplicaID]bool

	subscribers []func(Event)

	file *FileState
}

// New creates a buffer for replicaID, seeded with baseText as the
// initial visible content, modeled as the insertion authored at this
// replica's first Local timestamp — the starting document is treated
// as just another edit.
func New(replicaID clock.ReplicaID, baseText string) *Buffer {
	b := &Buffer{
		replicaID:       replicaID,
		localClock:      clock.NewLocalClock(replicaID),
		lamportClock:    clock.NewLamportClock(replicaID),
		version:         clock.NewVersion(),
		insertions:      make(map[clock.Local]*Insertion),
		splits:          newSplitIndex(),
		undoMap:         NewUndoMap(),
		selections:      make(map[clock.Lamport]*SelectionSet),
		history:         newHistory(),
		blockedReplicas: make(map[clock.ReplicaID]bool),
		file:            newFileState(),
	}

	id := b.localClock.Tick()
	lamport := b.lamportClock.Tick()
	piece := text.New(baseText)
	ins := &Insertion{ID: id, Text: piece, Lamport: lamport}
	b.insertions[id] = ins
	b.version.Observe(id)

	fragID := fragid.Between(fragid.Min(), fragid.Max())
	frag := &Fragment{
		ID: fragID, InsertionID: id, StartOffset: 0, EndOffset: piece.Len(),
		Visible: true, cachedText: piece.Summary(),
	}
	b.fragments = []*Fragment{frag}
	b.splits.newInsertion(id, piece.Len(), fragID)
	b.rebuildFragTree()
	return b
}

// ReplicaID returns the replica id this buffer was created with.
func (b *Buffer) ReplicaID() clock.ReplicaID { return b.replicaID }

// Fork returns a new, independent replica of b's current state under
// replicaID. This is how a second participant actually joins a document
// in this model: by receiving a full snapshot of one replica's
// insertions, fragments and version, not by being independently seeded
// with the same starting text, which would give the two buffers
// unrelated insertion identities for what looks like the same base
// content. loomd's relay sends no such snapshot on connect; it only
// forwards operations.
func (b *Buffer) Fork(replicaID clock.ReplicaID) *Buffer {
	out := &Buffer{
		replicaID:       replicaID,
		localClock:      clock.NewLocalClock(replicaID),
		lamportClock:    clock.NewLamportClock(replicaID),
		version:         b.version.Clone(),
		insertions:      make(map[clock.Local]*Insertion, len(b.insertions)),
		splits:          newSplitIndex(),
		undoMap:         NewUndoMap(),
		selections:      make(map[clock.Lamport]*SelectionSet),
		history:         newHistory(),
		blockedReplicas: make(map[clock.ReplicaID]bool),
		file:            newFileState(),
	}
	out.lamportClock.Observe(clock.Lamport{Counter: b.lamportClock.Peek()})
	for id, ins := range b.insertions {
		cp := *ins
		out.insertions[id] = &cp
	}
	out.fragments = make([]*Fragment, len(b.fragments))
	for i, f := range b.fragments {
		cp := *f
		cp.Deletions = append([]clock.Local(nil), f.Deletions...)
		cp.UndoTouches = append([]clock.Local(nil), f.UndoTouches...)
		out.fragments[i] = &cp
	}
	for insID, tree := range b.splits {
		items := append([]splitEntry(nil), tree.Items()...)
		out.splits[insID] = sumtree.New[splitEntry, splitSummary](items)
	}
	for editID, count := range b.undoMap.counts {
		out.undoMap.counts[editID] = count
	}
	out.rebuildFragTree()
	return out
}

// Version returns a copy of the current observed version.
func (b *Buffer) Version() clock.Version { return b.version.Clone() }

// Len returns the buffer's current visible length in bytes.
func (b *Buffer) Len() int { return b.fragTree.Summary().Text.Bytes }

// Text reassembles the full visible document. It is O(n) and intended
// for tests, initial renders and small documents; steady-state editors
// should track the buffer incrementally via Subscribe instead.
func (b *Buffer) Text() string {
	var out []byte
	for _, f := range b.fragments {
		if !f.Visible {
			continue
		}
		ins := b.insertions[f.InsertionID]
		out = append(out, ins.Text.String()[f.StartOffset:f.EndOffset]...)
	}
	return string(out)
}

// Edit applies one or more non-overlapping byte ranges as a single local
// change: every byte in each range is deleted, and newText is inserted at
// the position of the first (lowest-offset) range, matching a
// multi-cursor edit shape. It returns one EditOperation per input range
// that actually changed anything, in ascending order of range start
// (ranges are sorted first, whatever order the caller gave them in).
// A range that is already empty and receives no text (the "delete
// nothing, insert nothing" case) is dropped entirely: no operation is
// produced for it, and if every range in the call is like that, Edit is
// a complete no-op — no clock tick, no history entry, no event.
func (b *Buffer) Edit(ranges []Range, newText string) ([]Operation, error) {
	if len(ranges) == 0 {
		return nil, nil
	}
	length := b.Len()
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i, r := range sorted {
		if r.Start < 0 || r.End > length || r.Start > r.End {
			return nil, newError(ErrInvalidRange, "range out of bounds")
		}
		if i > 0 && r.Start < sorted[i-1].End {
			return nil, newError(ErrInvalidRange, "overlapping ranges")
		}
	}

	ops := make([]Operation, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		r := sorted[i]
		insertHere := i == 0
		insertsText := insertHere && len(newText) > 0
		if r.Start == r.End && !insertsText {
			continue
		}
		op, err := b.spliceOne(r, insertHere, newText)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return nil, nil
	}
	// ops were built back-to-front; restore ascending range order.
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}

	editIDs := make([]clock.Local, len(ops))
	for i, op := range ops {
		editIDs[i] = op.(EditOperation).ID
	}
	b.history.recordEdit(editIDs)

	b.rebuildFragTree()
	b.emit(Edited{})
	if b.file.markDirty() {
		b.emit(Dirtied{})
	}
	return ops, nil
}

// spliceOne tombstones range r and, if insertText is true, splices a
// fresh insertion at r.Start. It mutates b.fragments/b.splits in place
// but does not rebuild b.fragTree, letting Edit batch the rebuild. Edit
// never calls this for a range that is empty and carries no text; every
// call here is assumed to touch at least one fragment.
func (b *Buffer) spliceOne(r Range, insertText bool, newText string) (Operation, error) {
	editID := b.localClock.Tick()
	lamport := b.lamportClock.Tick()

	startAnchor, err := b.AnchorBefore(r.Start)
	if err != nil {
		return nil, err
	}
	endAnchor, err := b.AnchorAfter(r.End)
	if err != nil {
		return nil, err
	}
	versionInRange := b.versionOfRange(r.Start, r.End)

	if r.End > r.Start {
		b.tombstoneRange(r.Start, r.End, editID)
	}
	if insertText && len(newText) > 0 {
		b.spliceInsert(r.Start, editID, lamport, newText)
	}
	b.version.Observe(editID)

	return EditOperation{
		ID: editID, Start: startAnchor, End: endAnchor,
		VersionInRange: versionInRange, NewText: newText, Lamport: lamport,
	}, nil
}

// versionOfRange joins the touched-version of every fragment overlapping
// [start,end), giving remote replicas the "version_in_range" needed to
// decide whether their own concurrent edits inside the same span are
// already reflected. It walks a cursor over the fragment tree starting
// at the fragment straddling start, rather than scanning every fragment
// in the document, so the cost tracks the number of fragments actually
// touched by the range.
func (b *Buffer) versionOfRange(start, end int) clock.Version {
	v := clock.NewVersion()
	if start >= end {
		return v
	}
	cur := sumtree.NewCursor[*Fragment, FragmentSummary](b.fragTree)
	cur.Seek(byVisibleByte(start), sumtree.Right)
	for {
		f, ok := cur.Item()
		if !ok {
			break
		}
		fstart := cur.Position().Text.Bytes
		if fstart >= end {
			break
		}
		if f.Visible {
			v = v.Join(f.touchedVersion())
		}
		cur.Next()
	}
	return v
}

// tombstoneRange splits the fragments at the boundaries of [start,end)
// (at most the start- and end-boundary fragments ever need splitting;
// everything strictly between is wholly inside or wholly outside) and
// marks every fragment fully contained in the range as deleted by
// editID. The marking pass walks a cursor forward from the fragment at
// start rather than scanning the whole document.
func (b *Buffer) tombstoneRange(start, end int, editID clock.Local) {
	b.splitAt(start)
	b.splitAt(end)
	b.rebuildFragTree()

	cur := sumtree.NewCursor[*Fragment, FragmentSummary](b.fragTree)
	cur.Seek(byVisibleByte(start), sumtree.Right)
	// fstart is tracked by hand: marking a fragment invisible changes its
	// live Summary, so the cursor's position after Next would no longer be
	// in the pre-edit offsets that end is expressed in.
	fstart := cur.Position().Text.Bytes
	for {
		f, ok := cur.Item()
		if !ok {
			break
		}
		if fstart >= end {
			break
		}
		if f.Visible && f.Len() > 0 {
			fstart += f.Len()
			f.Deletions = append(f.Deletions, editID)
			f.recomputeVisible(b.undoMap)
		}
		cur.Next()
	}
	// The fragments just marked invisible above carry a stale cached
	// summary in fragTree (built while they were still visible); rebuild
	// before any caller seeks across them again (e.g. spliceInsert).
	b.rebuildFragTree()
}

// splitAt ensures a fragment boundary exists at visible byte offset at,
// splitting the fragment straddling it (if any) into two and updating
// both b.fragments and the owning insertion's split index. It locates the
// straddling fragment with a single cursor seek over the fragment tree
// rather than scanning b.fragments.
func (b *Buffer) splitAt(at int) {
	if at <= 0 || at >= b.Len() {
		return
	}
	b.rebuildFragTree()
	cur := sumtree.NewCursor[*Fragment, FragmentSummary](b.fragTree)
	cur.Seek(byVisibleByte(at), sumtree.Right)
	f, ok := cur.Item()
	if !ok {
		return
	}
	fstart := cur.Position().Text.Bytes
	fend := fstart
	if f.Visible {
		fend += f.Len()
	}
	if at <= fstart || at >= fend {
		return
	}
	idx, ok := b.fragmentIndex(f.ID)
	if !ok {
		return
	}

	splitPoint := f.StartOffset + (at - fstart)
	left := &Fragment{
		ID: fragid.Between(prevID(b.fragments, idx), f.ID), InsertionID: f.InsertionID,
		StartOffset: f.StartOffset, EndOffset: splitPoint,
		Deletions: append([]clock.Local(nil), f.Deletions...), Visible: f.Visible,
	}
	right := &Fragment{
		ID: f.ID, InsertionID: f.InsertionID,
		StartOffset: splitPoint, EndOffset: f.EndOffset,
		Deletions: append([]clock.Local(nil), f.Deletions...), Visible: f.Visible,
	}
	ins := b.insertions[f.InsertionID]
	left.cachedText = ins.Text.Slice(left.StartOffset, left.EndOffset).Summary()
	right.cachedText = ins.Text.Slice(right.StartOffset, right.EndOffset).Summary()

	out := make([]*Fragment, 0, len(b.fragments)+1)
	out = append(out, b.fragments[:idx]...)
	out = append(out, left, right)
	out = append(out, b.fragments[idx+1:]...)
	b.fragments = out

	b.splits.replace(f.InsertionID, f.ID, []splitEntry{
		{Extent: left.Len(), FragmentID: left.ID},
		{Extent: right.Len(), FragmentID: right.ID},
	})
}

func prevID(fragments []*Fragment, idx int) fragid.ID {
	if idx == 0 {
		return fragid.Min()
	}
	return fragments[idx-1].ID
}

// spliceInsert creates a new Insertion of newText and a single, wholly
// visible Fragment for it, inserted into b.fragments immediately after
// whatever fragment now ends at byte offset at.
func (b *Buffer) spliceInsert(at int, insertionID clock.Local, lamport clock.Lamport, newText string) {
	piece := text.New(newText)
	parentID, parentOffset := b.originAt(at)
	ins := &Insertion{ID: insertionID, ParentID: parentID, ParentOffset: parentOffset, Text: piece, Lamport: lamport}
	b.insertions[insertionID] = ins

	insertIdx := b.fragmentSplicePoint(at)
	before := fragid.Min()
	if insertIdx > 0 {
		before = b.fragments[insertIdx-1].ID
	}
	after := fragid.Max()
	if insertIdx < len(b.fragments) {
		after = b.fragments[insertIdx].ID
	}
	fragID := fragid.Between(before, after)
	frag := &Fragment{
		ID: fragID, InsertionID: insertionID, StartOffset: 0, EndOffset: piece.Len(),
		Visible: true, cachedText: piece.Summary(),
	}
	out := make([]*Fragment, 0, len(b.fragments)+1)
	out = append(out, b.fragments[:insertIdx]...)
	out = append(out, frag)
	out = append(out, b.fragments[insertIdx:]...)
	b.fragments = out
	b.splits.newInsertion(insertionID, piece.Len(), fragID)
}

// originAt reports the (insertion, offset) immediately before visible
// byte offset at, used only to record Insertion.ParentID/ParentOffset
// for diagnostics; it has no bearing on correctness since Fragment ids
// alone determine tree order. It seeks the fragment tree directly
// instead of scanning b.fragments.
func (b *Buffer) originAt(at int) (clock.Local, int) {
	if at == 0 {
		return clock.Local{}, 0
	}
	cur := sumtree.NewCursor[*Fragment, FragmentSummary](b.fragTree)
	cur.Seek(byVisibleByte(at), sumtree.Left)
	f, ok := cur.Item()
	if !ok {
		return clock.Local{}, 0
	}
	pos := cur.Position().Text.Bytes
	return f.InsertionID, f.StartOffset + (at - pos)
}

// fragmentSplicePoint returns the index in b.fragments immediately after
// the fragment containing visible byte offset at-1 (or 0 if at == 0). It
// finds that fragment with a single cursor seek over the fragment tree,
// then binary-searches b.fragments (already sorted by dense id) for its
// slice position.
func (b *Buffer) fragmentSplicePoint(at int) int {
	if at == 0 {
		return 0
	}
	cur := sumtree.NewCursor[*Fragment, FragmentSummary](b.fragTree)
	cur.Seek(byVisibleByte(at), sumtree.Left)
	f, ok := cur.Item()
	if !ok {
		return len(b.fragments)
	}
	idx, ok := b.fragmentIndex(f.ID)
	if !ok {
		return len(b.fragments)
	}
	return idx + 1
}

// ApplyOps applies one or more remote operations, deferring any whose
// dependencies this replica hasn't observed yet and retrying the
// deferred queue after every successful apply. The deferred queue and the
// new operations are processed together in Lamport order. Beyond an
// operation's own declared dependencies (applicable), a replica with a
// deferred operation is blocked: every later operation from that same
// source replica is deferred too, even one whose dependencies are already
// satisfied, so one replica's operations are never reordered relative to
// each other. The block is recomputed on every pass over the queue, so it
// lifts as soon as the blocking operation applies.
func (b *Buffer) ApplyOps(ops []Operation) error {
	pending := append(append([]Operation(nil), b.deferred...), ops...)
	b.deferred = nil
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].OpLamport().Less(pending[j].OpLamport())
	})

	progressed := true
	for progressed && len(pending) > 0 {
		progressed = false
		next := pending[:0:0]
		b.blockedReplicas = make(map[clock.ReplicaID]bool)
		for _, op := range pending {
			source := op.OpLamport().Replica
			if b.blockedReplicas[source] || !b.applicable(op) {
				next = append(next, op)
				b.blockedReplicas[source] = true
				continue
			}
			if err := b.applyOne(op); err != nil {
				return err
			}
			progressed = true
		}
		pending = next
	}
	b.deferred = pending
	if len(pending) > 0 {
		return nil
	}
	b.rebuildFragTree()
	return nil
}

// applicable reports whether op's causal dependencies are satisfied by
// the current version.
func (b *Buffer) applicable(op Operation) bool {
	switch t := op.(type) {
	case EditOperation:
		if !t.Start.IsStart() && !b.version.Observed(t.Start.insertionID) {
			return false
		}
		if !t.End.IsEnd() && !b.version.Observed(t.End.insertionID) {
			return false
		}
		return t.VersionInRange.LessEq(b.version)
	case UndoOperation:
		return b.version.Observed(t.EditID)
	case UpdateSelectionsOperation:
		for _, r := range t.Selections {
			if !r.Start.IsStart() && !r.Start.IsEnd() && !b.version.Observed(r.Start.insertionID) {
				return false
			}
			if !r.End.IsStart() && !r.End.IsEnd() && !b.version.Observed(r.End.insertionID) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (b *Buffer) applyOne(op Operation) error {
	switch t := op.(type) {
	case EditOperation:
		return b.applyEdit(t)
	case UndoOperation:
		b.localClock.Observe(t.ID.Seq)
		b.lamportClock.Observe(t.Lamport)
		b.applyUndo(t)
		return nil
	case UpdateSelectionsOperation:
		b.lamportClock.Observe(t.Lamport)
		return b.applyUpdateSelections(t)
	default:
		return nil
	}
}

// applyEdit applies a remote EditOperation: it resolves Start/End through
// the insertion-split index (which may have further split the named
// insertion since the op was authored) rather than through byte offsets,
// so the edit lands in the right place even if this replica's view of
// offsets has since diverged from the author's.
func (b *Buffer) applyEdit(op EditOperation) error {
	b.localClock.Observe(op.ID.Seq)
	b.lamportClock.Observe(op.Lamport)

	start, err := b.ToOffset(op.Start)
	if err != nil {
		return err
	}
	end, err := b.ToOffset(op.End)
	if err != nil {
		return err
	}
	if end > start {
		b.tombstoneRange(start, end, op.ID)
	}
	if len(op.NewText) > 0 {
		b.spliceInsert(start, op.ID, op.Lamport, op.NewText)
	} else {
		b.insertions[op.ID] = &Insertion{ID: op.ID, Lamport: op.Lamport, Text: text.New("")}
	}
	b.version.Observe(op.ID)
	b.rebuildFragTree()
	b.emit(Edited{})
	if b.file.markDirty() {
		b.emit(Dirtied{})
	}
	return nil
}

// rebuildFragTree is defined in undo.go (shared with Undo/Redo).
