// Package sumtree implements a generic B-tree whose internal nodes cache a
// monoidal summary of their subtree, following the "sum tree" design used
// throughout loom's buffer: leaves hold items in a caller-defined order,
// every internal node's summary is the exact join of its children's
// summaries, and a Cursor can seek to any position describable as a
// Dimension derived from that summary. Cursor seeks scan items linearly
// and trees are rebuilt whole rather than edited in place, so neither is
// O(log n).
//
// The summary type S must form a commutative monoid: Add must be
// associative, and the zero value of S must behave as the identity
// element (S{}.Add(x) == x for every reachable x). Item summaries are
// combined left to right, so Add need not be commutative across
// unrelated dimensions as long as the concatenation order matches the
// item order — in practice every Summary in this codebase (see
// pkg/text and pkg/buffer) is a plain struct of counters and an
// associative max/join, which satisfies this trivially.
package sumtree

// Summary is the constraint on a tree's summary type: anything that can
// combine with another value of the same type.
type Summary[S any] interface {
	Add(S) S
}

// Item is the constraint on a tree's element type: anything that can
// produce its own summary.
type Item[S Summary[S]] interface {
	Summary() S
}

// Bias controls which side of an exact match a seek or slice stops on.
type Bias int

const (
	// Left stops at the leaf/position containing the target.
	Left Bias = iota
	// Right stops just past the target.
	Right
)

// maxLeafItems and maxFanout bound node width. They are tuning constants,
// not part of the public contract.
const (
	maxLeafItems = 16
	maxFanout    = 8
)

// node is either a leaf (items, no children) or an internal node
// (children, no items). Nodes are immutable once built. New and Concat
// build every node of the result afresh from the item sequence; no nodes
// are shared between trees.
type node[T Item[S], S Summary[S]] struct {
	leaf     bool
	items    []T
	children []*node[T, S]
	summary  S
	count    int // total item count in this subtree
}

func summarizeItems[T Item[S], S Summary[S]](items []T) S {
	var s S
	for _, it := range items {
		s = s.Add(it.Summary())
	}
	return s
}

func summarizeChildren[T Item[S], S Summary[S]](children []*node[T, S]) (S, int) {
	var s S
	n := 0
	for _, c := range children {
		s = s.Add(c.summary)
		n += c.count
	}
	return s, n
}

func newLeaf[T Item[S], S Summary[S]](items []T) *node[T, S] {
	return &node[T, S]{leaf: true, items: items, summary: summarizeItems[T, S](items), count: len(items)}
}

func newInternal[T Item[S], S Summary[S]](children []*node[T, S]) *node[T, S] {
	s, n := summarizeChildren[T, S](children)
	return &node[T, S]{leaf: false, children: children, summary: s, count: n}
}

// Tree is an immutable, persistent sum tree. The zero value is not valid;
// use New or Empty.
type Tree[T Item[S], S Summary[S]] struct {
	root *node[T, S]
}

// Empty returns a tree with no items.
func Empty[T Item[S], S Summary[S]]() *Tree[T, S] {
	return &Tree[T, S]{root: newLeaf[T, S](nil)}
}

// New builds a balanced tree over items in order. Construction is O(n).
func New[T Item[S], S Summary[S]](items []T) *Tree[T, S] {
	if len(items) == 0 {
		return Empty[T, S]()
	}
	return &Tree[T, S]{root: buildLevel[T, S](items)}
}

// buildLevel chunks items into leaves, then repeatedly groups nodes into
// parents of at most maxFanout children until a single root remains.
func buildLevel[T Item[S], S Summary[S]](items []T) *node[T, S] {
	leaves := make([]*node[T, S], 0, (len(items)+maxLeafItems-1)/maxLeafItems)
	for i := 0; i < len(items); i += maxLeafItems {
		end := i + maxLeafItems
		if end > len(items) {
			end = len(items)
		}
		leaves = append(leaves, newLeaf[T, S](items[i:end]))
	}
	if len(leaves) == 0 {
		return newLeaf[T, S](nil)
	}
	level := leaves
	for len(level) > 1 {
		next := make([]*node[T, S], 0, (len(level)+maxFanout-1)/maxFanout)
		for i := 0; i < len(level); i += maxFanout {
			end := i + maxFanout
			if end > len(level) {
				end = len(level)
			}
			next = append(next, newInternal[T, S](level[i:end]))
		}
		level = next
	}
	return level[0]
}

// Len returns the number of items in the tree.
func (t *Tree[T, S]) Len() int {
	if t == nil || t.root == nil {
		return 0
	}
	return t.root.count
}

// Summary returns the join of every item's summary in the tree.
func (t *Tree[T, S]) Summary() S {
	if t == nil || t.root == nil {
		var zero S
		return zero
	}
	return t.root.summary
}

// Items returns every item in order. It is O(n) and intended for tests
// and small trees (e.g. a single insertion's split index); hot paths
// should use a Cursor instead.
func (t *Tree[T, S]) Items() []T {
	out := make([]T, 0, t.Len())
	var walk func(n *node[T, S])
	walk = func(n *node[T, S]) {
		if n == nil {
			return
		}
		if n.leaf {
			out = append(out, n.items...)
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// Concat returns a new tree containing every item of a followed by every
// item of b. Concatenation bulk-rebuilds a balanced tree from the two
// item sequences; it is O(a.Len()+b.Len()) rather than the O(log n)
// a truly weight-balanced join would achieve, which is an accepted
// simplicity/performance tradeoff documented in DESIGN.md.
func Concat[T Item[S], S Summary[S]](a, b *Tree[T, S]) *Tree[T, S] {
	if a.Len() == 0 {
		return b
	}
	if b.Len() == 0 {
		return a
	}
	items := make([]T, 0, a.Len()+b.Len())
	items = append(items, a.Items()...)
	items = append(items, b.Items()...)
	return New[T, S](items)
}

// Push appends a single item.
func Push[T Item[S], S Summary[S]](t *Tree[T, S], item T) *Tree[T, S] {
	return Concat[T, S](t, New[T, S]([]T{item}))
}
