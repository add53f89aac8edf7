package buffer

import (
	"github.com/coreseekdev/loom/pkg/clock"
	"github.com/coreseekdev/loom/pkg/text"
)

// Insertion is the immutable record produced by one local edit's
// inserted text (including the buffer's initial base text, which is
// modeled as the insertion authored at the replica's first Local tick). The
// buffer keeps a single source of truth for
// edit text: Insertion owns the bytes, and every Fragment referencing it
// stores only a [start, end) byte range into Insertion.Text.
type Insertion struct {
	ID           clock.Local
	ParentID     clock.Local // id of the insertion this one was spliced after; zero means document start
	ParentOffset int         // offset within the parent's insertion at splice time
	Text         text.Piece
	Lamport      clock.Lamport
}

// Len returns the byte length of the insertion's text.
func (ins *Insertion) Len() int {
	return ins.Text.Len()
}
