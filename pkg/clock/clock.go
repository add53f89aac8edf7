// Package clock implements the logical clocks that give every operation in
// a loom buffer a stable, comparable identity: a per-replica local
// timestamp, a Lamport timestamp for total ordering of concurrent events,
// and a vector-style global version summarizing everything a replica has
// observed.
package clock

import "fmt"

// ReplicaID identifies a single participant in a collaborative session.
// It is stable for the lifetime of the replica and assigned by the
// embedder (see Buffer.New in pkg/buffer).
type ReplicaID uint32

// Local is a (replica, counter) pair: the primary identifier for
// insertions, edits and undo records. Local timestamps are monotone per
// replica and never reused.
type Local struct {
	Replica ReplicaID
	Seq     uint64
}

// IsZero reports whether l is the unset Local value.
func (l Local) IsZero() bool {
	return l == Local{}
}

// Less orders Local timestamps first by sequence then by replica, which is
// enough to give any two distinct Locals a strict order without implying
// anything about wall-clock or causal order.
func (l Local) Less(other Local) bool {
	if l.Seq != other.Seq {
		return l.Seq < other.Seq
	}
	return l.Replica < other.Replica
}

func (l Local) String() string {
	return fmt.Sprintf("%d.%d", l.Replica, l.Seq)
}

// LocalClock hands out strictly increasing Local timestamps for one
// replica. It is not safe for concurrent use; the buffer that owns it is
// single-owner per the package-level concurrency model.
type LocalClock struct {
	replica ReplicaID
	seq     uint64
}

// NewLocalClock creates a clock for the given replica, starting at
// sequence 0 (no timestamps issued yet).
func NewLocalClock(replica ReplicaID) *LocalClock {
	return &LocalClock{replica: replica}
}

// Replica returns the owning replica id.
func (c *LocalClock) Replica() ReplicaID {
	return c.replica
}

// Tick allocates and returns the next Local timestamp for this replica.
func (c *LocalClock) Tick() Local {
	c.seq++
	return Local{Replica: c.replica, Seq: c.seq}
}

// Observe advances the clock so that future Tick calls never collide with
// an already-observed sequence number from this same replica (used when
// adopting operations that were, for whatever reason, authored under this
// replica id but not produced by this clock instance).
func (c *LocalClock) Observe(seq uint64) {
	if seq > c.seq {
		c.seq = seq
	}
}

// Lamport is a Lamport timestamp: compared lexicographically with Counter
// first, giving a total order over events from any number of replicas.
type Lamport struct {
	Counter uint64
	Replica ReplicaID
}

// Less reports whether l sorts strictly before other.
func (l Lamport) Less(other Lamport) bool {
	if l.Counter != other.Counter {
		return l.Counter < other.Counter
	}
	return l.Replica < other.Replica
}

func (l Lamport) String() string {
	return fmt.Sprintf("%d@%d", l.Counter, l.Replica)
}

// LamportClock maintains the Lamport counter for one replica.
type LamportClock struct {
	replica ReplicaID
	counter uint64
}

// NewLamportClock creates a Lamport clock for the given replica.
func NewLamportClock(replica ReplicaID) *LamportClock {
	return &LamportClock{replica: replica}
}

// Tick advances the clock for a local event and returns its timestamp.
func (c *LamportClock) Tick() Lamport {
	c.counter++
	return Lamport{Counter: c.counter, Replica: c.replica}
}

// Observe folds in a timestamp seen from a remote operation, raising the
// counter to at least t's counter so the next Tick strictly exceeds
// anything the clock has witnessed.
func (c *LamportClock) Observe(t Lamport) {
	if t.Counter > c.counter {
		c.counter = t.Counter
	}
}

// Peek returns the current counter value without advancing it.
func (c *LamportClock) Peek() uint64 {
	return c.counter
}
