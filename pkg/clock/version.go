package clock

// Version is a global version: a mapping from replica id to the highest
// sequence number observed from that replica. It represents the set of
// Local timestamps a replica has applied, and forms a join-semilattice
// under pointwise maximum, which is all Join needs to be commutative,
// associative and idempotent.
type Version map[ReplicaID]uint64

// NewVersion returns an empty version (nothing observed).
func NewVersion() Version {
	return Version{}
}

// Clone returns an independent copy of v.
func (v Version) Clone() Version {
	out := make(Version, len(v))
	for r, seq := range v {
		out[r] = seq
	}
	return out
}

// Observe records that t has been applied, mutating v in place.
func (v Version) Observe(t Local) {
	if t.Seq > v[t.Replica] {
		v[t.Replica] = t.Seq
	}
}

// Observed reports whether t has already been applied according to v.
func (v Version) Observed(t Local) bool {
	return v[t.Replica] >= t.Seq
}

// Join returns the pointwise maximum of v and other, the least upper bound
// of the two versions in the join-semilattice.
func (v Version) Join(other Version) Version {
	out := v.Clone()
	for r, seq := range other {
		if seq > out[r] {
			out[r] = seq
		}
	}
	return out
}

// LessEq reports whether v is dominated by other, i.e. every replica
// counter in v is less than or equal to the corresponding counter in
// other. This is the partial order mentioned in the data model: two
// versions need not be comparable.
func (v Version) LessEq(other Version) bool {
	for r, seq := range v {
		if seq > other[r] {
			return false
		}
	}
	return true
}

// Equal reports whether v and other observe exactly the same set of
// local timestamps.
func (v Version) Equal(other Version) bool {
	return v.LessEq(other) && other.LessEq(v)
}

// ChangedSince reports whether v contains any local timestamp not already
// observed by base, i.e. !v.LessEq(base). This is the predicate edits_since and the sum
// tree's filter cursor use to skip whole subtrees that have not changed.
func (v Version) ChangedSince(base Version) bool {
	for r, seq := range v {
		if seq > base[r] {
			return true
		}
	}
	return false
}
