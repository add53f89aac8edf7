package clock

import "testing"

func TestVersionObserveAndObserved(t *testing.T) {
	v := NewVersion()
	t1 := Local{Replica: 1, Seq: 3}

	if v.Observed(t1) {
		t.Fatal("expected fresh version to not have observed anything")
	}
	v.Observe(t1)
	if !v.Observed(t1) {
		t.Fatal("expected version to observe t1 after Observe")
	}
	if !v.Observed(Local{Replica: 1, Seq: 1}) {
		t.Fatal("observing seq 3 should imply seq 1 from the same replica was also observed")
	}
	if v.Observed(Local{Replica: 1, Seq: 4}) {
		t.Fatal("seq 4 was never observed")
	}
}

func TestVersionJoinIsCommutativeAndIdempotent(t *testing.T) {
	a := NewVersion()
	a.Observe(Local{Replica: 1, Seq: 2})
	b := NewVersion()
	b.Observe(Local{Replica: 2, Seq: 5})

	ab := a.Join(b)
	ba := b.Join(a)
	if !ab.Equal(ba) {
		t.Errorf("join should be commutative: %v vs %v", ab, ba)
	}

	abab := ab.Join(ab)
	if !abab.Equal(ab) {
		t.Errorf("join should be idempotent: %v vs %v", abab, ab)
	}
}

func TestVersionLessEqPartialOrder(t *testing.T) {
	a := NewVersion()
	a.Observe(Local{Replica: 1, Seq: 1})

	b := NewVersion()
	b.Observe(Local{Replica: 2, Seq: 1})

	if a.LessEq(b) || b.LessEq(a) {
		t.Error("disjoint single-replica versions should be incomparable")
	}

	joined := a.Join(b)
	if !a.LessEq(joined) || !b.LessEq(joined) {
		t.Error("join should dominate both inputs")
	}
}

func TestVersionChangedSince(t *testing.T) {
	base := NewVersion()
	base.Observe(Local{Replica: 1, Seq: 2})

	same := base.Clone()
	if same.ChangedSince(base) {
		t.Error("clone of base should not be changed since base")
	}

	ahead := base.Clone()
	ahead.Observe(Local{Replica: 1, Seq: 3})
	if !ahead.ChangedSince(base) {
		t.Error("expected version with a newer timestamp to be changed since base")
	}

	other := NewVersion()
	other.Observe(Local{Replica: 9, Seq: 1})
	if !other.ChangedSince(base) {
		t.Error("expected version from an unobserved replica to be changed since base")
	}
}
