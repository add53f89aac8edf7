package clock

import "testing"

func TestLocalClockTick(t *testing.T) {
	c := NewLocalClock(1)
	a := c.Tick()
	b := c.Tick()
	if a.Seq != 1 || b.Seq != 2 {
		t.Errorf("expected sequence 1 then 2, got %d then %d", a.Seq, b.Seq)
	}
	if a.Replica != 1 || b.Replica != 1 {
		t.Errorf("expected replica 1 on both ticks, got %d and %d", a.Replica, b.Replica)
	}
	if !a.Less(b) {
		t.Errorf("expected %v < %v", a, b)
	}
}

func TestLocalClockObserve(t *testing.T) {
	c := NewLocalClock(1)
	c.Observe(5)
	next := c.Tick()
	if next.Seq != 6 {
		t.Errorf("expected tick after Observe(5) to be 6, got %d", next.Seq)
	}
}

func TestLamportClockAdvancesPastObserved(t *testing.T) {
	local := NewLamportClock(1)
	remote := NewLamportClock(2)

	t1 := local.Tick() // 1@1
	_ = t1
	t2 := remote.Tick() // 1@2
	t3 := remote.Tick() // 2@2

	local.Observe(t3)
	t4 := local.Tick()
	if !t3.Less(t4) {
		t.Errorf("expected local tick after observing %v to exceed it, got %v", t3, t4)
	}
	if t2.Less(Lamport{}) {
		t.Errorf("sanity: an issued timestamp must not sort before the zero value")
	}
}

func TestLamportOrdering(t *testing.T) {
	a := Lamport{Counter: 3, Replica: 5}
	b := Lamport{Counter: 3, Replica: 7}
	c := Lamport{Counter: 4, Replica: 1}

	if !a.Less(b) {
		t.Errorf("expected %v < %v (tie broken by replica)", a, b)
	}
	if !b.Less(c) {
		t.Errorf("expected %v < %v (counter dominates)", b, c)
	}
}
