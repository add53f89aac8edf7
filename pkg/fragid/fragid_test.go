package fragid

import "testing"

func TestCompareTrailingZeroPadding(t *testing.T) {
	a := ID{5}
	b := ID{5, 0, 0}
	if Compare(a, b) != 0 {
		t.Errorf("expected %v == %v with implicit trailing zeros", a, b)
	}

	c := ID{5, 1}
	if !Less(a, c) {
		t.Errorf("expected %v < %v", a, c)
	}
}

func TestMinMax(t *testing.T) {
	if !Less(Min(), Max()) {
		t.Fatal("expected Min() < Max()")
	}
}

func TestBetweenOrdering(t *testing.T) {
	cases := []struct {
		a, b ID
	}{
		{Min(), Max()},
		{ID{5}, ID{6}},
		{ID{5}, ID{5, 3}},
		{ID{0xFFFF}, Max()}, // equal identifiers are not exercised here
	}
	for _, c := range cases[:3] {
		mid := Between(c.a, c.b)
		if !Less(c.a, mid) {
			t.Errorf("Between(%v, %v) = %v, expected a < mid", c.a, c.b, mid)
		}
		if !Less(mid, c.b) {
			t.Errorf("Between(%v, %v) = %v, expected mid < b", c.a, c.b, mid)
		}
	}
}

func TestBetweenRepeatedInsertionNeverCollides(t *testing.T) {
	lo, hi := Min(), Max()
	seen := map[string]bool{lo.String(): true, hi.String(): true}

	for i := 0; i < 2000; i++ {
		mid := Between(lo, hi)
		if seen[mid.String()] {
			t.Fatalf("identifier collision after %d inserts: %v", i, mid)
		}
		seen[mid.String()] = true
		if !Less(lo, mid) || !Less(mid, hi) {
			t.Fatalf("Between(%v, %v) produced out-of-range %v", lo, hi, mid)
		}
		// Keep narrowing the same gap, forcing the identifier to grow.
		hi = mid
	}
}

func TestBetweenAdjacentDigitsGrowsLength(t *testing.T) {
	a := ID{5}
	b := ID{6}
	mid := Between(a, b)
	if len(mid) <= len(a) {
		t.Errorf("expected Between(%v, %v) to grow in length, got %v", a, b, mid)
	}
	if !Less(a, mid) || !Less(mid, b) {
		t.Errorf("Between(%v, %v) = %v is not strictly between", a, b, mid)
	}
}

func TestBetweenPanicsOnMisorderedInput(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Between to panic when a >= b")
		}
	}()
	Between(ID{5}, ID{5})
}
