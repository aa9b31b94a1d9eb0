package scan

import "testing"

func TestDriverNextSliceRespectsRanges(t *testing.T) {
	d := NewDriver(20, []Range{{Start: 2, End: 5}, {Start: 10, End: 14}}, 2)

	var got []Slice
	for {
		s, ok := d.NextSlice()
		if !ok {
			break
		}
		got = append(got, s)
	}

	want := []Slice{{2, 2}, {4, 1}, {10, 2}, {12, 2}}
	if len(got) != len(want) {
		t.Fatalf("got %d slices, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slice %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDriverCompleteOutOfOrderAdvancesPositionDone(t *testing.T) {
	d := NewDriver(10, []Range{{Start: 0, End: 10}}, 10)

	d.Complete(4, 2) // [4,6) arrives first
	if pd := d.PositionDone(); pd != 0 {
		t.Fatalf("PositionDone() = %d, want 0 (a gap at the front must block the mark)", pd)
	}

	d.Complete(0, 4) // [0,4) fills the gap
	if pd := d.PositionDone(); pd != 6 {
		t.Fatalf("PositionDone() = %d, want 6 (0..6 now contiguous)", pd)
	}

	d.Complete(6, 4)
	if pd := d.PositionDone(); pd != 10 {
		t.Fatalf("PositionDone() = %d, want 10", pd)
	}
}

func TestDriverState(t *testing.T) {
	d := NewDriver(4, []Range{{Start: 0, End: 4}}, 4)
	if d.State() != Ready {
		t.Errorf("State() = %v, want Ready", d.State())
	}
	d.NextSlice()
	if d.State() != Draining {
		t.Errorf("State() = %v, want Draining", d.State())
	}
	d.Complete(0, 4)
	if d.State() != Done {
		t.Errorf("State() = %v, want Done", d.State())
	}
}

func TestDriverCompleteSkipsGapsBetweenValidRanges(t *testing.T) {
	d := NewDriver(20, []Range{{Start: 3, End: 6}, {Start: 10, End: 14}}, 4)

	if pd := d.PositionDone(); pd != 0 {
		t.Fatalf("PositionDone() = %d, want 0 before any completion", pd)
	}

	d.Complete(3, 3) // [3,6) is the whole first valid range
	if pd := d.PositionDone(); pd != 6 {
		t.Fatalf("PositionDone() = %d, want 6 (gap [0,3) excluded by filtering must not block the mark)", pd)
	}
	if d.State() == Done {
		t.Fatalf("State() = Done, want not Done (second valid range still outstanding)")
	}

	d.Complete(10, 4) // [10,14) is the whole second valid range
	if pd := d.PositionDone(); pd != 14 {
		t.Fatalf("PositionDone() = %d, want 14 (gap [6,10) excluded by filtering must not block the mark)", pd)
	}
	if d.State() != Done {
		t.Fatalf("State() = %v, want Done (positionDone reached the last valid range's end)", d.State())
	}
}

func TestDriverNextSliceExhausted(t *testing.T) {
	d := NewDriver(4, []Range{{Start: 0, End: 4}}, 4)
	if _, ok := d.NextSlice(); !ok {
		t.Fatal("NextSlice() ok = false on first call, want true")
	}
	if _, ok := d.NextSlice(); ok {
		t.Fatal("NextSlice() ok = true after ranges exhausted, want false")
	}
}
