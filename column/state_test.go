package column

import "testing"

func TestRSEStateValidate(t *testing.T) {
	cases := []struct {
		name      string
		runStarts []int64
		valuesLen int
		numRows   int64
		wantErr   bool
	}{
		{"valid", []int64{0, 2, 5}, 3, 9, false},
		{"missing leading zero", []int64{1, 2}, 2, 9, true},
		{"not strictly increasing", []int64{0, 2, 2}, 3, 9, true},
		{"last run at or beyond num rows", []int64{0, 5, 9}, 3, 9, true},
		{"length mismatch", []int64{0, 2, 5}, 2, 9, true},
		{"empty", nil, 0, 9, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := &RSEState{RunStarts: c.runStarts}
			err := s.Validate(c.valuesLen, c.numRows)
			if (err != nil) != c.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestRSEStateRunIndexForRow(t *testing.T) {
	s := &RSEState{RunStarts: []int64{0, 2, 5, 9}}
	cases := []struct {
		row  int64
		want int
	}{
		{0, 0}, {1, 0}, {2, 1}, {4, 1}, {5, 2}, {8, 2}, {9, 3}, {100, 3},
	}
	for _, c := range cases {
		if got := s.RunIndexForRow(c.row); got != c.want {
			t.Errorf("RunIndexForRow(%d) = %d, want %d", c.row, got, c.want)
		}
	}
}

func TestRSEStateRunBounds(t *testing.T) {
	s := &RSEState{RunStarts: []int64{0, 2, 5}}
	numRows := int64(9)

	start, end := s.RunBounds(0, numRows)
	if start != 0 || end != 2 {
		t.Errorf("RunBounds(0) = (%d,%d), want (0,2)", start, end)
	}
	start, end = s.RunBounds(2, numRows)
	if start != 5 || end != 9 {
		t.Errorf("RunBounds(2) = (%d,%d), want (5,9) (final run closes at num_rows)", start, end)
	}
}
