package column

import (
	"github.com/vantauri/h5table/enginefault"
	"github.com/vantauri/h5table/storage"
)

// RegularState is the per-scan runtime state for a Regular column: an
// owned dataset handle plus its cached dataspace handle. Whether the
// column is backed by a prefetch cache is tracked by the scan package,
// not here — column.State only owns storage handles, never scan-level
// buffers, so this package stays free of a dependency on scan.
type RegularState struct {
	Dataset   storage.Dataset
	Dataspace storage.Dataspace
}

// RSEState is the per-scan runtime state for an RSE column: the full
// run_starts sequence and its parallel values sequence, read once during
// Init (spec.md §4.4) and never mutated afterward. There is no per-row
// cursor; every lookup binary-searches, which is what keeps the
// materializer pure and safe to call from multiple worker goroutines at
// once (spec.md §4.7).
type RSEState struct {
	RunStarts []int64 // ascending, RunStarts[0] == 0
	Values    any     // typed slice matching ValuesType.Kind, len(Values) == len(RunStarts)
}

// State is the tagged runtime-state counterpart to Spec.
type State struct {
	Kind    Kind
	Regular RegularState
	RSE     RSEState
}

// Validate checks the RSE invariants from spec.md §3 invariant (1):
// run_starts begins at 0, is strictly increasing, its last entry is
// below num_rows, and it has exactly as many entries as there are
// values.
func (s *RSEState) Validate(valuesLen int, numRows int64) error {
	if len(s.RunStarts) == 0 {
		return enginefault.New(enginefault.InvariantViolation, "rse column has no runs")
	}
	if s.RunStarts[0] != 0 {
		return enginefault.New(enginefault.InvariantViolation, "run_starts must begin with 0, got %d", s.RunStarts[0])
	}
	for i := 1; i < len(s.RunStarts); i++ {
		if s.RunStarts[i] <= s.RunStarts[i-1] {
			return enginefault.New(enginefault.InvariantViolation, "run_starts must be strictly increasing, got %d at index %d after %d", s.RunStarts[i], i, s.RunStarts[i-1])
		}
	}
	if s.RunStarts[len(s.RunStarts)-1] >= numRows {
		return enginefault.New(enginefault.InvariantViolation, "run_starts has an entry (%d) at or beyond num_rows (%d)", s.RunStarts[len(s.RunStarts)-1], numRows)
	}
	if len(s.RunStarts) != valuesLen {
		return enginefault.New(enginefault.InvariantViolation, "run_starts has %d entries but values has %d", len(s.RunStarts), valuesLen)
	}
	return nil
}

// RunIndexForRow returns the index i of the run such that
// RunStarts[i] <= row, the largest such index. Every slice of rows the
// scan driver hands out is assumed to be within [0, num_rows), so the
// result is always a valid index into RunStarts.
func (s *RSEState) RunIndexForRow(row int64) int {
	lo, hi := 0, len(s.RunStarts)-1
	ans := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if s.RunStarts[mid] <= row {
			ans = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return ans
}

// RunBounds returns the half-open row range [start,end) covered by the
// run at idx. numRows closes the final run, which has no following
// run_starts entry to bound it.
func (s *RSEState) RunBounds(idx int, numRows int64) (start, end int64) {
	start = s.RunStarts[idx]
	if idx+1 < len(s.RunStarts) {
		end = s.RunStarts[idx+1]
	} else {
		end = numRows
	}
	return start, end
}
