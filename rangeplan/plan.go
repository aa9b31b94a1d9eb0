// Package rangeplan implements the range planner (spec.md §4.4): for
// every RSE column carrying at least one claim, it evaluates that
// column's claimed filters against every run once, folds consecutive
// satisfying runs into ranges, and intersects the per-column range lists
// with each other (and with [0,num_rows) when there are no claims at
// all) into the single sorted, disjoint row-range list the scan driver
// hands out slices against.
package rangeplan

import (
	"sort"

	"github.com/vantauri/h5table/column"
	"github.com/vantauri/h5table/predicate"
)

// Range is a half-open row range [Start, End).
type Range struct {
	Start, End int64
}

// Plan computes the final intersected row-range list. rseStates maps a
// spec column index to its RSE runtime state; claims are grouped by
// column index internally. A column with no claims contributes nothing
// to the intersection — per spec.md §4.4 it is as if its range list were
// [{0,num_rows}].
func Plan(numRows int64, rseStates map[int]*column.RSEState, claims []predicate.Claim) ([]Range, error) {
	byColumn := make(map[int][]predicate.Claim)
	for _, c := range claims {
		byColumn[c.ColumnIndex] = append(byColumn[c.ColumnIndex], c)
	}

	if len(byColumn) == 0 {
		return []Range{{Start: 0, End: numRows}}, nil
	}

	// Deterministic column order keeps Plan's output identical across
	// runs given identical input, independent of map iteration order
	// (spec.md §8: query repeatability).
	colIndices := make([]int, 0, len(byColumn))
	for idx := range byColumn {
		colIndices = append(colIndices, idx)
	}
	sort.Ints(colIndices)

	result := []Range{{Start: 0, End: numRows}}
	for _, colIdx := range colIndices {
		state, ok := rseStates[colIdx]
		if !ok {
			continue
		}
		ranges, err := columnRanges(state, numRows, byColumn[colIdx])
		if err != nil {
			return nil, err
		}
		result = intersectTwo(result, ranges)
		if len(result) == 0 {
			break
		}
	}
	return result, nil
}

// columnRanges evaluates one column's claimed filters against every run
// and returns the sorted, disjoint list of ranges where they all hold.
func columnRanges(state *column.RSEState, numRows int64, claims []predicate.Claim) ([]Range, error) {
	var ranges []Range
	var open *Range

	for i := range state.RunStarts {
		start, end := state.RunBounds(i, numRows)
		ok, err := evaluateClaims(state.Values, i, claims)
		if err != nil {
			return nil, err
		}
		if ok {
			if open == nil {
				open = &Range{Start: start, End: end}
			} else {
				// Runs partition [0,num_rows) contiguously in index
				// order, so a satisfying run immediately following
				// another satisfying run is always adjacent: extending
				// the open range's end is all merging ever requires.
				open.End = end
			}
		} else if open != nil {
			ranges = append(ranges, *open)
			open = nil
		}
	}
	if open != nil {
		ranges = append(ranges, *open)
	}
	return ranges, nil
}

// intersectTwo merge-intersects two sorted, disjoint range lists.
func intersectTwo(a, b []Range) []Range {
	var out []Range
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := maxI64(a[i].Start, b[j].Start)
		end := minI64(a[i].End, b[j].End)
		if start < end {
			out = append(out, Range{Start: start, End: end})
		}
		if a[i].End < b[j].End {
			i++
		} else {
			j++
		}
	}
	return out
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
