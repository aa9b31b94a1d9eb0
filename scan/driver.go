// Package scan implements the scan driver, prefetch cache, materializers
// and worker pool (spec.md §4.5-§4.7, §5): the pieces that turn a
// planned row-range list into parallel, cache-sharing, zero-copy output
// chunks.
package scan

import "sync"

// Slice is one unit of work the driver hands out: read rows
// [Position, Position+Length) from every projected column.
type Slice struct {
	Position int64
	Length   int64
}

// Driver hands out slices in ascending row order and tracks a monotone
// low-water mark, position_done, that only advances once every row
// below it has actually been delivered by some worker — possibly out of
// the order slices were handed out in (spec.md §4.5).
type Driver struct {
	mu sync.Mutex

	validRanges []Range
	vectorSize  int64
	numRows     int64

	rangeIdx     int
	position     int64
	positionDone int64
	doneRangeIdx int // cursor into validRanges for skipping gaps positionDone will never see a completion for
	pending      map[int64]int64 // start -> length, completions waiting to fold into positionDone

	lastRow int64 // end of the last valid range; positionDone reaching this means Done

	doneCond *sync.Cond
}

// Range is the half-open row range type the driver consumes; it is
// structurally identical to rangeplan.Range but declared locally so this
// package does not need to import rangeplan just for a two-field struct.
type Range struct {
	Start, End int64
}

// NewDriver builds a Driver over a sorted, disjoint valid-range list
// already produced by the range planner.
func NewDriver(numRows int64, validRanges []Range, vectorSize int64) *Driver {
	d := &Driver{
		validRanges: validRanges,
		vectorSize:  vectorSize,
		numRows:     numRows,
		pending:     make(map[int64]int64),
	}
	if len(validRanges) > 0 {
		d.lastRow = validRanges[len(validRanges)-1].End
	}
	d.doneCond = sync.NewCond(&d.mu)
	return d
}

// NextSlice returns the next slice to scan, or ok=false when every valid
// range has been fully handed out. Safe for concurrent callers.
func (d *Driver) NextSlice() (Slice, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for d.rangeIdx < len(d.validRanges) && d.validRanges[d.rangeIdx].End <= d.position {
		d.rangeIdx++
	}
	if d.rangeIdx >= len(d.validRanges) {
		return Slice{}, false
	}

	r := d.validRanges[d.rangeIdx]
	if d.position < r.Start {
		d.position = r.Start
	}

	length := d.vectorSize
	if remain := r.End - d.position; remain < length {
		length = remain
	}

	s := Slice{Position: d.position, Length: length}
	d.position += length
	return s, true
}

// Complete reports that rows [start, start+length) have been fully
// materialized by a worker. Completions may arrive out of order;
// Complete folds them into positionDone as soon as they become
// contiguous with it, which is the single increasing low-water mark the
// prefetch cache uses to decide which chunks are safe to overwrite.
//
// A filtered scan's valid ranges leave gaps of excluded rows no worker
// will ever complete, so positionDone also jumps such a gap on its own
// once it reaches it and the completion starting the next valid range
// has arrived; it never runs ahead of rows that were handed out.
func (d *Driver) Complete(start, length int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[start] = length
	for {
		if l, ok := d.pending[d.positionDone]; ok {
			delete(d.pending, d.positionDone)
			d.positionDone += l
			continue
		}
		if d.skipGap() {
			continue
		}
		break
	}
	d.doneCond.Broadcast()
}

// skipGap advances positionDone to the start of the next valid range
// when it currently sits in a gap between ranges and a completion
// starting at that range is pending, reporting whether it moved. It
// leaves positionDone untouched when the range at doneRangeIdx already
// covers it (there's a real completion still owed), when no completion
// for the next range has arrived yet, or when there are no more ranges.
func (d *Driver) skipGap() bool {
	for d.doneRangeIdx < len(d.validRanges) {
		r := d.validRanges[d.doneRangeIdx]
		if d.positionDone < r.Start {
			if _, ok := d.pending[r.Start]; !ok {
				return false
			}
			d.positionDone = r.Start
			return true
		}
		if d.positionDone < r.End {
			return false
		}
		d.doneRangeIdx++
	}
	return false
}

// PositionDone returns the current low-water mark.
func (d *Driver) PositionDone() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positionDone
}

// WaitPositionDoneBeyond blocks until positionDone advances past row,
// or returns immediately if it already has. Nothing in this module
// calls it; the prefetch cache reads PositionDone directly.
func (d *Driver) WaitPositionDoneBeyond(row int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.positionDone <= row {
		d.doneCond.Wait()
	}
}

// State reports the per-scan lifecycle state described in spec.md §4.7:
// Ready while there is work left to hand out, Draining once handed out
// but not yet all delivered, Done once everything has been delivered.
type State int

const (
	Ready State = iota
	Draining
	Done
)

func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.rangeIdx
	for idx < len(d.validRanges) && d.validRanges[idx].End <= d.position {
		idx++
	}
	switch {
	case d.positionDone >= d.lastRow:
		return Done
	case idx < len(d.validRanges):
		return Ready
	default:
		return Draining
	}
}
