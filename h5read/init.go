package h5read

import (
	"github.com/vantauri/h5table/column"
	"github.com/vantauri/h5table/enginefault"
	"github.com/vantauri/h5table/predicate"
	"github.com/vantauri/h5table/rangeplan"
	"github.com/vantauri/h5table/scan"
	"github.com/vantauri/h5table/storage"
)

// ScanState is one scan's initialized runtime: the driver, the storage
// lock it shares with every worker, and one materialization target per
// projected column, in projection order.
type ScanState struct {
	Driver  *scan.Driver
	Lock    *storage.Lock
	NumRows int64
	Targets []scan.ColumnTarget

	file storage.File
}

// resolver adapts one scan's projection list into the predicate
// claimer's ColumnResolver contract.
type resolver struct {
	bind      *BindRecord
	projected []int // projected[i] is the bind column index of the i-th projected column
}

func (r resolver) ResolveRSEColumn(projectedIndex int) (int, bool) {
	if projectedIndex < 0 || projectedIndex >= len(r.projected) {
		return 0, false
	}
	specIdx := r.projected[projectedIndex]
	return specIdx, r.bind.Columns[specIdx].Kind == column.RSE
}

// Init opens handles for exactly the projected columns — unscanned
// columns are never opened, the projection pushdown spec.md §4.2 calls
// for — claims pushdown filters against RSE columns, plans the row-range
// list, and builds the driver and every cacheable column's prefetch
// cache over that plan.
func Init(bind *BindRecord, lock *storage.Lock, projected []int, filters []predicate.Expr, vectorSize int64) (*ScanState, error) {
	guard := lock.Acquire()
	file, err := bind.library.Open(bind.FilePath, guard)
	if err != nil {
		guard.Release()
		return nil, enginefault.Wrap(enginefault.OpenFailure, err, "open %s", bind.FilePath)
	}

	claims := predicate.ClaimAll(filters, resolver{bind: bind, projected: projected})

	rseStates := make(map[int]*column.RSEState)
	targets := make([]scan.ColumnTarget, len(projected))

	for i, specIdx := range projected {
		spec := &bind.Columns[specIdx]
		switch spec.Kind {
		case column.Regular:
			ds, err := file.OpenDataset(spec.DatasetPath)
			if err != nil {
				closeOpened(targets[:i], file, guard)
				return nil, enginefault.Wrap(enginefault.OpenFailure, err, "open dataset %s", spec.DatasetPath)
			}
			targets[i] = scan.ColumnTarget{Spec: spec, Regular: &column.RegularState{Dataset: ds, Dataspace: ds.Dataspace()}}
		case column.RSE:
			state, err := loadRSEState(file, spec, bind.NumRows)
			if err != nil {
				closeOpened(targets[:i], file, guard)
				return nil, err
			}
			rseStates[specIdx] = state
			targets[i] = scan.ColumnTarget{Spec: spec, RSE: state}
		}
	}
	guard.Release()

	planRanges, err := rangeplan.Plan(bind.NumRows, rseStates, claims)
	if err != nil {
		return nil, enginefault.Wrap(enginefault.UnsupportedType, err, "plan row ranges")
	}
	ranges := toScanRanges(planRanges)

	driver := scan.NewDriver(bind.NumRows, ranges, vectorSize)

	for i := range targets {
		if targets[i].Spec.Kind == column.Regular && targets[i].Spec.Cacheable() {
			targets[i].Cache = scan.NewPrefetchCache(targets[i].Regular.Dataset, lock, bind.NumRows, ranges)
		}
	}

	return &ScanState{Driver: driver, Lock: lock, NumRows: bind.NumRows, Targets: targets, file: file}, nil
}

// closeOpened releases every handle opened so far in Init's loop, then
// the file itself, before the guard is released. Called only on the
// error paths partway through the projection loop.
func closeOpened(done []scan.ColumnTarget, file storage.File, guard *storage.Guard) {
	for _, t := range done {
		if t.Regular != nil {
			t.Regular.Dataset.Close()
		}
	}
	file.Close()
	guard.Release()
}

func loadRSEState(file storage.File, spec *column.Spec, numRows int64) (*column.RSEState, error) {
	rsDs, err := file.OpenDataset(spec.RunStartsPath)
	if err != nil {
		return nil, enginefault.Wrap(enginefault.OpenFailure, err, "open run_starts dataset %s", spec.RunStartsPath)
	}
	defer rsDs.Close()
	valDs, err := file.OpenDataset(spec.ValuesPath)
	if err != nil {
		return nil, enginefault.Wrap(enginefault.OpenFailure, err, "open values dataset %s", spec.ValuesPath)
	}
	defer valDs.Close()

	runStarts, err := readFullInt64(rsDs)
	if err != nil {
		return nil, enginefault.Wrap(enginefault.StorageFailure, err, "read run_starts for %s", spec.Name)
	}
	values, err := readFullTyped(valDs)
	if err != nil {
		return nil, enginefault.Wrap(enginefault.StorageFailure, err, "read values for %s", spec.Name)
	}

	state := &column.RSEState{RunStarts: runStarts, Values: values}
	if err := state.Validate(valuesLen(values), numRows); err != nil {
		return nil, err
	}
	return state, nil
}

func toScanRanges(rs []rangeplan.Range) []scan.Range {
	out := make([]scan.Range, len(rs))
	for i, r := range rs {
		out[i] = scan.Range{Start: r.Start, End: r.End}
	}
	return out
}

// Close releases every handle this scan opened, including the file
// itself. Safe to call once after a scan completes or fails.
func (s *ScanState) Close() error {
	guard := s.Lock.Acquire()
	defer guard.Release()
	for _, t := range s.Targets {
		if t.Regular != nil {
			t.Regular.Dataset.Close()
		}
	}
	return s.file.Close()
}
