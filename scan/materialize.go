package scan

import (
	"github.com/vantauri/h5table/column"
	"github.com/vantauri/h5table/enginefault"
	"github.com/vantauri/h5table/storage"
	"github.com/vantauri/h5table/vector"
)

// MaterializeRegular fills one output chunk for a Regular column,
// choosing among the cached, direct, multi-dim, and string paths per
// spec.md §4.7. cache is nil for non-cacheable columns.
func MaterializeRegular(spec *column.Spec, state *column.RegularState, cache *PrefetchCache, lock *storage.Lock, positionDone func() int64, start, length int64) (vector.Chunk, error) {
	if cache != nil && spec.Cacheable() {
		return materializeCached(spec, cache, lock, positionDone, start, length)
	}
	return materializeDirect(spec, state, lock, start, length)
}

func materializeCached(spec *column.Spec, cache *PrefetchCache, lock *storage.Lock, positionDone func() int64, start, length int64) (vector.Chunk, error) {
	out := MakeFlatOutput(spec.LogicalElementKind(), length)
	acquire := func() *storage.Guard { return lock.Acquire() }
	if err := cache.Read(acquire, positionDone, start, length, out); err != nil {
		return vector.Chunk{}, enginefault.Wrap(enginefault.StorageFailure, err, "prefetch cache read for column %s", spec.Name)
	}
	return vector.Chunk{Mode: vector.Flat, Kind: spec.LogicalElementKind(), FlatData: out}, nil
}

// materializeDirect is the uncached/string/multi-dim path: the
// hyperslab select and the read are one critical section under the
// storage lock, the narrowest scope spec.md §5 allows.
func materializeDirect(spec *column.Spec, state *column.RegularState, lock *storage.Lock, start, length int64) (vector.Chunk, error) {
	guard := lock.Acquire()
	defer guard.Release()

	sel := state.Dataspace
	rank := sel.Rank()
	selStart := make([]uint64, rank)
	selCount := make([]uint64, rank)
	selStart[0] = uint64(start)
	selCount[0] = uint64(length)
	dims := sel.Dims()
	for i := 1; i < rank; i++ {
		selCount[i] = dims[i]
	}
	if err := sel.SelectHyperslab(selStart, selCount); err != nil {
		return vector.Chunk{}, enginefault.Wrap(enginefault.StorageFailure, err, "hyperslab select for column %s", spec.Name)
	}

	kind := spec.LogicalElementKind()
	if kind.IsString() {
		strs := make([]string, length)
		if err := state.Dataset.ReadStrings(sel, strs); err != nil {
			return vector.Chunk{}, enginefault.Wrap(enginefault.StorageFailure, err, "string read for column %s", spec.Name)
		}
		return vector.Chunk{Mode: vector.Flat, Kind: kind, Strings: strs}, nil
	}

	elemCount := length * int64(spec.RowElemCount)
	out, err := readFlatInto(state.Dataset, sel, kind, elemCount)
	if err != nil {
		return vector.Chunk{}, enginefault.Wrap(enginefault.StorageFailure, err, "read for column %s", spec.Name)
	}
	return vector.Chunk{Mode: vector.Flat, Kind: kind, FlatData: out}, nil
}

// MaterializeRSE fills one output chunk for an RSE column. Every lookup
// binary-searches run_starts; there is no mutable cursor, so this
// function is safe to call concurrently from multiple worker goroutines
// against the same *column.RSEState (spec.md §4.7).
func MaterializeRSE(spec *column.Spec, state *column.RSEState, numRows int64, start, length int64) (vector.Chunk, error) {
	end := start + length
	runIdx := state.RunIndexForRow(start)
	_, runEnd := state.RunBounds(runIdx, numRows)

	if end <= runEnd {
		return constantChunk(spec, state.Values, runIdx)
	}
	return flatRSEChunk(spec, state, numRows, start, length, runIdx)
}

func constantChunk(spec *column.Spec, values any, idx int) (vector.Chunk, error) {
	kind := spec.LogicalElementKind()
	if kind.IsString() {
		s, err := stringValueAt(values, idx)
		if err != nil {
			return vector.Chunk{}, enginefault.Wrap(enginefault.InvariantViolation, err, "rse constant value for column %s", spec.Name)
		}
		return vector.Chunk{Mode: vector.Constant, Kind: kind, Strings: []string{s}}, nil
	}
	v, err := elementAt(values, idx)
	if err != nil {
		return vector.Chunk{}, enginefault.Wrap(enginefault.InvariantViolation, err, "rse constant value for column %s", spec.Name)
	}
	return vector.Chunk{Mode: vector.Constant, Kind: kind, ConstantValue: v}, nil
}

func flatRSEChunk(spec *column.Spec, state *column.RSEState, numRows, start, length int64, startRunIdx int) (vector.Chunk, error) {
	kind := spec.LogicalElementKind()
	end := start + length
	runIdx := startRunIdx
	row := start

	if kind.IsString() {
		strs := make([]string, length)
		for row < end {
			_, runEnd := state.RunBounds(runIdx, numRows)
			segEnd := min64(runEnd, end)
			s, err := stringValueAt(state.Values, runIdx)
			if err != nil {
				return vector.Chunk{}, enginefault.Wrap(enginefault.InvariantViolation, err, "rse value for column %s", spec.Name)
			}
			for r := row; r < segEnd; r++ {
				strs[r-start] = s
			}
			row = segEnd
			runIdx++
		}
		return vector.Chunk{Mode: vector.Flat, Kind: kind, Strings: strs}, nil
	}

	out := MakeFlatOutput(kind, length)
	for row < end {
		_, runEnd := state.RunBounds(runIdx, numRows)
		segEnd := min64(runEnd, end)
		if err := fillConstantRun(out, row-start, segEnd-row, state.Values, runIdx); err != nil {
			return vector.Chunk{}, enginefault.Wrap(enginefault.InvariantViolation, err, "rse value for column %s", spec.Name)
		}
		row = segEnd
		runIdx++
	}
	return vector.Chunk{Mode: vector.Flat, Kind: kind, FlatData: out}, nil
}
