package h5read

import (
	"context"

	"github.com/vantauri/h5table/predicate"
	"github.com/vantauri/h5table/scan"
	"github.com/vantauri/h5table/storage"
)

// Cardinality reports read()'s exact row count (spec.md §4.2): unlike a
// row-estimate-based table function, read() never has to guess, since
// NumRows is already exact by the time bind finishes.
func (b *BindRecord) Cardinality() int64 { return b.NumRows }

// Scan drives one complete scan to completion: Init, then the worker
// pool, then Close. projected is a list of indices into bind.Columns,
// one per column the host actually wants materialized; filters is the
// host's filter list for predicate claiming. emit is called once per
// completed row batch, possibly out of row order and from any worker
// goroutine.
func Scan(ctx context.Context, bind *BindRecord, lock *storage.Lock, projected []int, filters []predicate.Expr, vectorSize int64, workers int, emit func(scan.RowBatch) error) error {
	state, err := Init(bind, lock, projected, filters, vectorSize)
	if err != nil {
		return err
	}
	defer state.Close()

	return scan.RunWorkers(ctx, state.Driver, state.Lock, state.NumRows, state.Targets, workers, emit)
}
