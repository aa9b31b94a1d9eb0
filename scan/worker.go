package scan

import (
	"context"
	"log/slog"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/vantauri/h5table/column"
	"github.com/vantauri/h5table/storage"
	"github.com/vantauri/h5table/vector"
)

// ColumnTarget binds one projected column's spec and runtime state into
// the worker pool, ready to be materialized slice by slice.
type ColumnTarget struct {
	Spec    *column.Spec
	Regular *column.RegularState
	RSE     *column.RSEState
	Cache   *PrefetchCache
}

// RowBatch is one slice's worth of materialized output, one chunk per
// projected column in the same order as the ColumnTarget slice passed to
// RunWorkers.
type RowBatch struct {
	Position int64
	Length   int64
	Chunks   []vector.Chunk
}

// RunWorkers pulls slices from driver and materializes every projected
// column for each one, bounded to `workers` concurrent slices in flight
// at once — "use all available threads" (spec.md §5) made concrete as an
// errgroup with SetLimit, the same shape this module's worker pool
// predecessor used for bounded parallel block processing. emit is called
// once per completed slice, from whichever worker goroutine finished it;
// callers needing ordered output must do their own buffering.
func RunWorkers(ctx context.Context, driver *Driver, lock *storage.Lock, numRows int64, columns []ColumnTarget, workers int, emit func(RowBatch) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	slog.Info("scan started", "workers", workers, "num_rows", numRows)
	defer slog.Info("scan finished")

	for ctx.Err() == nil {
		slice, ok := driver.NextSlice()
		if !ok {
			break
		}
		g.Go(func() error {
			batch, err := materializeBatch(lock, numRows, columns, driver.PositionDone, slice)
			if err != nil {
				color.Red("scan worker failed at row %d: %s", slice.Position, err)
				return err
			}
			driver.Complete(slice.Position, slice.Length)
			return emit(batch)
		})
	}

	return g.Wait()
}

func materializeBatch(lock *storage.Lock, numRows int64, columns []ColumnTarget, positionDone func() int64, slice Slice) (RowBatch, error) {
	batch := RowBatch{Position: slice.Position, Length: slice.Length, Chunks: make([]vector.Chunk, len(columns))}
	for i, col := range columns {
		var chunk vector.Chunk
		var err error
		switch col.Spec.Kind {
		case column.Regular:
			chunk, err = MaterializeRegular(col.Spec, col.Regular, col.Cache, lock, positionDone, slice.Position, slice.Length)
		case column.RSE:
			chunk, err = MaterializeRSE(col.Spec, col.RSE, numRows, slice.Position, slice.Length)
		}
		if err != nil {
			return RowBatch{}, err
		}
		batch.Chunks[i] = chunk
	}
	return batch, nil
}
