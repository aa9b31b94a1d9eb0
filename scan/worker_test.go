package scan

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/vantauri/h5table/column"
	"github.com/vantauri/h5table/enginetest"
	"github.com/vantauri/h5table/storage"
	"github.com/vantauri/h5table/storage/diskds"
)

func runScan(t *testing.T, workers int) []int64 {
	t.Helper()

	values := make([]int64, 30)
	for i := range values {
		values[i] = int64(i)
	}
	lib, lock, path := enginetest.BuildFile(t, func(b *diskds.Builder) {
		b.Dataset("/data", storage.Int64, []uint64{30}, 0, enginetest.RawBytes(values))
	})
	file := enginetest.Open(t, lib, lock, path)
	ds, err := file.OpenDataset("/data")
	if err != nil {
		t.Fatalf("OpenDataset() error = %v", err)
	}

	spec := &column.Spec{Kind: column.Regular, ElementType: storage.DataType{Kind: storage.Int64}, Rank: 1, RowElemCount: 1}
	state := &column.RegularState{Dataset: ds, Dataspace: ds.Dataspace()}
	targets := []ColumnTarget{{Spec: spec, Regular: state}}

	driver := NewDriver(30, []Range{{Start: 0, End: 30}}, 4)

	var mu sync.Mutex
	batches := make([]RowBatch, 0)
	emit := func(b RowBatch) error {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, b)
		return nil
	}

	if err := RunWorkers(context.Background(), driver, lock, 30, targets, workers, emit); err != nil {
		t.Fatalf("RunWorkers() error = %v", err)
	}

	sort.Slice(batches, func(i, j int) bool { return batches[i].Position < batches[j].Position })
	var out []int64
	for _, b := range batches {
		out = append(out, b.Chunks[0].FlatData.([]int64)...)
	}
	return out
}

func TestRunWorkersDeterministicAcrossWorkerCounts(t *testing.T) {
	want := make([]int64, 30)
	for i := range want {
		want[i] = int64(i)
	}

	for _, workers := range []int{1, 8} {
		got := runScan(t, workers)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("workers=%d: got %v, want %v", workers, got, want)
		}
	}
}
