package h5read

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/vantauri/h5table/enginetest"
	"github.com/vantauri/h5table/predicate"
	"github.com/vantauri/h5table/scan"
	"github.com/vantauri/h5table/storage"
	"github.com/vantauri/h5table/storage/diskds"
	"github.com/vantauri/h5table/vector"
)

func buildFixture(t *testing.T) (storage.Library, *storage.Lock, string) {
	t.Helper()
	xValues := make([]int64, 10)
	for i := range xValues {
		xValues[i] = int64(i)
	}
	runStarts := []int32{0, 3, 6}
	catValues := []int64{100, 200, 300}

	return enginetest.BuildFile(t, func(b *diskds.Builder) {
		if err := b.Dataset("/x", storage.Int64, []uint64{10}, 0, enginetest.RawBytes(xValues)); err != nil {
			t.Fatalf("Dataset(/x) error = %v", err)
		}
		if err := b.Dataset("/cat_runs", storage.Int32, []uint64{3}, 0, enginetest.RawBytes(runStarts)); err != nil {
			t.Fatalf("Dataset(/cat_runs) error = %v", err)
		}
		if err := b.Dataset("/cat_values", storage.Int64, []uint64{3}, 0, enginetest.RawBytes(catValues)); err != nil {
			t.Fatalf("Dataset(/cat_values) error = %v", err)
		}
	})
}

func TestBindComputesRowCountAndColumnSpecs(t *testing.T) {
	lib, lock, path := buildFixture(t)
	bind, err := Bind(lib, lock, path, []ColumnArg{{Path: "/x"}, RSE("/cat_runs", "/cat_values")})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if bind.NumRows != 10 {
		t.Errorf("NumRows = %d, want 10", bind.NumRows)
	}
	if bind.Cardinality() != 10 {
		t.Errorf("Cardinality() = %d, want 10", bind.Cardinality())
	}
	if len(bind.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(bind.Columns))
	}
	if bind.Columns[1].Name != "cat_values" {
		t.Errorf("rse column name = %q, want %q", bind.Columns[1].Name, "cat_values")
	}
}

func TestBindRejectsAllRSEArguments(t *testing.T) {
	lib, lock, path := buildFixture(t)
	_, err := Bind(lib, lock, path, []ColumnArg{RSE("/cat_runs", "/cat_values")})
	if err == nil {
		t.Fatal("Bind() error = nil for an argument list with no regular column, want error")
	}
}

func runFullScan(t *testing.T, bind *BindRecord, lock *storage.Lock, projected []int, filters []predicate.Expr) map[int64]scan.RowBatch {
	t.Helper()
	var mu sync.Mutex
	out := make(map[int64]scan.RowBatch)
	emit := func(b scan.RowBatch) error {
		mu.Lock()
		defer mu.Unlock()
		out[b.Position] = b
		return nil
	}
	if err := Scan(context.Background(), bind, lock, projected, filters, 4, 4, emit); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return out
}

func TestScanProjectsBothColumnsUnfiltered(t *testing.T) {
	lib, lock, path := buildFixture(t)
	bind, err := Bind(lib, lock, path, []ColumnArg{{Path: "/x"}, RSE("/cat_runs", "/cat_values")})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	batches := runFullScan(t, bind, lock, []int{0, 1}, nil)

	var positions []int64
	for pos := range batches {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	var x []int64
	var cat []int64
	for _, pos := range positions {
		b := batches[pos]
		x = append(x, b.Chunks[0].FlatData.([]int64)...)
		if b.Chunks[1].Mode == vector.Constant {
			for i := int64(0); i < b.Length; i++ {
				cat = append(cat, b.Chunks[1].ConstantValue.(int64))
			}
		} else {
			cat = append(cat, b.Chunks[1].FlatData.([]int64)...)
		}
	}

	wantX := []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if !reflect.DeepEqual(x, wantX) {
		t.Errorf("x column = %v, want %v", x, wantX)
	}
	wantCat := []int64{100, 100, 100, 200, 200, 200, 300, 300, 300, 300}
	if !reflect.DeepEqual(cat, wantCat) {
		t.Errorf("cat column = %v, want %v", cat, wantCat)
	}
}

func TestScanPushesDownEqualityFilterOnRSEColumn(t *testing.T) {
	lib, lock, path := buildFixture(t)
	bind, err := Bind(lib, lock, path, []ColumnArg{{Path: "/x"}, RSE("/cat_runs", "/cat_values")})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	filters := []predicate.Expr{
		predicate.Comparison{Op: predicate.Eq, Left: predicate.ColumnRef{Index: 1}, Right: predicate.Constant{Value: int64(200)}},
	}
	batches := runFullScan(t, bind, lock, []int{0, 1}, filters)

	var totalRows int64
	for _, b := range batches {
		totalRows += b.Length
		if b.Position < 3 || b.Position+b.Length > 6 {
			t.Errorf("batch at position %d length %d falls outside the pushed-down range [3,6)", b.Position, b.Length)
		}
	}
	if totalRows != 3 {
		t.Errorf("total scanned rows = %d, want 3 (the pushdown should prune rows outside [3,6))", totalRows)
	}
}
