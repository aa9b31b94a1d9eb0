package diskds

import (
	"path/filepath"
	"reflect"
	"testing"
	"unsafe"

	"github.com/vantauri/h5table/storage"
)

func rawBytes[T any](values []T) []byte {
	if len(values) == 0 {
		return nil
	}
	n := len(values) * int(unsafe.Sizeof(values[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), n)
}

func openFixture(t *testing.T, build func(b *Builder)) storage.File {
	t.Helper()
	b := NewBuilder()
	build(b)
	path := filepath.Join(t.TempDir(), "fixture.h5")
	if err := b.Create(path); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	lib := NewLibrary()
	lock := storage.NewLock()
	guard := lock.Acquire()
	defer guard.Release()
	f, err := lib.Open(path, guard)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return f
}

func TestRoundTripInt64Dataset(t *testing.T) {
	values := []int64{1, 2, 3, 4, 5}
	file := openFixture(t, func(b *Builder) {
		if err := b.Dataset("/ints", storage.Int64, []uint64{5}, 0, rawBytes(values)); err != nil {
			t.Fatalf("Dataset() error = %v", err)
		}
	})

	ds, err := file.OpenDataset("/ints")
	if err != nil {
		t.Fatalf("OpenDataset() error = %v", err)
	}
	sel := ds.Dataspace()
	if err := sel.SelectHyperslab([]uint64{1}, []uint64{3}); err != nil {
		t.Fatalf("SelectHyperslab() error = %v", err)
	}
	var out []int64
	if err := ds.ReadInto(sel, &out); err != nil {
		t.Fatalf("ReadInto() error = %v", err)
	}
	want := []int64{2, 3, 4}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("ReadInto() = %v, want %v", out, want)
	}
}

func TestRoundTripFixedStrings(t *testing.T) {
	values := []string{"alpha", "b", "gamma"}
	file := openFixture(t, func(b *Builder) {
		if err := b.FixedStrings("/names", 3, 8, values); err != nil {
			t.Fatalf("FixedStrings() error = %v", err)
		}
	})

	ds, err := file.OpenDataset("/names")
	if err != nil {
		t.Fatalf("OpenDataset() error = %v", err)
	}
	sel := ds.Dataspace()
	if err := sel.SelectHyperslab([]uint64{0}, []uint64{3}); err != nil {
		t.Fatalf("SelectHyperslab() error = %v", err)
	}
	out := make([]string, 3)
	if err := ds.ReadStrings(sel, out); err != nil {
		t.Fatalf("ReadStrings() error = %v", err)
	}
	if !reflect.DeepEqual(out, values) {
		t.Errorf("ReadStrings() = %v, want %v", out, values)
	}
}

func TestRoundTripVarStrings(t *testing.T) {
	values := []string{"a", "bb", "ccc", ""}
	file := openFixture(t, func(b *Builder) {
		if err := b.VarStrings("/names", values); err != nil {
			t.Fatalf("VarStrings() error = %v", err)
		}
	})

	ds, err := file.OpenDataset("/names")
	if err != nil {
		t.Fatalf("OpenDataset() error = %v", err)
	}
	sel := ds.Dataspace()
	if err := sel.SelectHyperslab([]uint64{0}, []uint64{4}); err != nil {
		t.Fatalf("SelectHyperslab() error = %v", err)
	}
	out := make([]string, 4)
	if err := ds.ReadStrings(sel, out); err != nil {
		t.Fatalf("ReadStrings() error = %v", err)
	}
	if !reflect.DeepEqual(out, values) {
		t.Errorf("ReadStrings() = %v, want %v", out, values)
	}
}

func TestHyperslabOutOfBounds(t *testing.T) {
	file := openFixture(t, func(b *Builder) {
		b.Dataset("/ints", storage.Int64, []uint64{5}, 0, rawBytes([]int64{1, 2, 3, 4, 5}))
	})
	ds, _ := file.OpenDataset("/ints")
	sel := ds.Dataspace()
	if err := sel.SelectHyperslab([]uint64{3}, []uint64{5}); err == nil {
		t.Error("SelectHyperslab() error = nil for an out-of-bounds range, want error")
	}
}

func TestListGroupAndAttributes(t *testing.T) {
	file := openFixture(t, func(b *Builder) {
		b.Dataset("/group/ints", storage.Int32, []uint64{2}, 0, rawBytes([]int32{1, 2}))
		b.Attr("/group/ints", "units", "meters")
	})

	children, err := file.ListGroup("/group")
	if err != nil {
		t.Fatalf("ListGroup() error = %v", err)
	}
	if len(children) != 1 || children[0].Name != "ints" {
		t.Errorf("ListGroup() = %v, want one child named \"ints\"", children)
	}

	attrs, err := file.Attributes("/group/ints")
	if err != nil {
		t.Fatalf("Attributes() error = %v", err)
	}
	if len(attrs) != 1 || attrs[0].Name != "units" || attrs[0].Value != "meters" {
		t.Errorf("Attributes() = %v, want [{units meters}]", attrs)
	}
}

func TestDatasetChunkRowHint(t *testing.T) {
	file := openFixture(t, func(b *Builder) {
		b.Dataset("/ints", storage.Int64, []uint64{100}, 16, rawBytes(make([]int64, 100)))
	})
	ds, _ := file.OpenDataset("/ints")
	hinter, ok := ds.(storage.ChunkHinter)
	if !ok {
		t.Fatal("dataset does not implement storage.ChunkHinter")
	}
	rows, ok := hinter.ChunkRowHint()
	if !ok || rows != 16 {
		t.Errorf("ChunkRowHint() = (%d,%v), want (16,true)", rows, ok)
	}
}
