package h5tree

import (
	"testing"

	"github.com/vantauri/h5table/enginetest"
	"github.com/vantauri/h5table/storage"
	"github.com/vantauri/h5table/storage/diskds"
)

func TestListWalksGroupsAndDatasets(t *testing.T) {
	lib, lock, path := enginetest.BuildFile(t, func(b *diskds.Builder) {
		b.Dataset("/a/ints", storage.Int64, []uint64{3}, 0, enginetest.RawBytes([]int64{1, 2, 3}))
		b.Dataset("/a/b/floats", storage.Float64, []uint64{2}, 0, enginetest.RawBytes([]float64{1.5, 2.5}))
	})

	bind, err := Bind(lib, lock, path)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	rows, err := List(bind, lock, "/a")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var sawInts, sawGroupB bool
	for _, r := range rows {
		switch r.Path {
		case "/a/ints":
			sawInts = true
			if r.Kind != "dataset" {
				t.Errorf("/a/ints kind = %q, want dataset", r.Kind)
			}
		case "/a/b":
			sawGroupB = true
			if r.Kind != "group" {
				t.Errorf("/a/b kind = %q, want group", r.Kind)
			}
		}
	}
	if !sawInts || !sawGroupB {
		t.Errorf("List() = %+v, want entries for /a/ints and /a/b", rows)
	}
}

func TestBindFailsOnMissingFile(t *testing.T) {
	lib := diskds.NewLibrary()
	lock := storage.NewLock()
	if _, err := Bind(lib, lock, "/nonexistent/path.h5"); err == nil {
		t.Error("Bind() error = nil for a missing file, want error")
	}
}
