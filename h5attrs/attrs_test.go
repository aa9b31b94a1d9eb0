package h5attrs

import (
	"testing"

	"github.com/vantauri/h5table/enginetest"
	"github.com/vantauri/h5table/storage"
	"github.com/vantauri/h5table/storage/diskds"
)

func TestReadReturnsAttributes(t *testing.T) {
	lib, lock, path := enginetest.BuildFile(t, func(b *diskds.Builder) {
		b.Dataset("/ints", storage.Int64, []uint64{3}, 0, enginetest.RawBytes([]int64{1, 2, 3}))
		b.Attr("/ints", "units", "seconds")
		b.Attr("/ints", "scale", int64(10))
	})

	bind, err := Bind(lib, lock, path, "/ints")
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	rows, err := Read(bind, lock)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Name != "units" || rows[0].Value != "seconds" {
		t.Errorf("rows[0] = %+v, want {units seconds}", rows[0])
	}
	if rows[1].Name != "scale" || rows[1].Value != int64(10) {
		t.Errorf("rows[1] = %+v, want {scale 10}", rows[1])
	}
}

func TestBindSucceedsWithNoAttributes(t *testing.T) {
	lib, lock, path := enginetest.BuildFile(t, func(b *diskds.Builder) {
		b.Dataset("/ints", storage.Int64, []uint64{1}, 0, enginetest.RawBytes([]int64{1}))
	})
	if _, err := Bind(lib, lock, path, "/ints"); err != nil {
		t.Fatalf("Bind() error = %v, want nil (an object with no attributes is not an error)", err)
	}
}
