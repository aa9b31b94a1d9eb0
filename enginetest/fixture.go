// Package enginetest provides the fixture-building helpers that the
// scan, h5read, h5tree and h5attrs tests share: a diskds-backed
// storage.File built in memory and written to a temp directory, so those
// tests exercise the real storage contract instead of a hand-rolled mock.
package enginetest

import (
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/vantauri/h5table/storage"
	"github.com/vantauri/h5table/storage/diskds"
)

// BuildFile assembles a diskds fixture via build, writes it to a temp
// file, and returns a Library/Lock pair ready to Open it.
func BuildFile(t *testing.T, build func(b *diskds.Builder)) (storage.Library, *storage.Lock, string) {
	t.Helper()
	b := diskds.NewBuilder()
	build(b)
	path := filepath.Join(t.TempDir(), "fixture.h5")
	if err := b.Create(path); err != nil {
		t.Fatalf("enginetest: create fixture: %v", err)
	}
	return diskds.NewLibrary(), storage.NewLock(), path
}

// Open is the common open-under-lock dance every test needs to get at
// a storage.File.
func Open(t *testing.T, lib storage.Library, lock *storage.Lock, path string) storage.File {
	t.Helper()
	guard := lock.Acquire()
	defer guard.Release()
	f, err := lib.Open(path, guard)
	if err != nil {
		t.Fatalf("enginetest: open %s: %v", path, err)
	}
	return f
}

// RawBytes reinterprets a typed slice as its row-major byte
// representation, the layout diskds.Builder.Dataset expects, using the
// same zero-copy technique the storage backend itself reads it back
// with.
func RawBytes[T any](values []T) []byte {
	if len(values) == 0 {
		return nil
	}
	n := len(values) * int(unsafe.Sizeof(values[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), n)
}
