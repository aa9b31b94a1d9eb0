// Package h5tree implements the tree-listing table function: given a
// file and an optional root group, it walks the group hierarchy
// breadth-first and returns one row per group or dataset encountered,
// the same shape the original tool's tree-dump mode produced.
package h5tree

import (
	"github.com/vantauri/h5table/enginefault"
	"github.com/vantauri/h5table/storage"
)

// Row is one entry in the walked tree.
type Row struct {
	Path  string
	Name  string
	Kind  string // "group" or "dataset"
	Shape []uint64
	DType string
}

// BindRecord is h5tree's bind-time output: just enough to confirm the
// file opens at all before the scan proper walks it.
type BindRecord struct {
	FilePath string

	library storage.Library
}

// Bind opens filePath to confirm it exists and is readable, mirroring
// read()'s Bind (h5read/bind.go) but without any column resolution.
func Bind(lib storage.Library, lock *storage.Lock, filePath string) (*BindRecord, error) {
	guard := lock.Acquire()
	defer guard.Release()
	if _, err := lib.Open(filePath, guard); err != nil {
		return nil, enginefault.Wrap(enginefault.OpenFailure, err, "open %s", filePath)
	}
	return &BindRecord{FilePath: filePath, library: lib}, nil
}

// List walks the group tree breadth-first from root ("/" if empty),
// returning one Row per child encountered at every level. Datasets are
// leaves; groups are enqueued for further listing.
func List(bind *BindRecord, lock *storage.Lock, root string) ([]Row, error) {
	if root == "" {
		root = "/"
	}

	guard := lock.Acquire()
	defer guard.Release()

	file, err := bind.library.Open(bind.FilePath, guard)
	if err != nil {
		return nil, enginefault.Wrap(enginefault.OpenFailure, err, "open %s", bind.FilePath)
	}

	var rows []Row
	queue := []string{root}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		children, err := file.ListGroup(path)
		if err != nil {
			return nil, enginefault.Wrap(enginefault.StorageFailure, err, "list group %s", path)
		}
		for _, c := range children {
			kind := "dataset"
			if c.IsGroup {
				kind = "group"
				queue = append(queue, c.Path)
			}
			rows = append(rows, Row{Path: c.Path, Name: c.Name, Kind: kind, Shape: c.Shape, DType: c.DType})
		}
	}
	return rows, nil
}
