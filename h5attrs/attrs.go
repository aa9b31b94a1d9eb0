// Package h5attrs implements the attribute-reader table function:
// given a file and an object path, it returns one row per attribute
// attached to that group or dataset. Only scalar and 1-D array
// attributes are supported (storage.Attribute carries no rank
// information beyond what its Value's Go type already implies).
package h5attrs

import (
	"github.com/vantauri/h5table/enginefault"
	"github.com/vantauri/h5table/storage"
)

// Row is one attribute value.
type Row struct {
	ObjectPath string
	Name       string
	Value      any
}

// BindRecord is h5attrs's bind-time output.
type BindRecord struct {
	FilePath   string
	ObjectPath string

	library storage.Library
}

// Bind opens filePath and asks the storage backend for objectPath's
// attributes. A missing file, or an Attributes error, fails the bind; an
// empty result does not. The diskds backend reports no error for an
// object path it does not contain, so such a path binds successfully
// and reads as zero rows.
func Bind(lib storage.Library, lock *storage.Lock, filePath, objectPath string) (*BindRecord, error) {
	guard := lock.Acquire()
	defer guard.Release()

	file, err := lib.Open(filePath, guard)
	if err != nil {
		return nil, enginefault.Wrap(enginefault.OpenFailure, err, "open %s", filePath)
	}
	if _, err := file.Attributes(objectPath); err != nil {
		return nil, enginefault.Wrap(enginefault.OpenFailure, err, "read attributes of %s", objectPath)
	}
	return &BindRecord{FilePath: filePath, ObjectPath: objectPath, library: lib}, nil
}

// Read returns every attribute attached to bind.ObjectPath.
func Read(bind *BindRecord, lock *storage.Lock) ([]Row, error) {
	guard := lock.Acquire()
	defer guard.Release()

	file, err := bind.library.Open(bind.FilePath, guard)
	if err != nil {
		return nil, enginefault.Wrap(enginefault.OpenFailure, err, "open %s", bind.FilePath)
	}
	attrs, err := file.Attributes(bind.ObjectPath)
	if err != nil {
		return nil, enginefault.Wrap(enginefault.StorageFailure, err, "read attributes of %s", bind.ObjectPath)
	}

	rows := make([]Row, len(attrs))
	for i, a := range attrs {
		rows[i] = Row{ObjectPath: bind.ObjectPath, Name: a.Name, Value: a.Value}
	}
	return rows, nil
}
