// Package h5read implements the read() table function (spec.md §4.2,
// §6): argument parsing into column specs (the Binder), the rse()
// struct-literal helper, and wiring the rest of the core — predicate
// claiming, range planning, the scan driver, the prefetch cache, and
// materialization — into one scan lifecycle.
package h5read

import (
	"strings"

	"github.com/google/uuid"

	"github.com/vantauri/h5table/column"
	"github.com/vantauri/h5table/enginefault"
	"github.com/vantauri/h5table/storage"
)

// ColumnArg is one argument to read(): either a plain dataset path
// (Regular) or an RSE struct built by RSE().
type ColumnArg struct {
	Path string
	RSE  *RSEArg
}

// RSEArg is the struct rse() packs: {encoding, run_starts_path,
// values_path}, encoding fixed at "rse".
type RSEArg struct {
	Encoding      string
	RunStartsPath string
	ValuesPath    string
}

// RSE is the scalar helper from spec.md §6: a pure value constructor.
// It is small but load-bearing for read()'s argument parsing, so it
// lives in the core package rather than a separate trivial one.
func RSE(runStartsPath, valuesPath string) ColumnArg {
	return ColumnArg{RSE: &RSEArg{Encoding: "rse", RunStartsPath: runStartsPath, ValuesPath: valuesPath}}
}

// BindRecord is read()'s bind-time output: the file path, every
// column's spec, and the table's exact row count (spec.md §3). Handle
// identifies this bind uniquely across concurrent scans of the same or
// different files, for logging; it is not part of the Binder's dedup key
// (that key is built from the file path and column arguments) and has
// no relationship to the file's own contents.
type BindRecord struct {
	FilePath string
	Columns  []column.Spec
	NumRows  int64
	Handle   uuid.UUID

	library storage.Library
}

// Bind opens filePath read-only, resolves every column argument into a
// column.Spec, and computes NumRows as the minimum first dimension
// across all Regular columns (spec.md §4.2). Datasets opened here are
// closed before their column is resolved; the bind record keeps no
// storage handles, and a scan's Init opens its own against the same file.
func Bind(lib storage.Library, lock *storage.Lock, filePath string, args []ColumnArg) (*BindRecord, error) {
	if len(args) == 0 {
		return nil, enginefault.New(enginefault.DomainError, "read() requires at least one column argument")
	}

	guard := lock.Acquire()
	defer guard.Release()

	file, err := lib.Open(filePath, guard)
	if err != nil {
		return nil, enginefault.Wrap(enginefault.OpenFailure, err, "open %s", filePath)
	}

	var specs []column.Spec
	numRegular := 0
	minFirstDim := int64(-1)

	for _, a := range args {
		if a.RSE != nil {
			spec, err := bindRSEColumn(file, *a.RSE)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
			continue
		}

		spec, firstDim, err := bindRegularColumn(file, a.Path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
		numRegular++
		if minFirstDim < 0 || firstDim < minFirstDim {
			minFirstDim = firstDim
		}
	}

	if numRegular == 0 {
		return nil, enginefault.New(enginefault.DomainError, "read() requires at least one regular column")
	}

	return &BindRecord{FilePath: filePath, Columns: specs, NumRows: minFirstDim, Handle: uuid.New(), library: lib}, nil
}

func bindRegularColumn(file storage.File, path string) (column.Spec, int64, error) {
	ds, err := file.OpenDataset(path)
	if err != nil {
		return column.Spec{}, 0, enginefault.Wrap(enginefault.OpenFailure, err, "open dataset %s", path)
	}
	defer ds.Close()

	dtype := ds.Datatype()
	sp := ds.Dataspace()
	rank := sp.Rank()
	if err := column.ValidateRank(rank); err != nil {
		return column.Spec{}, 0, err
	}
	dims := sp.Dims()

	rowElems := int64(1)
	for _, d := range dims[1:] {
		rowElems *= int64(d)
	}
	elemSize := 0
	if !dtype.Kind.IsString() {
		elemSize = dtype.Kind.ElementSize()
	}

	spec := column.Spec{
		Kind:         column.Regular,
		Name:         basename(path),
		DatasetPath:  path,
		ElementType:  dtype,
		Rank:         rank,
		Dims:         dims,
		ElementSize:  elemSize,
		RowElemCount: int(rowElems),
	}
	return spec, int64(dims[0]), nil
}

func bindRSEColumn(file storage.File, arg RSEArg) (column.Spec, error) {
	if arg.Encoding != "rse" {
		return column.Spec{}, enginefault.New(enginefault.DomainError, "unknown column encoding %q", arg.Encoding)
	}

	rsDs, err := file.OpenDataset(arg.RunStartsPath)
	if err != nil {
		return column.Spec{}, enginefault.Wrap(enginefault.OpenFailure, err, "open run_starts dataset %s", arg.RunStartsPath)
	}
	defer rsDs.Close()
	valDs, err := file.OpenDataset(arg.ValuesPath)
	if err != nil {
		return column.Spec{}, enginefault.Wrap(enginefault.OpenFailure, err, "open values dataset %s", arg.ValuesPath)
	}
	defer valDs.Close()

	rsType := rsDs.Datatype()
	if !rsType.Kind.IsInteger() {
		return column.Spec{}, enginefault.New(enginefault.UnsupportedType, "run_starts dataset %s must be an integer type", arg.RunStartsPath)
	}
	if rsDs.Dataspace().Rank() != 1 || valDs.Dataspace().Rank() != 1 {
		return column.Spec{}, enginefault.New(enginefault.UnsupportedType, "rse columns must be 1-D (non-1D RSE runs are not supported)")
	}

	valType := valDs.Datatype()
	return column.Spec{
		Kind:          column.RSE,
		Name:          basename(arg.ValuesPath),
		RunStartsPath: arg.RunStartsPath,
		ValuesPath:    arg.ValuesPath,
		RunStartsType: rsType,
		ValuesType:    valType,
	}, nil
}

// basename returns the last "/"-segment of a dataset path, or "data"
// if that segment is empty (spec.md §6).
func basename(path string) string {
	idx := strings.LastIndex(path, "/")
	name := path
	if idx >= 0 {
		name = path[idx+1:]
	}
	if name == "" {
		return "data"
	}
	return name
}
