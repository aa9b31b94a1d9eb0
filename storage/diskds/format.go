// Package diskds is the one concrete backend implementing the storage
// contract. It stands in for a real HDF5 C library binding: datasets are
// stored LZ4-compressed in a flat file, decompressed whole on open, and
// served through the same handle/hyperslab/typed-read shape a cgo HDF5
// binding would expose. It exists so the rest of this module has
// something real to open, scan, and break in tests, without requiring a
// cgo dependency this corpus never carries.
//
// The on-disk envelope (dataset list, group tree, attributes) is a gob
// stream; payload bytes are LZ4 frames. Nothing about this format is
// part of the engine's contract — it is private to this package and
// replaceable by any future real HDF5 binding without touching callers.
package diskds

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/vantauri/h5table/storage"
)

func init() {
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(string(""))
	gob.Register([]int64(nil))
	gob.Register([]float64(nil))
	gob.Register([]string(nil))
}

type datasetRecord struct {
	Path        string
	Kind        storage.ElementKind
	FixedStrLen int
	Dims        []uint64
	ChunkDim    uint64
	Compressed  []byte
	RawLen      int
}

type groupRecord struct {
	Path     string
	Children []storage.ObjectInfo
}

type attrRecord struct {
	ObjectPath string
	Attrs      []storage.Attribute
}

type fileHeader struct {
	Datasets []datasetRecord
	Groups   []groupRecord
	Attrs    []attrRecord
}

func compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte, rawLen int) ([]byte, error) {
	out := make([]byte, rawLen)
	r := lz4.NewReader(bytes.NewReader(compressed))
	n, err := r.Read(out)
	for n < rawLen && err == nil {
		var m int
		m, err = r.Read(out[n:])
		n += m
	}
	if n < rawLen && err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return out, nil
}

func writeHeader(path string, h fileHeader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(h)
}

func readHeader(path string) (fileHeader, error) {
	var h fileHeader
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	adviseSequential(f)
	if err := gob.NewDecoder(f).Decode(&h); err != nil {
		return h, err
	}
	return h, nil
}
