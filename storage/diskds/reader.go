package diskds

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/vantauri/h5table/storage"
)

// Library opens diskds fixture files. One Library is shared by every
// scan in a process; Open and Probe must only be called while holding
// guard, matching the single reentrant lock discipline every storage
// backend in this contract is assumed to need.
type Library struct{}

func NewLibrary() *Library { return &Library{} }

func (l *Library) Open(path string, guard *storage.Guard) (storage.File, error) {
	if guard == nil {
		panic("diskds: Open called without holding the storage lock")
	}
	h, err := readHeader(path)
	if err != nil {
		return nil, err
	}
	return &file{header: h}, nil
}

func (l *Library) Probe(path string, guard *storage.Guard) bool {
	if guard == nil {
		panic("diskds: Probe called without holding the storage lock")
	}
	_, err := readHeader(path)
	return err == nil
}

type file struct {
	header fileHeader
	once   sync.Map // path -> *dataset, decompressed lazily
}

func (f *file) Close() error { return nil }

func (f *file) OpenDataset(path string) (storage.Dataset, error) {
	if cached, ok := f.once.Load(path); ok {
		return cached.(*dataset), nil
	}
	for _, rec := range f.header.Datasets {
		if rec.Path == path {
			raw, err := decompress(rec.Compressed, rec.RawLen)
			if err != nil {
				return nil, fmt.Errorf("decompress dataset %s: %w", path, err)
			}
			ds := &dataset{rec: rec, raw: raw}
			f.once.Store(path, ds)
			return ds, nil
		}
	}
	return nil, fmt.Errorf("dataset %q not found", path)
}

func (f *file) ListGroup(path string) ([]storage.ObjectInfo, error) {
	for _, g := range f.header.Groups {
		if g.Path == path {
			return g.Children, nil
		}
	}
	return nil, nil
}

func (f *file) Attributes(path string) ([]storage.Attribute, error) {
	for _, a := range f.header.Attrs {
		if a.ObjectPath == path {
			return a.Attrs, nil
		}
	}
	return nil, nil
}

type dataset struct {
	rec datasetRecord
	raw []byte
}

func (d *dataset) Close() error { return nil }

func (d *dataset) ChunkRowHint() (uint64, bool) {
	if d.rec.ChunkDim == 0 {
		return 0, false
	}
	return d.rec.ChunkDim, true
}

func (d *dataset) Datatype() storage.DataType {
	return storage.DataType{Kind: d.rec.Kind, FixedStrLen: d.rec.FixedStrLen}
}

func (d *dataset) Dataspace() storage.Dataspace {
	ds := &dataspace{dims: d.rec.Dims}
	ds.resetSelection()
	return ds
}

// rowBytes returns the byte width of one row (product of the non-row
// dimensions times element size), used to translate a row-range
// hyperslab selection into a byte range in the decompressed buffer.
func (d *dataset) rowBytes() uint64 {
	if d.rec.Kind == storage.StringFixed {
		return uint64(d.rec.FixedStrLen)
	}
	elems := uint64(1)
	for _, dim := range d.rec.Dims[1:] {
		elems *= dim
	}
	return elems * uint64(d.rec.Kind.ElementSize())
}

func (d *dataset) ReadInto(sel storage.Dataspace, out any) error {
	if d.rec.Kind.IsString() {
		return fmt.Errorf("ReadInto called on string dataset %s, use ReadStrings", d.rec.Path)
	}
	ds, ok := sel.(*dataspace)
	if !ok {
		return fmt.Errorf("foreign Dataspace implementation")
	}
	rowBytes := d.rowBytes()
	start := ds.selStart[0] * rowBytes
	length := ds.selCount[0] * rowBytes
	if start+length > uint64(len(d.raw)) {
		return fmt.Errorf("selection out of bounds for dataset %s", d.rec.Path)
	}
	src := d.raw[start : start+length]
	switch d.rec.Kind {
	case storage.Int8:
		return copyNative[int8](src, out)
	case storage.Int16:
		return copyNative[int16](src, out)
	case storage.Int32:
		return copyNative[int32](src, out)
	case storage.Int64:
		return copyNative[int64](src, out)
	case storage.Uint8:
		return copyNative[uint8](src, out)
	case storage.Uint16:
		return copyNative[uint16](src, out)
	case storage.Uint32:
		return copyNative[uint32](src, out)
	case storage.Uint64:
		return copyNative[uint64](src, out)
	case storage.Float32:
		return copyNative[float32](src, out)
	case storage.Float64:
		return copyNative[float64](src, out)
	default:
		return fmt.Errorf("unsupported element kind %s", d.rec.Kind)
	}
}

// copyNative reinterprets src as a []T and copies it into *out, the same
// zero-copy byte-to-typed-array technique this module's antecedents use
// for mapping an on-disk buffer onto a native slice without a per-element
// decode loop.
func copyNative[T any](src []byte, out any) error {
	dst, ok := out.(*[]T)
	if !ok {
		var zero T
		return fmt.Errorf("ReadInto: expected *[]%T, got %T", zero, out)
	}
	n := len(src) / int(unsafe.Sizeof(*new(T)))
	if n == 0 {
		*dst = (*dst)[:0]
		return nil
	}
	typed := unsafe.Slice((*T)(unsafe.Pointer(&src[0])), n)
	if cap(*dst) < n {
		*dst = make([]T, n)
	} else {
		*dst = (*dst)[:n]
	}
	copy(*dst, typed)
	return nil
}

func (d *dataset) ReadStrings(sel storage.Dataspace, out []string) error {
	ds, ok := sel.(*dataspace)
	if !ok {
		return fmt.Errorf("foreign Dataspace implementation")
	}
	start := ds.selStart[0]
	count := ds.selCount[0]
	switch d.rec.Kind {
	case storage.StringFixed:
		strLen := d.rec.FixedStrLen
		for i := uint64(0); i < count; i++ {
			off := (start + i) * uint64(strLen)
			raw := d.raw[off : off+uint64(strLen)]
			out[i] = truncateAtNUL(raw)
		}
		return nil
	case storage.StringVar:
		// Variable-length strings are stored as a flat stream of
		// uint32-length-prefixed entries; each call walks it to build
		// an offset index, then slices directly.
		offsets := d.varStringOffsets()
		for i := uint64(0); i < count; i++ {
			idx := start + i
			lo, hi := offsets[idx], offsets[idx+1]
			// skip the 4-byte length prefix within [lo,hi)
			out[i] = string(d.raw[lo+4 : hi])
		}
		return nil
	default:
		return fmt.Errorf("ReadStrings called on non-string dataset %s", d.rec.Path)
	}
}

func (d *dataset) varStringOffsets() []uint64 {
	n := d.rec.Dims[0]
	offsets := make([]uint64, n+1)
	var pos uint64
	for i := uint64(0); i < n; i++ {
		offsets[i] = pos
		l := uint32(d.raw[pos]) | uint32(d.raw[pos+1])<<8 | uint32(d.raw[pos+2])<<16 | uint32(d.raw[pos+3])<<24
		pos += 4 + uint64(l)
	}
	offsets[n] = pos
	return offsets
}

func truncateAtNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

type dataspace struct {
	dims     []uint64
	selStart []uint64
	selCount []uint64
}

func (d *dataspace) resetSelection() {
	d.selStart = make([]uint64, len(d.dims))
	d.selCount = append([]uint64(nil), d.dims...)
}

func (d *dataspace) Rank() int        { return len(d.dims) }
func (d *dataspace) Dims() []uint64   { return d.dims }

// SelectHyperslab restricts the row axis (dimension 0) to
// [start[0], start[0]+count[0]). The core never needs to restrict any
// other axis: row-range pushdown only ever prunes along the outermost
// dimension, and multi-dim regular columns always read whole inner
// arrays per selected row.
func (d *dataspace) SelectHyperslab(start, count []uint64) error {
	if len(start) != len(d.dims) || len(count) != len(d.dims) {
		return fmt.Errorf("hyperslab rank mismatch: dataspace rank %d", len(d.dims))
	}
	for i := 1; i < len(d.dims); i++ {
		if start[i] != 0 || count[i] != d.dims[i] {
			return fmt.Errorf("hyperslab selection on non-row dimension %d is not supported", i)
		}
	}
	if start[0]+count[0] > d.dims[0] {
		return fmt.Errorf("hyperslab row range [%d,%d) exceeds dataset extent %d", start[0], start[0]+count[0], d.dims[0])
	}
	d.selStart = append([]uint64(nil), start...)
	d.selCount = append([]uint64(nil), count...)
	return nil
}
