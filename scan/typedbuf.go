package scan

import (
	"fmt"

	"github.com/vantauri/h5table/storage"
)

// typedBuffer is a reusable, fixed-capacity numeric buffer behind an
// element-kind switch: one case per kind the core materializes, each
// instantiating the same handful of operations against a concrete Go
// type instead of going through reflection on every access. This is the
// "centralized element-type switch instantiating a generic callable per
// kind" design note applied to the prefetch cache's chunk storage.
type typedBuffer struct {
	kind storage.ElementKind
	ptr  any // *[]T for the concrete T matching kind
}

func newTypedBuffer(kind storage.ElementKind, n int) typedBuffer {
	switch kind {
	case storage.Int8:
		p := make([]int8, n)
		return typedBuffer{kind, &p}
	case storage.Int16:
		p := make([]int16, n)
		return typedBuffer{kind, &p}
	case storage.Int32:
		p := make([]int32, n)
		return typedBuffer{kind, &p}
	case storage.Int64:
		p := make([]int64, n)
		return typedBuffer{kind, &p}
	case storage.Uint8:
		p := make([]uint8, n)
		return typedBuffer{kind, &p}
	case storage.Uint16:
		p := make([]uint16, n)
		return typedBuffer{kind, &p}
	case storage.Uint32:
		p := make([]uint32, n)
		return typedBuffer{kind, &p}
	case storage.Uint64:
		p := make([]uint64, n)
		return typedBuffer{kind, &p}
	case storage.Float32:
		p := make([]float32, n)
		return typedBuffer{kind, &p}
	case storage.Float64:
		p := make([]float64, n)
		return typedBuffer{kind, &p}
	default:
		panic(fmt.Sprintf("scan: typed buffer requested for non-cacheable kind %s", kind))
	}
}

// readTarget returns the *[]T pointer to pass to storage.Dataset.ReadInto.
func (b typedBuffer) readTarget() any { return b.ptr }

// copyRangeInto copies n elements starting at srcOff in b into dst
// (a plain []T, not a pointer: copy() needs no indirection on the
// destination) starting at dstOff.
func (b typedBuffer) copyRangeInto(dst any, dstOff int64, srcOff, n int64) {
	switch b.kind {
	case storage.Int8:
		src := *(b.ptr.(*[]int8))
		d := dst.([]int8)
		copy(d[dstOff:dstOff+n], src[srcOff:srcOff+n])
	case storage.Int16:
		src := *(b.ptr.(*[]int16))
		d := dst.([]int16)
		copy(d[dstOff:dstOff+n], src[srcOff:srcOff+n])
	case storage.Int32:
		src := *(b.ptr.(*[]int32))
		d := dst.([]int32)
		copy(d[dstOff:dstOff+n], src[srcOff:srcOff+n])
	case storage.Int64:
		src := *(b.ptr.(*[]int64))
		d := dst.([]int64)
		copy(d[dstOff:dstOff+n], src[srcOff:srcOff+n])
	case storage.Uint8:
		src := *(b.ptr.(*[]uint8))
		d := dst.([]uint8)
		copy(d[dstOff:dstOff+n], src[srcOff:srcOff+n])
	case storage.Uint16:
		src := *(b.ptr.(*[]uint16))
		d := dst.([]uint16)
		copy(d[dstOff:dstOff+n], src[srcOff:srcOff+n])
	case storage.Uint32:
		src := *(b.ptr.(*[]uint32))
		d := dst.([]uint32)
		copy(d[dstOff:dstOff+n], src[srcOff:srcOff+n])
	case storage.Uint64:
		src := *(b.ptr.(*[]uint64))
		d := dst.([]uint64)
		copy(d[dstOff:dstOff+n], src[srcOff:srcOff+n])
	case storage.Float32:
		src := *(b.ptr.(*[]float32))
		d := dst.([]float32)
		copy(d[dstOff:dstOff+n], src[srcOff:srcOff+n])
	case storage.Float64:
		src := *(b.ptr.(*[]float64))
		d := dst.([]float64)
		copy(d[dstOff:dstOff+n], src[srcOff:srcOff+n])
	default:
		panic(fmt.Sprintf("scan: copyRangeInto on unsupported kind %s", b.kind))
	}
}

// readFlatInto allocates a typed slice of n elements, reads sel through
// ds into it, and returns the slice boxed as any. Kept separate from
// typedBuffer because direct reads are one-shot (no reuse across calls),
// unlike the prefetch cache's buffers.
func readFlatInto(ds storage.Dataset, sel storage.Dataspace, kind storage.ElementKind, n int64) (any, error) {
	switch kind {
	case storage.Int8:
		p := make([]int8, n)
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	case storage.Int16:
		p := make([]int16, n)
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	case storage.Int32:
		p := make([]int32, n)
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	case storage.Int64:
		p := make([]int64, n)
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	case storage.Uint8:
		p := make([]uint8, n)
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	case storage.Uint16:
		p := make([]uint16, n)
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	case storage.Uint32:
		p := make([]uint32, n)
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	case storage.Uint64:
		p := make([]uint64, n)
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	case storage.Float32:
		p := make([]float32, n)
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	case storage.Float64:
		p := make([]float64, n)
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("scan: readFlatInto on unsupported kind %s", kind)
	}
}

// fillConstantRun fills dst[dstOff:dstOff+n] with the single value
// values[idx], the RSE constant-run expansion loop (spec.md §4.7). Each
// case is a tight, monomorphic loop over a concrete type.
func fillConstantRun(dst any, dstOff, n int64, values any, idx int) error {
	switch v := values.(type) {
	case []int8:
		d := dst.([]int8)
		fillN(d, dstOff, n, v[idx])
	case []int16:
		d := dst.([]int16)
		fillN(d, dstOff, n, v[idx])
	case []int32:
		d := dst.([]int32)
		fillN(d, dstOff, n, v[idx])
	case []int64:
		d := dst.([]int64)
		fillN(d, dstOff, n, v[idx])
	case []uint8:
		d := dst.([]uint8)
		fillN(d, dstOff, n, v[idx])
	case []uint16:
		d := dst.([]uint16)
		fillN(d, dstOff, n, v[idx])
	case []uint32:
		d := dst.([]uint32)
		fillN(d, dstOff, n, v[idx])
	case []uint64:
		d := dst.([]uint64)
		fillN(d, dstOff, n, v[idx])
	case []float32:
		d := dst.([]float32)
		fillN(d, dstOff, n, v[idx])
	case []float64:
		d := dst.([]float64)
		fillN(d, dstOff, n, v[idx])
	default:
		return fmt.Errorf("scan: fillConstantRun on unsupported values type %T", values)
	}
	return nil
}

func fillN[T any](dst []T, off, n int64, v T) {
	for i := int64(0); i < n; i++ {
		dst[off+i] = v
	}
}

// elementAt extracts values[idx] boxed as any, preserving its native
// type, for use as a constant-vector value.
func elementAt(values any, idx int) (any, error) {
	switch v := values.(type) {
	case []int8:
		return v[idx], nil
	case []int16:
		return v[idx], nil
	case []int32:
		return v[idx], nil
	case []int64:
		return v[idx], nil
	case []uint8:
		return v[idx], nil
	case []uint16:
		return v[idx], nil
	case []uint32:
		return v[idx], nil
	case []uint64:
		return v[idx], nil
	case []float32:
		return v[idx], nil
	case []float64:
		return v[idx], nil
	case []string:
		return v[idx], nil
	default:
		return nil, fmt.Errorf("scan: elementAt on unsupported values type %T", values)
	}
}

func stringValueAt(values any, idx int) (string, error) {
	v, ok := values.([]string)
	if !ok {
		return "", fmt.Errorf("scan: stringValueAt on non-string values type %T", values)
	}
	return v[idx], nil
}

// MakeFlatOutput allocates an output buffer of the given kind and
// length, the shape materializers hand back to the host as
// vector.Chunk.FlatData.
func MakeFlatOutput(kind storage.ElementKind, n int64) any {
	switch kind {
	case storage.Int8:
		return make([]int8, n)
	case storage.Int16:
		return make([]int16, n)
	case storage.Int32:
		return make([]int32, n)
	case storage.Int64:
		return make([]int64, n)
	case storage.Uint8:
		return make([]uint8, n)
	case storage.Uint16:
		return make([]uint16, n)
	case storage.Uint32:
		return make([]uint32, n)
	case storage.Uint64:
		return make([]uint64, n)
	case storage.Float32:
		return make([]float32, n)
	case storage.Float64:
		return make([]float64, n)
	default:
		panic(fmt.Sprintf("scan: MakeFlatOutput on unsupported kind %s", kind))
	}
}
