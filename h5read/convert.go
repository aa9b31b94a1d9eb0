package h5read

import (
	"fmt"

	"github.com/vantauri/h5table/storage"
)

// readFullInt64 reads an entire 1-D integer dataset and widens it to
// []int64 regardless of its native storage width: column.RSEState.RunStarts
// is always int64, independent of how narrow the file's own run_starts
// datatype is.
func readFullInt64(ds storage.Dataset) ([]int64, error) {
	sel := ds.Dataspace()
	n := sel.Dims()[0]
	if err := sel.SelectHyperslab([]uint64{0}, []uint64{n}); err != nil {
		return nil, err
	}

	switch ds.Datatype().Kind {
	case storage.Int8:
		var p []int8
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return widenSigned(p), nil
	case storage.Int16:
		var p []int16
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return widenSigned(p), nil
	case storage.Int32:
		var p []int32
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return widenSigned(p), nil
	case storage.Int64:
		var p []int64
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return p, nil
	case storage.Uint8:
		var p []uint8
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return widenUnsigned(p), nil
	case storage.Uint16:
		var p []uint16
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return widenUnsigned(p), nil
	case storage.Uint32:
		var p []uint32
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return widenUnsigned(p), nil
	case storage.Uint64:
		var p []uint64
		if err := ds.ReadInto(sel, &p); err != nil {
			return nil, err
		}
		return widenUnsigned(p), nil
	default:
		return nil, fmt.Errorf("h5read: run_starts dataset has non-integer kind %s", ds.Datatype().Kind)
	}
}

func widenSigned[T int8 | int16 | int32](p []T) []int64 {
	out := make([]int64, len(p))
	for i, v := range p {
		out[i] = int64(v)
	}
	return out
}

func widenUnsigned[T uint8 | uint16 | uint32 | uint64](p []T) []int64 {
	out := make([]int64, len(p))
	for i, v := range p {
		out[i] = int64(v)
	}
	return out
}

// readFullTyped reads an entire 1-D dataset as its own native typed
// slice (no widening), the representation column.RSEState.Values
// expects: a flat-vector materializer must see the same type whether a
// value came straight off disk or out of an RSE run.
func readFullTyped(ds storage.Dataset) (any, error) {
	sel := ds.Dataspace()
	n := sel.Dims()[0]
	if err := sel.SelectHyperslab([]uint64{0}, []uint64{n}); err != nil {
		return nil, err
	}

	kind := ds.Datatype().Kind
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
	case storage.StringVar, storage.StringFixed:
		strs := make([]string, n)
		if err := ds.ReadStrings(sel, strs); err != nil {
			return nil, err
		}
		return strs, nil
	default:
		return nil, fmt.Errorf("h5read: unsupported element kind %s", kind)
	}
}

// valuesLen returns len(values) across every type readFullTyped can
// return, for checking the RSE run_starts/values length invariant.
func valuesLen(values any) int {
	switch v := values.(type) {
	case []int8:
		return len(v)
	case []int16:
		return len(v)
	case []int32:
		return len(v)
	case []int64:
		return len(v)
	case []uint8:
		return len(v)
	case []uint16:
		return len(v)
	case []uint32:
		return len(v)
	case []uint64:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case []string:
		return len(v)
	default:
		return 0
	}
}
