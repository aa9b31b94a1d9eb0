package rangeplan

import (
	"fmt"

	"github.com/vantauri/h5table/predicate"
)

// valueAt extracts element idx of an RSE values sequence as a float64.
// This is the one place range planning steps outside the
// element-kind-dispatch-per-type discipline the materializers follow:
// evaluating a claim happens once per run during Init, not once per row
// in a hot loop, so collapsing every numeric kind to float64 trades a
// little precision at the extreme end of int64/uint64 for a single
// comparison function instead of ten monomorphic ones.
func valueAt(values any, idx int) (float64, error) {
	switch v := values.(type) {
	case []int8:
		return float64(v[idx]), nil
	case []int16:
		return float64(v[idx]), nil
	case []int32:
		return float64(v[idx]), nil
	case []int64:
		return float64(v[idx]), nil
	case []uint8:
		return float64(v[idx]), nil
	case []uint16:
		return float64(v[idx]), nil
	case []uint32:
		return float64(v[idx]), nil
	case []uint64:
		return float64(v[idx]), nil
	case []float32:
		return float64(v[idx]), nil
	case []float64:
		return v[idx], nil
	default:
		return 0, fmt.Errorf("rangeplan: unsupported values type %T", values)
	}
}

func constantAsFloat64(v any) (float64, error) {
	switch c := v.(type) {
	case int:
		return float64(c), nil
	case int8:
		return float64(c), nil
	case int16:
		return float64(c), nil
	case int32:
		return float64(c), nil
	case int64:
		return float64(c), nil
	case uint:
		return float64(c), nil
	case uint8:
		return float64(c), nil
	case uint16:
		return float64(c), nil
	case uint32:
		return float64(c), nil
	case uint64:
		return float64(c), nil
	case float32:
		return float64(c), nil
	case float64:
		return c, nil
	default:
		return 0, fmt.Errorf("rangeplan: unsupported claim constant type %T", v)
	}
}

func compareOp(v float64, op predicate.Op, c float64) bool {
	switch op {
	case predicate.Eq:
		return v == c
	case predicate.Lt:
		return v < c
	case predicate.Le:
		return v <= c
	case predicate.Gt:
		return v > c
	case predicate.Ge:
		return v >= c
	default:
		return false
	}
}

// compareStringOp evaluates a claim op lexicographically. RSE values
// columns are as likely to hold strings (run-length-encoded category
// labels) as numbers, so string claims get their own comparison instead
// of routing through valueAt's float64 collapse.
func compareStringOp(v string, op predicate.Op, c string) bool {
	switch op {
	case predicate.Eq:
		return v == c
	case predicate.Lt:
		return v < c
	case predicate.Le:
		return v <= c
	case predicate.Gt:
		return v > c
	case predicate.Ge:
		return v >= c
	default:
		return false
	}
}

// evaluateClaims reports whether the value at idx satisfies every claim
// in the conjunction (claims on the same column AND together, the same
// way a BETWEEN's two claims or a chain of ANDed comparisons would).
func evaluateClaims(values any, idx int, claims []predicate.Claim) (bool, error) {
	if sv, ok := values.([]string); ok {
		v := sv[idx]
		for _, c := range claims {
			cv, ok := c.Value.(string)
			if !ok {
				return false, fmt.Errorf("rangeplan: claim constant %T is not comparable to string values", c.Value)
			}
			if !compareStringOp(v, c.Op, cv) {
				return false, nil
			}
		}
		return true, nil
	}

	v, err := valueAt(values, idx)
	if err != nil {
		return false, err
	}
	for _, c := range claims {
		cv, err := constantAsFloat64(c.Value)
		if err != nil {
			return false, err
		}
		if !compareOp(v, c.Op, cv) {
			return false, nil
		}
	}
	return true, nil
}
