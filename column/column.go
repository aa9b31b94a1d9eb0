// Package column implements the column specification and runtime-state
// model: the tagged Regular/RSE variant every other package in this
// module dispatches on. A Spec is produced once, during bind, and is
// immutable afterward; a State is produced once per scan, during init,
// and owns the handles and buffers that live for the scan's duration.
package column

import (
	"github.com/vantauri/h5table/enginefault"
	"github.com/vantauri/h5table/storage"
)

// Kind discriminates the two column shapes the core understands.
type Kind int

const (
	Regular Kind = iota
	RSE
)

func (k Kind) String() string {
	if k == Regular {
		return "regular"
	}
	return "rse"
}

// MaxRank is the highest dataset rank the core accepts (spec Non-goal:
// datasets of rank > 4).
const MaxRank = 4

// Spec is the tagged variant: exactly one of the two field groups below
// is meaningful, selected by Kind. Using one struct with two field
// groups instead of an interface keeps dispatch a plain switch on Kind
// and keeps the hot materialization loops free of virtual calls.
type Spec struct {
	Kind Kind
	Name string // output column name, spec.md §6: basename of the dataset path

	// Regular fields.
	DatasetPath   string
	ElementType   storage.DataType
	Rank          int
	Dims          []uint64 // full extent, outermost is the row axis
	ElementSize   int      // bytes per leaf element; 0 for string columns (variable or fixed length)
	RowElemCount  int      // elements per row across the inner dims (1 for rank-1)

	// RSE fields.
	RunStartsPath string
	ValuesPath    string
	RunStartsType storage.DataType
	ValuesType    storage.DataType
}

// IsString reports whether this spec materializes into host strings.
func (s *Spec) IsString() bool {
	if s.Kind == Regular {
		return s.ElementType.Kind.IsString()
	}
	return s.ValuesType.Kind.IsString()
}

// LogicalElementKind returns the element kind a consumer should expect
// in output vectors for this column.
func (s *Spec) LogicalElementKind() storage.ElementKind {
	if s.Kind == Regular {
		return s.ElementType.Kind
	}
	return s.ValuesType.Kind
}

// Cacheable reports whether this column is eligible for the prefetch
// cache: regular, rank-1, numeric columns only (spec.md §4.6). Strings
// and multi-dim regular columns always take the direct storage path.
func (s *Spec) Cacheable() bool {
	return s.Kind == Regular && s.Rank == 1 && !s.ElementType.Kind.IsString()
}

// ValidateRank checks the Non-goal bound on regular dataset rank.
func ValidateRank(rank int) error {
	if rank < 1 || rank > MaxRank {
		return enginefault.New(enginefault.UnsupportedType, "dataset rank %d outside supported range [1,%d]", rank, MaxRank)
	}
	return nil
}
