// Package vector models the host engine's output vector-chunk contract
// (spec.md §6): a chunk is either a flat vector (one value per row) or a
// constant vector (one value standing in for every row in the chunk),
// plus a string pool for host-owned string storage. The real contract
// this stands in for is the query engine's vector memory layout, out of
// scope per spec.md §1; this package is the minimal Go shape that lets
// the rest of the module compile and be tested without that engine.
package vector

import "github.com/vantauri/h5table/storage"

// Mode distinguishes a flat vector from a constant one.
type Mode int

const (
	Flat Mode = iota
	Constant
)

// StringPool is the host's interned-string storage, mirroring a real
// vector engine's "add string" call that copies into engine-owned memory
// rather than retaining the caller's buffer. The materializers in this
// module do not write to it; string chunks carry their values in
// Chunk.Strings.
type StringPool interface {
	AddString(s string)
}

// Chunk is one materialized output chunk for a single column. A
// Regular/RSE materializer fills exactly one of FlatData (Mode==Flat) or
// ConstantValue (Mode==Constant) for numeric kinds; for string kinds it
// fills Strings, a plain slice in row order.
type Chunk struct {
	Mode         Mode
	Kind         storage.ElementKind
	FlatData     any // typed slice, len == row count × elements per row (1 for rank-1), when Mode==Flat and not a string kind
	ConstantValue any // single value, when Mode==Constant and not a string kind
	Strings      []string // in row order; len==1 for Constant, len==row count for Flat, when Kind.IsString()
}
