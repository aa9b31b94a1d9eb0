package diskds

import (
	"fmt"

	"github.com/vantauri/h5table/storage"
)

// Builder assembles a fixture file in memory before Create writes it out.
// It is the construction side of this backend, used by tests;
// production code never constructs one.
type Builder struct {
	h fileHeader
}

func NewBuilder() *Builder { return &Builder{} }

// Dataset adds a regular dataset. raw must already be laid out row-major:
// for a 1-D dataset of N elements it is N*elemSize bytes; for a
// multi-dim dataset dims[0] is the row axis and each row is
// product(dims[1:])*elemSize bytes.
func (b *Builder) Dataset(path string, kind storage.ElementKind, dims []uint64, chunkDim uint64, raw []byte) error {
	compressed, err := compress(raw)
	if err != nil {
		return fmt.Errorf("compress dataset %s: %w", path, err)
	}
	b.h.Datasets = append(b.h.Datasets, datasetRecord{
		Path:     path,
		Kind:     kind,
		Dims:     append([]uint64(nil), dims...),
		ChunkDim: chunkDim,
		Compressed: compressed,
		RawLen:   len(raw),
	})
	b.registerPath(path, false, dims, kind.String())
	return nil
}

// FixedStrings adds a fixed-length string dataset: n entries, each
// strLen bytes, NUL-padded/truncated.
func (b *Builder) FixedStrings(path string, n, strLen int, values []string) error {
	raw := make([]byte, n*strLen)
	for i, v := range values {
		copy(raw[i*strLen:(i+1)*strLen], v)
	}
	compressed, err := compress(raw)
	if err != nil {
		return fmt.Errorf("compress dataset %s: %w", path, err)
	}
	b.h.Datasets = append(b.h.Datasets, datasetRecord{
		Path:        path,
		Kind:        storage.StringFixed,
		FixedStrLen: strLen,
		Dims:        []uint64{uint64(n)},
		Compressed:  compressed,
		RawLen:      len(raw),
	})
	b.registerPath(path, false, []uint64{uint64(n)}, "string")
	return nil
}

// VarStrings adds a variable-length string dataset.
func (b *Builder) VarStrings(path string, values []string) error {
	var raw []byte
	for _, v := range values {
		l := uint32(len(v))
		raw = append(raw, byte(l), byte(l>>8), byte(l>>16), byte(l>>24))
		raw = append(raw, v...)
	}
	compressed, err := compress(raw)
	if err != nil {
		return fmt.Errorf("compress dataset %s: %w", path, err)
	}
	b.h.Datasets = append(b.h.Datasets, datasetRecord{
		Path:       path,
		Kind:       storage.StringVar,
		Dims:       []uint64{uint64(len(values))},
		Compressed: compressed,
		RawLen:     len(raw),
	})
	b.registerPath(path, false, []uint64{uint64(len(values))}, "string")
	return nil
}

// registerPath records path as a child of its parent group, then walks
// every ancestor group up to the root, registering each one as a group
// child of its own parent the first time it's seen. Without this walk,
// ListGroup could only ever see one level deep: a dataset nested two
// groups down would register its immediate parent but nothing would
// ever link that parent back to the root.
func (b *Builder) registerPath(path string, isGroup bool, dims []uint64, dtype string) {
	parent, name := splitParent(path)
	b.addChild(parent, storage.ObjectInfo{Name: name, Path: path, IsGroup: isGroup, Shape: dims, DType: dtype})

	for parent != "/" {
		grandparent, parentName := splitParent(parent)
		if b.hasChild(grandparent, parent) {
			break
		}
		b.addChild(grandparent, storage.ObjectInfo{Name: parentName, Path: parent, IsGroup: true})
		parent = grandparent
	}
}

func (b *Builder) addChild(parent string, info storage.ObjectInfo) {
	for i := range b.h.Groups {
		if b.h.Groups[i].Path == parent {
			b.h.Groups[i].Children = append(b.h.Groups[i].Children, info)
			return
		}
	}
	b.h.Groups = append(b.h.Groups, groupRecord{Path: parent, Children: []storage.ObjectInfo{info}})
}

func (b *Builder) hasChild(parent, path string) bool {
	for i := range b.h.Groups {
		if b.h.Groups[i].Path == parent {
			for _, c := range b.h.Groups[i].Children {
				if c.Path == path {
					return true
				}
			}
		}
	}
	return false
}

// Attr attaches an attribute to an object path (dataset or group).
func (b *Builder) Attr(objectPath, name string, value any) {
	for i := range b.h.Attrs {
		if b.h.Attrs[i].ObjectPath == objectPath {
			b.h.Attrs[i].Attrs = append(b.h.Attrs[i].Attrs, storage.Attribute{Name: name, Value: value})
			return
		}
	}
	b.h.Attrs = append(b.h.Attrs, attrRecord{ObjectPath: objectPath, Attrs: []storage.Attribute{{Name: name, Value: value}}})
}

// Create writes the assembled fixture to path.
func (b *Builder) Create(path string) error {
	return writeHeader(path, b.h)
}

func splitParent(path string) (parent, name string) {
	idx := -1
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "/", path
	}
	if idx == 0 {
		return "/", path[1:]
	}
	return path[:idx], path[idx+1:]
}
