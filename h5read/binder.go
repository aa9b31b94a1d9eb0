package h5read

import (
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/vantauri/h5table/storage"
)

// Binder dedups concurrent Bind calls against the same file and column
// list: a host engine planning several queries at once may invoke bind
// for the same path concurrently, and only one of those calls needs to
// actually open the file and probe its datasets.
type Binder struct {
	lib  storage.Library
	lock *storage.Lock
	sf   singleflight.Group
}

// NewBinder builds a Binder sharing lock with every scan it binds.
func NewBinder(lib storage.Library, lock *storage.Lock) *Binder {
	return &Binder{lib: lib, lock: lock}
}

// Bind is Bind, deduplicated: concurrent callers with the same file path
// and column arguments share one underlying Bind call and its result.
func (b *Binder) Bind(filePath string, args []ColumnArg) (*BindRecord, error) {
	v, err, _ := b.sf.Do(bindKey(filePath, args), func() (any, error) {
		return Bind(b.lib, b.lock, filePath, args)
	})
	if err != nil {
		return nil, err
	}
	return v.(*BindRecord), nil
}

func bindKey(filePath string, args []ColumnArg) string {
	var sb strings.Builder
	sb.WriteString(filePath)
	for _, a := range args {
		sb.WriteByte('|')
		if a.RSE != nil {
			sb.WriteString("rse:")
			sb.WriteString(a.RSE.RunStartsPath)
			sb.WriteByte(',')
			sb.WriteString(a.RSE.ValuesPath)
		} else {
			sb.WriteString(a.Path)
		}
	}
	return sb.String()
}
