//go:build linux

package diskds

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints to the OS that a freshly opened fixture file
// will be read start-to-end, the pattern an uncached full-column read
// follows. Best-effort: a failure here never affects correctness, so it
// is dropped rather than surfaced.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
