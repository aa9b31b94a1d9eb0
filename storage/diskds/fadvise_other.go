//go:build !linux

package diskds

import "os"

func adviseSequential(f *os.File) {}
