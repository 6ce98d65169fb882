//go:build !linux

package fsprobe

import (
	"io/fs"
	"os"
)

func fillSys(fi fs.FileInfo, info *Info) {}

// Writable reports whether the current user may write to path. The
// portable fallback only inspects the owner permission bit.
func Writable(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().Perm()&0200 != 0
}
