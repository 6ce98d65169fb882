//go:build linux

package fsprobe

import (
	"io/fs"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func fillSys(fi fs.FileInfo, info *Info) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	info.UID = st.Uid
	info.GID = st.Gid
	info.ChangeTime = time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
}

// Writable reports whether the current user may write to path.
func Writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
