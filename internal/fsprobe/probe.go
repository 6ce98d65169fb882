// Package fsprobe is the narrow I/O boundary between the tree core and
// the real filesystem: it stats and classifies paths, lists
// directories, and performs the mutations the sidebar exposes.
package fsprobe

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Kind classifies a filesystem entry.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindSymlinkFile
	KindSymlinkDirectory
	KindFifo
	KindSocket
	KindCharDevice
	KindBlockDevice
)

// IsDir reports whether the entry behaves as a directory, including
// symlinks whose target is a directory.
func (k Kind) IsDir() bool {
	return k == KindDirectory || k == KindSymlinkDirectory
}

// IsSymlink reports whether the entry is a symbolic link.
func (k Kind) IsSymlink() bool {
	return k == KindSymlinkFile || k == KindSymlinkDirectory
}

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindSymlinkFile:
		return "symlink-file"
	case KindSymlinkDirectory:
		return "symlink-directory"
	case KindFifo:
		return "fifo"
	case KindSocket:
		return "socket"
	case KindCharDevice:
		return "char-device"
	case KindBlockDevice:
		return "block-device"
	default:
		return "file"
	}
}

// Info describes a single filesystem entry.
type Info struct {
	Kind       Kind
	Size       int64
	Mode       fs.FileMode
	ModTime    time.Time
	ChangeTime time.Time
	UID        uint32
	GID        uint32
}

// Entry is one name within a directory listing.
type Entry struct {
	Name string
	Kind Kind
}

// Stat probes path without following symlinks, except to classify a
// link as symlink-directory when its target is a directory.
func Stat(path string) (Info, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Kind:    classify(fi.Mode()),
		Size:    fi.Size(),
		Mode:    fi.Mode(),
		ModTime: fi.ModTime(),
	}
	fillSys(fi, &info)

	if fi.Mode()&fs.ModeSymlink != 0 {
		// A link to a directory expands like one; a broken link stays a
		// symlink-file and the caller decides orphan handling.
		if target, err := os.Stat(path); err == nil && target.IsDir() {
			info.Kind = KindSymlinkDirectory
		} else {
			info.Kind = KindSymlinkFile
		}
	}

	return info, nil
}

// List returns the immediate entries of dir. Symlink entries are
// classified by following their target once.
func List(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		kind := classify(de.Type())
		if de.Type()&fs.ModeSymlink != 0 {
			kind = KindSymlinkFile
			if target, err := os.Stat(filepath.Join(dir, de.Name())); err == nil && target.IsDir() {
				kind = KindSymlinkDirectory
			}
		}
		entries = append(entries, Entry{Name: de.Name(), Kind: kind})
	}
	return entries, nil
}

// ReadLink returns the target of a symlink, both as written and
// resolved to an absolute path.
func ReadLink(path string) (target, absTarget string, err error) {
	target, err = os.Readlink(path)
	if err != nil {
		return "", "", err
	}
	absTarget = target
	if !filepath.IsAbs(absTarget) {
		absTarget = filepath.Join(filepath.Dir(path), target)
	}
	return target, filepath.Clean(absTarget), nil
}

// EmptyDir reports whether dir exists and contains no entries.
func EmptyDir(dir string) bool {
	f, err := os.Open(dir)
	if err != nil {
		return false
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	return err != nil
}

func classify(mode fs.FileMode) Kind {
	switch {
	case mode.IsDir():
		return KindDirectory
	case mode&fs.ModeSymlink != 0:
		return KindSymlinkFile
	case mode&fs.ModeNamedPipe != 0:
		return KindFifo
	case mode&fs.ModeSocket != 0:
		return KindSocket
	case mode&fs.ModeCharDevice != 0:
		return KindCharDevice
	case mode&fs.ModeDevice != 0:
		return KindBlockDevice
	default:
		return KindFile
	}
}
