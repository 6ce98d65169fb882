package fsprobe

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CreateDir creates a directory, including missing parents.
func CreateDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// CreateFile creates an empty file. It fails if the file already
// exists, so an accidental re-create cannot truncate existing content.
func CreateFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

// Rename moves oldPath to newPath. It refuses to overwrite an existing
// destination.
func Rename(oldPath, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		return fmt.Errorf("rename %s: destination %s already exists", oldPath, newPath)
	}
	return os.Rename(oldPath, newPath)
}

// RemoveFile deletes a single file or symlink.
func RemoveFile(path string) error {
	return os.Remove(path)
}

// RemoveTree deletes a directory and everything below it.
func RemoveTree(path string) error {
	return os.RemoveAll(path)
}

// CopyFile copies src to dst, preserving the file mode.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fi.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CopyTree recursively copies the directory src to dst. Symlinks are
// re-created pointing at their original targets.
func CopyTree(src, dst string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("copy tree %s: not a directory", src)
	}

	if err := os.MkdirAll(dst, fi.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, de := range entries {
		srcPath := filepath.Join(src, de.Name())
		dstPath := filepath.Join(dst, de.Name())

		switch {
		case de.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return err
			}
		case de.IsDir():
			if err := CopyTree(srcPath, dstPath); err != nil {
				return err
			}
		default:
			if err := CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}
