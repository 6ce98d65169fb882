package fsprobe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStat(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "f.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("hello"), 0644))

	t.Run("classifies directories", func(t *testing.T) {
		info, err := Stat(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, KindDirectory, info.Kind)
		assert.True(t, info.Kind.IsDir())
	})

	t.Run("classifies files with size", func(t *testing.T) {
		info, err := Stat(testFile)
		require.NoError(t, err)
		assert.Equal(t, KindFile, info.Kind)
		assert.EqualValues(t, 5, info.Size)
		assert.False(t, info.ModTime.IsZero())
	})

	t.Run("classifies symlink to directory", func(t *testing.T) {
		link := filepath.Join(tmpDir, "dirlink")
		require.NoError(t, os.Symlink(tmpDir, link))

		info, err := Stat(link)
		require.NoError(t, err)
		assert.Equal(t, KindSymlinkDirectory, info.Kind)
		assert.True(t, info.Kind.IsSymlink())
	})

	t.Run("broken symlink stays a symlink file", func(t *testing.T) {
		link := filepath.Join(tmpDir, "broken")
		require.NoError(t, os.Symlink(filepath.Join(tmpDir, "gone"), link))

		info, err := Stat(link)
		require.NoError(t, err)
		assert.Equal(t, KindSymlinkFile, info.Kind)
	})

	t.Run("returns error for missing path", func(t *testing.T) {
		_, err := Stat(filepath.Join(tmpDir, "nope"))
		assert.Error(t, err)
	})
}

func TestList(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.go"), nil, 0644))

	entries, err := List(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	kinds := map[string]Kind{}
	for _, e := range entries {
		kinds[e.Name] = e.Kind
	}
	assert.Equal(t, KindDirectory, kinds["sub"])
	assert.Equal(t, KindFile, kinds["a.go"])

	t.Run("fails for missing directory", func(t *testing.T) {
		_, err := List(filepath.Join(tmpDir, "nope"))
		assert.Error(t, err)
	})
}

func TestReadLink(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "target.txt")
	require.NoError(t, os.WriteFile(target, nil, 0644))

	t.Run("relative target resolves to absolute", func(t *testing.T) {
		link := filepath.Join(tmpDir, "rel")
		require.NoError(t, os.Symlink("target.txt", link))

		rel, abs, err := ReadLink(link)
		require.NoError(t, err)
		assert.Equal(t, "target.txt", rel)
		assert.Equal(t, target, abs)
	})

	t.Run("absolute target is kept", func(t *testing.T) {
		link := filepath.Join(tmpDir, "abs")
		require.NoError(t, os.Symlink(target, link))

		rel, abs, err := ReadLink(link)
		require.NoError(t, err)
		assert.Equal(t, target, rel)
		assert.Equal(t, target, abs)
	})
}

func TestEmptyDir(t *testing.T) {
	tmpDir := t.TempDir()
	empty := filepath.Join(tmpDir, "empty")
	require.NoError(t, os.Mkdir(empty, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "f"), nil, 0644))

	assert.True(t, EmptyDir(empty))
	assert.False(t, EmptyDir(tmpDir))
	assert.False(t, EmptyDir(filepath.Join(tmpDir, "missing")))
}

func TestOps(t *testing.T) {
	t.Run("CreateFile refuses to overwrite", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "f.txt")

		require.NoError(t, CreateFile(path))
		assert.Error(t, CreateFile(path))
	})

	t.Run("Rename refuses existing destination", func(t *testing.T) {
		tmpDir := t.TempDir()
		a := filepath.Join(tmpDir, "a")
		b := filepath.Join(tmpDir, "b")
		require.NoError(t, CreateFile(a))
		require.NoError(t, CreateFile(b))

		assert.Error(t, Rename(a, b))
		assert.NoError(t, Rename(a, filepath.Join(tmpDir, "c")))
	})

	t.Run("CopyFile preserves content", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "src.txt")
		dst := filepath.Join(tmpDir, "dst.txt")
		require.NoError(t, os.WriteFile(src, []byte("payload"), 0600))

		require.NoError(t, CopyFile(src, dst))

		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	})

	t.Run("CopyTree copies nested structure", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "src")
		require.NoError(t, os.MkdirAll(filepath.Join(src, "deep"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(src, "deep", "f.txt"), []byte("x"), 0644))

		dst := filepath.Join(tmpDir, "dst")
		require.NoError(t, CopyTree(src, dst))

		data, err := os.ReadFile(filepath.Join(dst, "deep", "f.txt"))
		require.NoError(t, err)
		assert.Equal(t, "x", string(data))
	})

	t.Run("RemoveTree deletes recursively", func(t *testing.T) {
		tmpDir := t.TempDir()
		dir := filepath.Join(tmpDir, "d")
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))

		require.NoError(t, RemoveTree(dir))
		_, err := os.Lstat(dir)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestWritable(t *testing.T) {
	tmpDir := t.TempDir()
	assert.True(t, Writable(tmpDir))

	t.Run("read-only file", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root writes everywhere")
		}
		path := filepath.Join(tmpDir, "locked.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0400))

		assert.False(t, Writable(path))
	})

	t.Run("missing path", func(t *testing.T) {
		assert.False(t, Writable(filepath.Join(tmpDir, "nope")))
	})
}
