package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	t.Run("cleans absolute paths", func(t *testing.T) {
		got, err := Canonical("/tmp//foo/../bar/")
		require.NoError(t, err)
		assert.Equal(t, filepath.FromSlash("/tmp/bar"), got)
	})

	t.Run("resolves relative paths against the working directory", func(t *testing.T) {
		cwd, err := os.Getwd()
		require.NoError(t, err)

		got, err := Canonical(".")
		require.NoError(t, err)
		assert.Equal(t, cwd, got)
	})
}

func TestIsAncestor(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		path string
		want bool
	}{
		{"direct parent", "/home/u/proj", "/home/u/proj/main.go", true},
		{"deep descendant", "/home/u", "/home/u/proj/src/main.go", true},
		{"equal paths", "/home/u/proj", "/home/u/proj", false},
		{"sibling with shared prefix", "/home/u/proj", "/home/u/proj-other/f.txt", false},
		{"unrelated", "/var/log", "/home/u/proj", false},
		{"root is ancestor of everything", "/", "/home", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAncestor(tt.dir, tt.path))
		})
	}
}

func TestAncestors(t *testing.T) {
	t.Run("nearest first, excluding stop", func(t *testing.T) {
		got := Ancestors("/root/a/b/c.txt", "/root")
		assert.Equal(t, []string{"/root/a/b", "/root/a"}, got)
	})

	t.Run("direct child has no intermediate ancestors", func(t *testing.T) {
		assert.Empty(t, Ancestors("/root/c.txt", "/root"))
	})

	t.Run("path outside stop yields nil", func(t *testing.T) {
		assert.Nil(t, Ancestors("/elsewhere/c.txt", "/root"))
	})
}

func TestCommonAncestor(t *testing.T) {
	t.Run("finds shared directory", func(t *testing.T) {
		got := CommonAncestor([]string{
			"/root/a/x.txt",
			"/root/a/y.txt",
			"/root/b.txt",
		})
		assert.Equal(t, "/root", got)
	})

	t.Run("divergent paths meet at root", func(t *testing.T) {
		got := CommonAncestor([]string{"/var/log/syslog", "/home/u/f.txt"})
		assert.Equal(t, "/", got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", CommonAncestor(nil))
	})
}

func TestRelative(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("a/b.txt"), Relative("/root", "/root/a/b.txt"))
	assert.Equal(t, "..", Relative("/root/a", "/root"))
}

func TestInHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.True(t, InHome(home))
	assert.True(t, InHome(filepath.Join(home, ".config", "arbor")))
	assert.False(t, InHome("/var/tmp"))
}
