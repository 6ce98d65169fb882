package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts command output per invocation.
type fakeRunner struct {
	run   func(dir, name string, args []string) ([]byte, error)
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{dir, name}, args...))
	return f.run(dir, name, args)
}

func statusRunner(t *testing.T, out string) *fakeRunner {
	t.Helper()
	return &fakeRunner{run: func(dir, name string, args []string) ([]byte, error) {
		require.Equal(t, "git", name)
		require.Contains(t, args, "status")
		return []byte(out), nil
	}}
}

func testRepo() *Repository {
	return newRepository("/repo", "/repo/.git", false)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("parses codes and bubbles dirty onto ancestors", func(t *testing.T) {
		run := statusRunner(t, " M a/b.txt\n?? a/c.txt\n")
		g := NewRegistry(run, nil, DotfilesConfig{})
		repo := testRepo()

		require.NoError(t, g.Refresh(ctx, repo, false))

		code, ok := repo.StatusOf("/repo/a/b.txt")
		require.True(t, ok)
		assert.Equal(t, Code(" M"), code)

		code, ok = repo.StatusOf("/repo/a/c.txt")
		require.True(t, ok)
		assert.Equal(t, Code("??"), code)

		code, ok = repo.StatusOf("/repo/a")
		require.True(t, ok, "ancestor directory should carry a synthetic marker")
		assert.True(t, code.IsDirty())

		code, ok = repo.StatusOf("/repo")
		require.True(t, ok, "toplevel itself is marked")
		assert.True(t, code.IsDirty())

		_, ok = repo.StatusOf("/repo/a/other.txt")
		assert.False(t, ok)
	})

	t.Run("never marks paths outside the toplevel", func(t *testing.T) {
		run := statusRunner(t, " M x.txt\n")
		g := NewRegistry(run, nil, DotfilesConfig{})
		repo := testRepo()

		require.NoError(t, g.Refresh(ctx, repo, false))

		_, ok := repo.StatusOf("/")
		assert.False(t, ok)
	})

	t.Run("a direct status on a directory wins over the dirty marker", func(t *testing.T) {
		run := statusRunner(t, "?? a/\n M a/b.txt\n")
		g := NewRegistry(run, nil, DotfilesConfig{})
		repo := testRepo()

		require.NoError(t, g.Refresh(ctx, repo, false))

		code, ok := repo.StatusOf("/repo/a")
		require.True(t, ok)
		assert.Equal(t, Code("??"), code)
	})

	t.Run("renames resolve to the destination path", func(t *testing.T) {
		run := statusRunner(t, "R  old.txt -> sub/new.txt\n")
		g := NewRegistry(run, nil, DotfilesConfig{})
		repo := testRepo()

		require.NoError(t, g.Refresh(ctx, repo, false))

		_, ok := repo.StatusOf("/repo/old.txt")
		assert.False(t, ok)

		code, ok := repo.StatusOf("/repo/sub/new.txt")
		require.True(t, ok)
		assert.Equal(t, Code("R "), code)
	})

	t.Run("quoted paths are unescaped", func(t *testing.T) {
		run := statusRunner(t, " M \"with space.txt\"\n")
		g := NewRegistry(run, nil, DotfilesConfig{})
		repo := testRepo()

		require.NoError(t, g.Refresh(ctx, repo, false))

		_, ok := repo.StatusOf("/repo/with space.txt")
		assert.True(t, ok)
	})

	t.Run("ignored lines feed the ignore list, not the status map", func(t *testing.T) {
		run := statusRunner(t, "!! build/\n!! stray.o\n M f.go\n")
		g := NewRegistry(run, nil, DotfilesConfig{})
		repo := testRepo()

		require.NoError(t, g.Refresh(ctx, repo, true))

		_, ok := repo.StatusOf("/repo/build")
		assert.False(t, ok)

		assert.True(t, repo.IsIgnored("/repo/build", true))
		assert.True(t, repo.IsIgnored("/repo/build/output.o", false))
		assert.True(t, repo.IsIgnored("/repo/stray.o", false))
		assert.False(t, repo.IsIgnored("/repo/build-notes.txt", false))
	})

	t.Run("ignore list is replaced wholesale", func(t *testing.T) {
		run := statusRunner(t, "!! build/\n")
		g := NewRegistry(run, nil, DotfilesConfig{})
		repo := testRepo()
		require.NoError(t, g.Refresh(ctx, repo, true))
		require.True(t, repo.IsIgnored("/repo/build", true))

		run.run = func(string, string, []string) ([]byte, error) {
			return []byte("!! dist/\n"), nil
		}
		require.NoError(t, g.Refresh(ctx, repo, true))

		assert.False(t, repo.IsIgnored("/repo/build", true))
		assert.True(t, repo.IsIgnored("/repo/dist", true))
	})

	t.Run("dotfiles mode drops untracked entries", func(t *testing.T) {
		var gotArgs []string
		run := &fakeRunner{run: func(dir, name string, args []string) ([]byte, error) {
			gotArgs = args
			return []byte("?? Downloads/noise.bin\n M .bashrc\n"), nil
		}}
		g := NewRegistry(run, nil, DotfilesConfig{})
		repo := newRepository("/home/u", "/home/u/.local/share/yadm/repo.git", true)

		require.NoError(t, g.Refresh(ctx, repo, false))

		_, ok := repo.StatusOf("/home/u/Downloads/noise.bin")
		assert.False(t, ok, "untracked entries are excluded in dotfiles mode")

		_, ok = repo.StatusOf("/home/u/.bashrc")
		assert.True(t, ok)

		assert.Contains(t, gotArgs, "--untracked-files=normal")
		assert.Contains(t, gotArgs, "--git-dir")
	})

	t.Run("query failure leaves the previous cache untouched", func(t *testing.T) {
		run := statusRunner(t, " M keep.txt\n")
		g := NewRegistry(run, nil, DotfilesConfig{})
		repo := testRepo()
		require.NoError(t, g.Refresh(ctx, repo, false))

		run.run = func(string, string, []string) ([]byte, error) {
			return nil, errors.New("index.lock held")
		}
		require.Error(t, g.Refresh(ctx, repo, false))

		_, ok := repo.StatusOf("/repo/keep.txt")
		assert.True(t, ok)
	})
}

func TestChangedPaths(t *testing.T) {
	run := statusRunner(t, " M b/z.txt\n?? a.txt\n")
	g := NewRegistry(run, nil, DotfilesConfig{})
	repo := testRepo()
	require.NoError(t, g.Refresh(context.Background(), repo, false))

	paths := repo.ChangedPaths()
	assert.Equal(t, []string{"/repo/a.txt", "/repo/b/z.txt"}, paths,
		"sorted, without synthetic directory markers")
	assert.Equal(t, 2, repo.ChangeCount())
}

func TestDiscover(t *testing.T) {
	ctx := context.Background()

	t.Run("caches by toplevel", func(t *testing.T) {
		tmp := t.TempDir()
		run := &fakeRunner{run: func(dir, name string, args []string) ([]byte, error) {
			return []byte(tmp + "\n" + tmp + "/.git\n"), nil
		}}
		g := NewRegistry(run, nil, DotfilesConfig{})

		repo := g.Discover(ctx, tmp)
		require.NotNil(t, repo)
		assert.Equal(t, tmp, repo.Toplevel)
		assert.False(t, repo.Dotfiles)

		// A sibling path under the same toplevel must not re-query.
		calls := len(run.calls)
		again := g.Discover(ctx, tmp+"/sub/file.go")
		assert.Same(t, repo, again)
		assert.Equal(t, calls, len(run.calls))
	})

	t.Run("returns nil when discovery fails", func(t *testing.T) {
		run := &fakeRunner{run: func(dir, name string, args []string) ([]byte, error) {
			return nil, errors.New("not a git repository")
		}}
		g := NewRegistry(run, nil, DotfilesConfig{})

		assert.Nil(t, g.Discover(ctx, t.TempDir()))
	})

	t.Run("ordinary repository wins over a cached dotfiles record", func(t *testing.T) {
		home := t.TempDir()
		proj := filepath.Join(home, "proj")
		require.NoError(t, os.MkdirAll(proj, 0755))

		run := &fakeRunner{run: func(dir, name string, args []string) ([]byte, error) {
			if dir == proj || strings.HasPrefix(dir, proj+string(filepath.Separator)) {
				return []byte(proj + "\n" + filepath.Join(proj, ".git") + "\n"), nil
			}
			return nil, errors.New("not a git repository")
		}}
		g := NewRegistry(run, nil, DotfilesConfig{Enabled: true})

		dot := newRepository(home, filepath.Join(home, ".local", "share", "yadm", "repo.git"), true)
		g.byToplevel[home] = dot

		repo := g.Discover(ctx, filepath.Join(proj, "main.go"))
		require.NotNil(t, repo)
		assert.Equal(t, proj, repo.Toplevel)
		assert.False(t, repo.Dotfiles, "project repository must not be shadowed by the home-wide record")

		// Outside any ordinary repository the cached record still answers.
		again := g.Discover(ctx, filepath.Join(home, ".bashrc"))
		assert.Same(t, dot, again)
	})

	t.Run("forget evicts the cached record", func(t *testing.T) {
		tmp := t.TempDir()
		run := &fakeRunner{run: func(dir, name string, args []string) ([]byte, error) {
			return []byte(tmp + "\n" + tmp + "/.git\n"), nil
		}}
		g := NewRegistry(run, nil, DotfilesConfig{})

		first := g.Discover(ctx, tmp)
		require.NotNil(t, first)
		g.Forget(tmp)

		second := g.Discover(ctx, tmp)
		require.NotNil(t, second)
		assert.NotSame(t, first, second)
	})
}

func TestCode(t *testing.T) {
	tests := []struct {
		code      Code
		untracked bool
		staged    bool
	}{
		{"??", true, false},
		{" M", false, false},
		{"M ", false, true},
		{"A ", false, true},
		{"MM", false, true},
		{Dirty, false, false},
	}

	for _, tt := range tests {
		t.Run(strings.ReplaceAll(string(tt.code), " ", "_"), func(t *testing.T) {
			assert.Equal(t, tt.untracked, tt.code.IsUntracked())
			assert.Equal(t, tt.staged, tt.code.Staged())
		})
	}
	assert.True(t, Dirty.IsDirty())
}
