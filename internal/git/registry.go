package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/arbordev/arbor/internal/pathutil"
	"github.com/arbordev/arbor/internal/runner"
)

// DotfilesConfig enables the alternate dotfile-manager backend for
// paths under the home directory that no ordinary repository owns.
type DotfilesConfig struct {
	Enabled bool
	// GitDir is the manager's repository. Defaults to the yadm
	// location under XDG_DATA_HOME.
	GitDir string
}

func defaultDotfilesGitDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "yadm", "repo.git")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "yadm", "repo.git")
}

// Registry discovers repositories and caches one Repository record per
// toplevel, so sibling lookups never re-run discovery.
type Registry struct {
	run      runner.Runner
	log      *zap.Logger
	dotfiles DotfilesConfig

	mu         sync.Mutex // guards byToplevel
	byToplevel map[string]*Repository
}

// NewRegistry creates a registry. A nil logger disables logging.
func NewRegistry(run runner.Runner, log *zap.Logger, dotfiles DotfilesConfig) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if dotfiles.Enabled && dotfiles.GitDir == "" {
		dotfiles.GitDir = defaultDotfilesGitDir()
	}
	return &Registry{
		run:        run,
		log:        log,
		dotfiles:   dotfiles,
		byToplevel: make(map[string]*Repository),
	}
}

// Discover returns the repository owning path, or nil when path is not
// inside any repository. Results are cached by toplevel; repeated
// discovery for paths under a known ordinary toplevel is free. The
// dotfile-manager record is strictly a fallback: its toplevel spans the
// whole home directory, so it must never shadow an ordinary repository
// nested under it.
func (g *Registry) Discover(ctx context.Context, path string) *Repository {
	path = filepath.Clean(path)

	g.mu.Lock()
	defer g.mu.Unlock()

	var dotfiles *Repository
	for top, repo := range g.byToplevel {
		if path != top && !pathutil.IsAncestor(top, path) {
			continue
		}
		if repo.Dotfiles {
			dotfiles = repo
			continue
		}
		return repo
	}

	dir := path
	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		dir = filepath.Dir(path)
	}

	if repo := g.discoverOrdinary(ctx, dir); repo != nil {
		return repo
	}
	if dotfiles != nil {
		return dotfiles
	}
	if g.dotfiles.Enabled && pathutil.InHome(path) {
		return g.discoverDotfiles(ctx)
	}
	return nil
}

// Forget evicts the record for a toplevel, forcing rediscovery. Used
// when the last tree referencing a repository is destroyed.
func (g *Registry) Forget(toplevel string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.byToplevel, filepath.Clean(toplevel))
}

func (g *Registry) discoverOrdinary(ctx context.Context, dir string) *Repository {
	out, err := g.run.Run(ctx, dir, "git", "--no-optional-locks", "rev-parse", "--show-toplevel", "--absolute-git-dir")
	if err != nil {
		// Not a repository; status simply stays absent.
		g.log.Debug("git discovery failed", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) < 2 || lines[0] == "" {
		return nil
	}
	toplevel := filepath.Clean(lines[0])
	gitDir := filepath.Clean(lines[1])

	if repo, ok := g.byToplevel[toplevel]; ok {
		return repo
	}
	repo := newRepository(toplevel, gitDir, false)
	g.byToplevel[toplevel] = repo
	g.log.Debug("repository discovered", zap.String("toplevel", toplevel))
	return repo
}

func (g *Registry) discoverDotfiles(ctx context.Context) *Repository {
	gitDir := g.dotfiles.GitDir
	if gitDir == "" {
		return nil
	}
	if _, err := os.Stat(gitDir); err != nil {
		return nil
	}

	worktree, err := dotfilesWorktree(gitDir)
	if err != nil {
		g.log.Debug("dotfiles repository rejected", zap.String("gitdir", gitDir), zap.Error(err))
		return nil
	}

	if repo, ok := g.byToplevel[worktree]; ok && repo.Dotfiles {
		return repo
	}

	// Confirm git can actually read the repository before caching it.
	if _, err := g.run.Run(ctx, worktree, "git", "--git-dir", gitDir, "rev-parse", "--git-dir"); err != nil {
		g.log.Debug("dotfiles repository unreadable", zap.String("gitdir", gitDir), zap.Error(err))
		return nil
	}

	repo := newRepository(worktree, gitDir, true)
	g.byToplevel[worktree] = repo
	g.log.Debug("dotfiles repository discovered", zap.String("worktree", worktree))
	return repo
}
