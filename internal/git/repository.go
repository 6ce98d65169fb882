// Package git maintains a per-toplevel cache of working-tree status,
// fed by shelling out to git and parsing porcelain output. A secondary
// dotfile-manager backend (yadm-style bare repository over $HOME) is
// supported for paths that no ordinary repository claims.
package git

import (
	"sort"
	"sync"

	"github.com/arbordev/arbor/internal/pathutil"
)

// Code is a two-character porcelain status code, e.g. " M" or "??".
type Code string

// Dirty is a synthetic code placed on directories that contain at
// least one changed descendant. It never appears in git output.
const Dirty Code = "dirty"

// IsDirty reports whether the code is the synthetic directory marker.
func (c Code) IsDirty() bool {
	return c == Dirty
}

// IsUntracked reports whether the code marks an untracked path.
func (c Code) IsUntracked() bool {
	return c == "??"
}

// Staged reports whether the index half of the code records a change.
func (c Code) Staged() bool {
	if len(c) != 2 || c.IsUntracked() {
		return false
	}
	return c[0] != ' ' && c[0] != '?'
}

type ignoreEntry struct {
	path string // absolute
	dir  bool
}

// Repository is the status cache for one git toplevel. All tree
// flavors that reference the same toplevel share one record.
type Repository struct {
	Toplevel string
	GitDir   string
	Dotfiles bool // dotfile-manager backend, not a project repository

	mu       sync.RWMutex
	statuses map[string]Code
	ignored  []ignoreEntry
}

func newRepository(toplevel, gitDir string, dotfiles bool) *Repository {
	return &Repository{
		Toplevel: toplevel,
		GitDir:   gitDir,
		Dotfiles: dotfiles,
		statuses: make(map[string]Code),
	}
}

// StatusOf returns the status code recorded for an absolute path. The
// second return is false when the path is clean or unknown.
func (r *Repository) StatusOf(path string) (Code, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.statuses[path]
	return c, ok
}

// IsIgnored reports whether path is git-ignored. A file entry matches
// only by equality; a directory entry also matches every path below it.
func (r *Repository) IsIgnored(path string, isDir bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.ignored {
		if e.dir {
			if path == e.path || pathutil.IsAncestor(e.path, path) {
				return true
			}
			continue
		}
		if !isDir && path == e.path {
			return true
		}
	}
	return false
}

// ChangedPaths returns every changed path in the cache, excluding the
// synthetic directory markers, sorted for stable tree builds.
func (r *Repository) ChangedPaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.statuses))
	for p, c := range r.statuses {
		if c.IsDirty() {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ChangeCount returns the number of changed paths, excluding synthetic
// directory markers.
func (r *Repository) ChangeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, c := range r.statuses {
		if !c.IsDirty() {
			n++
		}
	}
	return n
}

// replace swaps in a freshly built status map and, optionally, a new
// ignore list. The cache is rebuilt wholesale on every refresh since
// porcelain output cannot be diffed incrementally.
func (r *Repository) replace(statuses map[string]Code, ignored []ignoreEntry, replaceIgnored bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = statuses
	if replaceIgnored {
		r.ignored = ignored
	}
}
