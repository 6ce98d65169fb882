package tree

import (
	"path/filepath"
	"sync/atomic"

	"github.com/arbordev/arbor/internal/git"
	"github.com/arbordev/arbor/internal/pathutil"
)

// Tree owns a root node and the per-tree refresh guard. Tree-wide
// refreshes that overlap an in-flight one are dropped, not queued.
type Tree struct {
	Root   *Node
	Flavor Flavor

	refreshing atomic.Bool
}

// NewFilesystem creates a filesystem tree rooted at path and performs
// the initial scan of the root.
func NewFilesystem(path string) (*Tree, error) {
	root, err := NewRoot(path, FlavorFilesystem)
	if err != nil {
		return nil, err
	}
	if err := root.Refresh(); err != nil {
		return nil, err
	}
	return &Tree{Root: root, Flavor: FlavorFilesystem}, nil
}

// Refresh re-scans every scanned directory in the tree. Returns false
// without doing anything when another tree-wide refresh is in flight.
func (t *Tree) Refresh() (bool, error) {
	if !t.refreshing.CompareAndSwap(false, true) {
		return false, nil
	}
	defer t.refreshing.Store(false)

	return true, t.Root.RefreshRecursive()
}

// RefreshPath re-scans the directory owning path. If the path is not
// materialized, the nearest loaded ancestor is refreshed instead, so a
// watcher event for a brand-new subdirectory still lands somewhere
// useful. Unloaded targets are a no-op.
func (t *Tree) RefreshPath(path string) error {
	path = filepath.Clean(path)
	if t.Root == nil {
		return nil
	}
	if path != t.Root.Path && !pathutil.IsAncestor(t.Root.Path, path) {
		return nil
	}

	node := t.Root.GetChildIfLoaded(path)
	if node == nil {
		node = t.nearestLoadedAncestor(path)
	}
	if node != nil && !node.IsDir() {
		node = node.Parent
	}
	if node == nil || !node.Scanned {
		return nil
	}
	return node.Refresh()
}

// SetRepository attaches a repository record to the root and every
// materialized node; nodes created by later scans inherit it.
func (t *Tree) SetRepository(repo *git.Repository) {
	if t.Root == nil {
		return
	}
	t.Root.Walk(func(n *Node) bool {
		n.Repo = repo
		return true
	})
}

// FirstLeaf descends into each directory's first child and returns the
// first non-directory reached, or the deepest directory when a branch
// has no file.
func (t *Tree) FirstLeaf() *Node {
	n := t.Root
	for n != nil && n.IsDir() && len(n.Children) > 0 {
		n = n.Children[0]
	}
	return n
}

func (t *Tree) nearestLoadedAncestor(path string) *Node {
	cur := t.Root
	for {
		next := (*Node)(nil)
		for _, child := range cur.Children {
			if child.IsAncestorOf(path) || child.Path == path {
				next = child
				break
			}
		}
		if next == nil || !next.IsDir() || !next.Scanned {
			return cur
		}
		cur = next
	}
}
