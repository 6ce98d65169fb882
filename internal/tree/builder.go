package tree

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/arbordev/arbor/internal/fsprobe"
	"github.com/arbordev/arbor/internal/pathutil"
)

// NewNodeFunc constructs the node attached for a path during a sparse
// build. The parent is already part of the tree.
type NewNodeFunc func(path string, info fsprobe.Info, parent *Node) *Node

// SparseNode is the default constructor for sparse builds: directories
// come pre-expanded and marked scanned since their children are
// supplied wholesale by the build, never by a disk scan.
func SparseNode(path string, info fsprobe.Info, parent *Node) *Node {
	n := &Node{
		Path:   path,
		Name:   filepath.Base(path),
		Flavor: parent.Flavor,
		Parent: parent,
		Repo:   parent.Repo,
		Clip:   parent.Clip,
	}
	n.applyInfo(info)
	if n.IsDir() {
		n.Scanned = true
		n.Expanded = true
	}
	return n
}

// BuildSparse inserts the given absolute paths under root,
// materializing exactly the ancestor directories needed to connect
// them — no placeholder siblings, no ancestors for paths that fail to
// probe. Every attach keeps the parent's children sorted. Returns the
// first leaf reached by descending into first children, for callers
// that want an initial focus target.
func BuildSparse(root *Node, paths []string, newNode NewNodeFunc) *Node {
	if newNode == nil {
		newNode = SparseNode
	}

	lookup := map[string]*Node{root.Path: root}
	root.Walk(func(n *Node) bool {
		lookup[n.Path] = n
		return true
	})

	for _, p := range paths {
		p = filepath.Clean(p)
		if _, ok := lookup[p]; ok {
			continue
		}
		if !pathutil.IsAncestor(root.Path, p) {
			log.Debug("sparse build skipped path outside root",
				zap.String("root", root.Path), zap.String("path", p))
			continue
		}

		// Probe the leaf first: a vanished path must not leave behind
		// freshly created empty ancestors.
		info, err := fsprobe.Stat(p)
		if err != nil {
			log.Debug("sparse build skipped path", zap.String("path", p), zap.Error(err))
			continue
		}

		parent := root
		var missing []string
		for _, anc := range pathutil.Ancestors(p, root.Path) {
			if n, ok := lookup[anc]; ok {
				parent = n
				break
			}
			missing = append(missing, anc)
		}

		ok := true
		for i := len(missing) - 1; i >= 0; i-- {
			ancInfo, err := fsprobe.Stat(missing[i])
			if err != nil {
				log.Debug("sparse build skipped ancestor", zap.String("path", missing[i]), zap.Error(err))
				ok = false
				break
			}
			anc := newNode(missing[i], ancInfo, parent)
			attach(parent, anc)
			lookup[missing[i]] = anc
			parent = anc
		}
		if !ok {
			continue
		}

		leaf := newNode(p, info, parent)
		attach(parent, leaf)
		lookup[p] = leaf
	}

	return firstLeaf(root)
}

func attach(parent *Node, child *Node) {
	parent.Children = append(parent.Children, child)
	sortChildren(parent.Children)
	parent.Empty = false
}

func firstLeaf(n *Node) *Node {
	for n.IsDir() && len(n.Children) > 0 {
		n = n.Children[0]
	}
	return n
}
