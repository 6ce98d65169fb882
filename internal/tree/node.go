// Package tree implements the explorer's node model: a lazily scanned,
// merge-refreshed tree of filesystem entries shared by the filesystem,
// search, buffer, and git-status views.
package tree

import (
	"iter"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/arbordev/arbor/internal/fsprobe"
	"github.com/arbordev/arbor/internal/git"
	"github.com/arbordev/arbor/internal/pathutil"
)

// log is the package logger. Probe failures during scans are logged
// here and skipped rather than aborting the scan.
var log = zap.NewNop()

// SetLogger installs the package logger. A nil logger disables logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	log = l
}

// Flavor distinguishes the tree variants. All flavors share identity,
// parent/child links, and the traversal operations; only Filesystem
// nodes scan the disk themselves, the others receive their children
// wholesale from a builder.
type Flavor int

const (
	FlavorFilesystem Flavor = iota
	FlavorSearch
	FlavorBuffer
	FlavorGitStatus
)

// ClipOp is the clipboard marker carried by a node.
type ClipOp int

const (
	ClipNone ClipOp = iota
	ClipCopy
	ClipCut
)

// DefaultMaxDepth bounds recursive expand-all so a pathological tree
// cannot recurse unboundedly.
const DefaultMaxDepth = 64

// Node is one filesystem path within a tree.
type Node struct {
	Path   string
	Name   string
	Kind   fsprobe.Kind
	Flavor Flavor

	Parent   *Node // back-pointer only; the parent owns the child list
	Children []*Node

	// Directory state.
	Scanned  bool // children have been populated at least once
	Expanded bool
	Empty    bool // cached so unscanned empty dirs show no affordance

	// Symlink state.
	Target    string // link target as written
	TargetAbs string // link target resolved to an absolute path
	Orphaned  bool   // target does not exist

	Size    int64
	ModTime time.Time

	Repo *git.Repository
	Clip ClipOp

	// Buffer extras.
	BufferID int
	Modified bool
}

// New probes path and creates a node under parent. The new node
// inherits the parent's flavor, repository reference, and clipboard
// marker.
func New(path string, parent *Node) (*Node, error) {
	info, err := fsprobe.Stat(path)
	if err != nil {
		return nil, err
	}

	n := &Node{
		Path:   filepath.Clean(path),
		Name:   filepath.Base(path),
		Parent: parent,
	}
	if parent != nil {
		n.Flavor = parent.Flavor
		n.Repo = parent.Repo
		n.Clip = parent.Clip
	}
	n.applyInfo(info)
	return n, nil
}

// NewRoot creates an expanded root node for an existing directory.
func NewRoot(path string, flavor Flavor) (*Node, error) {
	abs, err := pathutil.Canonical(path)
	if err != nil {
		return nil, err
	}

	n, err := New(abs, nil)
	if err != nil {
		return nil, err
	}
	n.Flavor = flavor
	n.Expanded = true
	return n, nil
}

// IsDir reports whether the node behaves as a directory.
func (n *Node) IsDir() bool {
	return n.Kind.IsDir()
}

// IsHidden reports whether the node is a dotfile. Every consumer that
// filters hidden entries goes through this one predicate.
func (n *Node) IsHidden() bool {
	return len(n.Name) > 0 && n.Name[0] == '.'
}

// IsAncestorOf reports whether this node is a directory whose path is a
// segment-aligned strict prefix of path.
func (n *Node) IsAncestorOf(path string) bool {
	return n.IsDir() && pathutil.IsAncestor(n.Path, path)
}

// ExpandOptions controls Expand.
type ExpandOptions struct {
	Force    bool   // re-scan even if already scanned
	All      bool   // recursively expand every descendant directory
	MaxDepth int    // bound for All; DefaultMaxDepth when zero
	To       string // target path to expand towards
}

// Expand scans the node if needed, marks it expanded, and optionally
// recurses. With To set it descends towards the target and returns its
// node, or nil when the target is not materialized. Scan failures
// propagate and leave the previous children untouched.
func (n *Node) Expand(opts ExpandOptions) (*Node, error) {
	if !n.IsDir() {
		if opts.To == n.Path || opts.To == "" {
			return n, nil
		}
		return nil, nil
	}

	if (!n.Scanned || opts.Force) && n.Flavor == FlavorFilesystem {
		if err := n.scan(); err != nil {
			return nil, err
		}
	}
	n.Expanded = true

	if opts.To != "" {
		if opts.To == n.Path {
			return n, nil
		}
		if !n.IsAncestorOf(opts.To) {
			return nil, nil
		}
		for _, child := range n.Children {
			if child.Path == opts.To {
				if child.IsDir() {
					return child.Expand(ExpandOptions{Force: opts.Force, To: opts.To})
				}
				return child, nil
			}
			if child.IsAncestorOf(opts.To) {
				return child.Expand(ExpandOptions{Force: opts.Force, To: opts.To})
			}
		}
		return nil, nil
	}

	if opts.All {
		depth := opts.MaxDepth
		if depth <= 0 {
			depth = DefaultMaxDepth
		}
		if depth == 1 {
			return n, nil
		}
		for _, child := range n.Children {
			if !child.IsDir() {
				continue
			}
			if _, err := child.Expand(ExpandOptions{Force: opts.Force, All: true, MaxDepth: depth - 1}); err != nil {
				// One unreadable subdirectory must not abort the rest.
				log.Debug("expand-all skipped subdirectory", zap.String("path", child.Path), zap.Error(err))
			}
		}
	}

	return n, nil
}

// Collapse clears the expanded flag. With childrenOnly the node itself
// stays expanded. With recursive every descendant directory collapses.
func (n *Node) Collapse(childrenOnly, recursive bool) {
	if !childrenOnly && n.IsDir() {
		n.Expanded = false
	}
	if childrenOnly || recursive {
		for _, child := range n.Children {
			if child.IsDir() {
				if recursive {
					child.Collapse(false, true)
				} else {
					child.Expanded = false
				}
			}
		}
	}
}

// IterateChildren returns a restartable sequence over the children,
// optionally reversed, optionally starting just after from.
func (n *Node) IterateChildren(reverse bool, from *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		start := 0
		if from != nil {
			start = -1
			for i, c := range n.Children {
				if c == from {
					start = i + 1
					break
				}
			}
			if start < 0 {
				return
			}
		}

		if !reverse {
			for i := start; i < len(n.Children); i++ {
				if !yield(n.Children[i]) {
					return
				}
			}
			return
		}

		end := len(n.Children) - 1
		if from != nil {
			end = start - 2 // element before from
		}
		for i := end; i >= 0; i-- {
			if !yield(n.Children[i]) {
				return
			}
		}
	}
}

// Walk visits the subtree in depth-first pre-order. Returning false
// from visit stops the walk.
func (n *Node) Walk(visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(visit) {
			return false
		}
	}
	return true
}

// GetChildIfLoaded returns the already-materialized descendant for
// path without triggering any scan.
func (n *Node) GetChildIfLoaded(path string) *Node {
	path = filepath.Clean(path)
	if path == n.Path {
		return n
	}
	if !n.IsAncestorOf(path) {
		return nil
	}

	cur := n
outer:
	for {
		for _, child := range cur.Children {
			if child.Path == path {
				return child
			}
			if child.IsAncestorOf(path) {
				cur = child
				continue outer
			}
		}
		return nil
	}
}

// SetClipboard sets the marker on this node and cascades it to every
// currently materialized descendant. Children created later do not
// pick it up unless the setter runs again.
func (n *Node) SetClipboard(op ClipOp) {
	n.Walk(func(d *Node) bool {
		d.Clip = op
		return true
	})
}

// AddChild probes path and attaches a new child node, keeping the
// children sorted. Used after a filesystem mutation created the path.
// Returns the existing node unchanged if the path is already present.
func (n *Node) AddChild(path string) (*Node, error) {
	path = filepath.Clean(path)
	for _, child := range n.Children {
		if child.Path == path {
			return child, nil
		}
	}

	child, err := New(path, n)
	if err != nil {
		return nil, err
	}
	n.Children = append(n.Children, child)
	sortChildren(n.Children)
	n.Empty = false
	return child, nil
}

// RemoveChild drops the child with the given path from the children
// list. Returns true if a child was removed.
func (n *Node) RemoveChild(path string) bool {
	path = filepath.Clean(path)
	for i, child := range n.Children {
		if child.Path == path {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			n.Empty = len(n.Children) == 0 && n.Scanned
			return true
		}
	}
	return false
}

// applyInfo merges freshly probed attributes into the node, preserving
// its identity and tree links.
func (n *Node) applyInfo(info fsprobe.Info) {
	wasDir := n.Kind.IsDir()
	n.Kind = info.Kind
	n.Size = info.Size
	n.ModTime = info.ModTime

	if wasDir && !n.Kind.IsDir() {
		// The path changed kind underneath us; the old children are gone.
		n.Children = nil
		n.Scanned = false
		n.Expanded = false
	}

	if n.Kind.IsSymlink() {
		if target, abs, err := fsprobe.ReadLink(n.Path); err == nil {
			n.Target = target
			n.TargetAbs = abs
			_, statErr := fsprobe.Stat(abs)
			n.Orphaned = statErr != nil
		} else {
			n.Orphaned = true
		}
	} else {
		n.Target = ""
		n.TargetAbs = ""
		n.Orphaned = false
	}

	if n.Kind.IsDir() && !n.Scanned {
		n.Empty = fsprobe.EmptyDir(n.Path)
	}
}

// sortChildren orders a child list by the tree's total order:
// directories before files, then lexicographic by path.
func sortChildren(children []*Node) {
	sort.SliceStable(children, func(i, j int) bool {
		di, dj := children[i].IsDir(), children[j].IsDir()
		if di != dj {
			return di
		}
		return children[i].Path < children[j].Path
	})
}
