package tree

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/arbordev/arbor/internal/fsprobe"
)

// scan lists the directory and reconciles the result into the existing
// children: nodes whose path survives are mutated in place so any
// reference held by a consumer stays valid, new entries become new
// nodes inheriting the parent's repository and clipboard marker, and
// vanished entries are dropped. A listing failure leaves the previous
// state untouched; a per-entry probe failure only skips that entry.
func (n *Node) scan() error {
	entries, err := fsprobe.List(n.Path)
	if err != nil {
		return err
	}

	existing := make(map[string]*Node, len(n.Children))
	for _, child := range n.Children {
		existing[child.Path] = child
	}

	children := make([]*Node, 0, len(entries))
	for _, entry := range entries {
		childPath := filepath.Join(n.Path, entry.Name)

		info, err := fsprobe.Stat(childPath)
		if err != nil {
			log.Debug("scan skipped entry", zap.String("path", childPath), zap.Error(err))
			continue
		}

		child, ok := existing[childPath]
		if !ok {
			child = &Node{
				Path:   childPath,
				Name:   entry.Name,
				Flavor: n.Flavor,
				Parent: n,
				Repo:   n.Repo,
				Clip:   n.Clip,
			}
		}
		child.applyInfo(info)
		children = append(children, child)
	}

	sortChildren(children)
	n.Children = children
	n.Scanned = true
	n.Empty = len(children) == 0
	return nil
}

// Refresh re-scans this directory, merging in place. Unscanned nodes
// are scanned for the first time.
func (n *Node) Refresh() error {
	if !n.IsDir() || n.Flavor != FlavorFilesystem {
		return nil
	}
	return n.scan()
}

// RefreshRecursive re-scans this directory and every already-scanned
// descendant directory. A failing descendant is logged and skipped;
// siblings merged earlier stay merged.
func (n *Node) RefreshRecursive() error {
	if err := n.Refresh(); err != nil {
		return err
	}
	for _, child := range n.Children {
		if child.IsDir() && child.Scanned {
			if err := child.RefreshRecursive(); err != nil {
				log.Debug("refresh skipped directory", zap.String("path", child.Path), zap.Error(err))
			}
		}
	}
	return nil
}
