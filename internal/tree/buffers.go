package tree

import (
	"path/filepath"
	"strconv"

	"github.com/arbordev/arbor/internal/fsprobe"
)

// Buffer describes one open editor buffer.
type Buffer struct {
	ID       int
	Path     string // absolute path, or empty/non-path for pseudo buffers
	Name     string // display name for pseudo buffers
	Modified bool
}

// TerminalsContainer is the display name of the synthetic directory
// grouping pseudo buffers (terminals and the like) in the buffer tree.
const TerminalsContainer = "Terminals"

// BuildBuffers constructs the buffer tree: file-backed buffers are
// inserted as a sparse tree under rootPath, pseudo buffers are grouped
// under a synthetic Terminals container that exists only when needed.
func BuildBuffers(rootPath string, buffers []Buffer) (*Tree, *Node, error) {
	root, err := NewRoot(rootPath, FlavorBuffer)
	if err != nil {
		return nil, nil, err
	}

	var paths []string
	byPath := make(map[string]Buffer)
	var pseudo []Buffer
	for _, b := range buffers {
		if b.Path != "" && filepath.IsAbs(b.Path) {
			p := filepath.Clean(b.Path)
			paths = append(paths, p)
			byPath[p] = b
			continue
		}
		pseudo = append(pseudo, b)
	}

	leaf := BuildSparse(root, paths, nil)

	// Stamp buffer identity onto the file leaves.
	root.Walk(func(n *Node) bool {
		if b, ok := byPath[n.Path]; ok && !n.IsDir() {
			n.BufferID = b.ID
			n.Modified = b.Modified
		}
		return true
	})

	if len(pseudo) > 0 {
		container := &Node{
			// The bracketed name cannot collide with a real entry
			// produced by a scan; buffer trees never scan anyway.
			Path:     filepath.Join(root.Path, "["+TerminalsContainer+"]"),
			Name:     TerminalsContainer,
			Kind:     fsprobe.KindDirectory,
			Flavor:   FlavorBuffer,
			Parent:   root,
			Repo:     root.Repo,
			Scanned:  true,
			Expanded: true,
		}
		for _, b := range pseudo {
			name := b.Name
			if name == "" {
				name = "terminal #" + strconv.Itoa(b.ID)
			}
			container.Children = append(container.Children, &Node{
				Path:     filepath.Join(container.Path, name),
				Name:     name,
				Kind:     fsprobe.KindFile,
				Flavor:   FlavorBuffer,
				Parent:   container,
				BufferID: b.ID,
				Modified: b.Modified,
			})
		}
		sortChildren(container.Children)
		attach(root, container)
	}

	if leaf == root && len(root.Children) > 0 {
		leaf = firstLeaf(root)
	}
	return &Tree{Root: root, Flavor: FlavorBuffer}, leaf, nil
}
