package tree

import (
	"github.com/arbordev/arbor/internal/git"
)

// BuildGitStatus constructs a sparse tree of the repository's changed
// paths, rooted at its toplevel. Deleted files fail the probe and are
// skipped, matching the sparse-build policy.
func BuildGitStatus(repo *git.Repository) (*Tree, *Node, error) {
	root, err := NewRoot(repo.Toplevel, FlavorGitStatus)
	if err != nil {
		return nil, nil, err
	}
	root.Repo = repo

	leaf := BuildSparse(root, repo.ChangedPaths(), nil)
	return &Tree{Root: root, Flavor: FlavorGitStatus}, leaf, nil
}
