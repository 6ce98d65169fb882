package tree

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/arbordev/arbor/internal/runner"
)

// SearchCommand is the external matcher invocation whose stdout lines
// are file paths, one per line.
type SearchCommand struct {
	Name string
	Args []string
}

// DefaultSearchCommand greps file contents with ripgrep.
func DefaultSearchCommand(pattern string) SearchCommand {
	return SearchCommand{
		Name: "rg",
		Args: []string{"--files-with-matches", "--no-messages", pattern},
	}
}

// BuildSearch runs cmd under rootPath and builds a sparse search tree
// from the reported paths. The first leaf is returned as the initial
// focus target. A failing command is an error; individual reported
// paths that vanished before probing are skipped.
func BuildSearch(ctx context.Context, run runner.Runner, rootPath string, cmd SearchCommand) (*Tree, *Node, error) {
	root, err := NewRoot(rootPath, FlavorSearch)
	if err != nil {
		return nil, nil, err
	}

	out, err := run.Run(ctx, root.Path, cmd.Name, cmd.Args...)
	if err != nil {
		return nil, nil, err
	}

	var paths []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(root.Path, line)
		}
		paths = append(paths, line)
	}

	leaf := BuildSparse(root, paths, nil)
	return &Tree{Root: root, Flavor: FlavorSearch}, leaf, nil
}
