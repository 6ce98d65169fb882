package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Canonical returns the cleaned absolute form of path.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Parent returns the parent directory of path.
func Parent(path string) string {
	return filepath.Dir(filepath.Clean(path))
}

// IsAncestor reports whether dir is a strict, segment-aligned ancestor
// of path. "/home/u/proj" is not an ancestor of "/home/u/proj-other".
func IsAncestor(dir, path string) bool {
	dir = filepath.Clean(dir)
	path = filepath.Clean(path)
	if dir == path {
		return false
	}
	if dir == string(filepath.Separator) {
		return strings.HasPrefix(path, string(filepath.Separator))
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// Ancestors returns the parent directories of path from nearest to
// farthest, stopping at (and excluding) stop. Returns nil if path is
// not under stop.
func Ancestors(path, stop string) []string {
	path = filepath.Clean(path)
	stop = filepath.Clean(stop)
	if !IsAncestor(stop, path) {
		return nil
	}

	var out []string
	for p := Parent(path); p != stop; p = Parent(p) {
		out = append(out, p)
		if p == string(filepath.Separator) {
			break
		}
	}
	return out
}

// CommonAncestor returns the deepest directory containing every path in
// paths. Paths are assumed absolute. Returns "" for an empty input.
func CommonAncestor(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	common := splitSegments(paths[0])
	for _, p := range paths[1:] {
		segs := splitSegments(p)
		n := 0
		for n < len(common) && n < len(segs) && common[n] == segs[n] {
			n++
		}
		common = common[:n]
		if len(common) == 0 {
			break
		}
	}

	return string(filepath.Separator) + filepath.Join(common...)
}

// Relative returns path relative to base, or path unchanged if the
// relation cannot be computed.
func Relative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}

// InHome reports whether path is the user's home directory or inside it.
func InHome(path string) bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	path = filepath.Clean(path)
	return path == filepath.Clean(home) || IsAncestor(home, path)
}

func splitSegments(path string) []string {
	// The path is absolute; the leading separator yields an empty first
	// element which we drop.
	segs := strings.Split(filepath.Clean(path), string(filepath.Separator))
	if len(segs) > 0 && segs[0] == "" {
		segs = segs[1:]
	}
	return segs
}
