package git

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/arbordev/arbor/internal/pathutil"
)

// Refresh re-runs the status query for repo and rebuilds its cache
// wholesale: the path→code map, the synthetic dirty markers on every
// ancestor directory inside the toplevel, and (when includeIgnored) the
// ignore list. On error the previous cache is left untouched.
func (g *Registry) Refresh(ctx context.Context, repo *Repository, includeIgnored bool) error {
	args := []string{"--no-optional-locks"}
	if repo.Dotfiles {
		args = append(args, "--git-dir", repo.GitDir)
	}
	args = append(args, "status", "--porcelain")
	if repo.Dotfiles {
		// The manager tracks scattered files; without this flag git
		// reports nothing untracked for directories it does track.
		args = append(args, "--untracked-files=normal")
	} else {
		args = append(args, "-uall")
	}
	if includeIgnored {
		args = append(args, "--ignored")
	}

	out, err := g.run.Run(ctx, repo.Toplevel, "git", args...)
	if err != nil {
		g.log.Warn("git status failed", zap.String("toplevel", repo.Toplevel), zap.Error(err))
		return err
	}

	statuses := make(map[string]Code)
	var ignored []ignoreEntry

	for _, line := range strings.Split(string(out), "\n") {
		if len(line) < 4 {
			continue
		}

		code := Code(line[:2])
		raw := line[3:]

		// A rename line reads "R  old -> new"; the destination is the
		// path that exists on disk.
		if idx := strings.LastIndex(raw, " -> "); idx >= 0 {
			raw = raw[idx+4:]
		}

		rel := unquote(raw)
		isDir := strings.HasSuffix(rel, "/")
		rel = strings.TrimSuffix(rel, "/")
		abs := rel
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(repo.Toplevel, rel)
		}

		if code == "!!" {
			if includeIgnored {
				ignored = append(ignored, ignoreEntry{path: abs, dir: isDir})
			}
			continue
		}

		// The manager reports the whole home directory as untracked;
		// keeping those entries would mark every node dirty.
		if repo.Dotfiles && code.IsUntracked() {
			continue
		}

		statuses[abs] = code
	}

	for path, code := range statuses {
		if code.IsDirty() {
			continue
		}
		markAncestorsDirty(statuses, path, repo.Toplevel)
	}

	repo.replace(statuses, ignored, includeIgnored)
	g.log.Debug("git status refreshed",
		zap.String("toplevel", repo.Toplevel),
		zap.Int("changed", repo.ChangeCount()))
	return nil
}

// markAncestorsDirty bubbles a synthetic dirty marker from path up to
// and including the toplevel. A more specific code already present on
// an ancestor wins. The walk is segment-aligned, so a sibling of the
// toplevel that shares a name prefix is never touched.
func markAncestorsDirty(statuses map[string]Code, path, toplevel string) {
	for p := filepath.Dir(path); ; p = filepath.Dir(p) {
		if p != toplevel && !pathutil.IsAncestor(toplevel, p) {
			return
		}
		if _, ok := statuses[p]; !ok {
			statuses[p] = Dirty
		}
		if p == toplevel {
			return
		}
	}
}

// unquote strips git's C-style quoting from a porcelain path.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' {
		return s
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"`)
}
