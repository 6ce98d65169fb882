package git

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// dotfilesWorktree determines the working tree of a dotfile-manager
// repository from its config file: core.worktree when set, otherwise
// the home directory for a bare repository.
func dotfilesWorktree(gitDir string) (string, error) {
	cfg, err := ini.Load(filepath.Join(gitDir, "config"))
	if err != nil {
		return "", err
	}

	core := cfg.Section("core")
	if wt := core.Key("worktree").String(); wt != "" {
		return filepath.Clean(wt), nil
	}

	bare, err := core.Key("bare").Bool()
	if err != nil || !bare {
		return "", fmt.Errorf("gitdir %s: neither bare nor a worktree override", gitDir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Clean(home), nil
}
