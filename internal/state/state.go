package state

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	configDirName = ".config"
	appDirName    = "arbor"
	stateFileName = "state.json"
)

// View names the tree flavor the sidebar last displayed.
type View string

const (
	ViewFilesystem View = "filesystem"
	ViewSearch     View = "search"
	ViewBuffers    View = "buffers"
	ViewGitStatus  View = "git-status"
)

// State represents the persisted sidebar state.
type State struct {
	// ShowHidden indicates whether dotfiles are displayed
	ShowHidden bool `json:"show_hidden"`
	// CompactIndent indicates 2-space instead of 4-space indentation
	CompactIndent bool `json:"compact_indent,omitempty"`
	// LastView is the tree view that was active on exit
	LastView View `json:"last_view,omitempty"`
	// DotfilesRepo enables the dotfile-manager status backend
	DotfilesRepo bool `json:"dotfiles_repo,omitempty"`
}

// DefaultState returns the default state for first run.
func DefaultState() State {
	return State{
		ShowHidden: true,
		LastView:   ViewFilesystem,
	}
}

// configDir returns the path to the config directory (~/.config/arbor).
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName, appDirName), nil
}

// statePath returns the global path to the state file.
func statePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stateFileName), nil
}

// Load reads the global sidebar state.
// Returns default state if the file doesn't exist or can't be read.
func Load() State {
	path, err := statePath()
	if err != nil {
		return DefaultState()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// File doesn't exist or can't be read - return defaults
		return DefaultState()
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		// Invalid JSON - return defaults
		return DefaultState()
	}

	if s.LastView == "" {
		s.LastView = ViewFilesystem
	}
	return s
}

// Save writes the global sidebar state.
func Save(s State) error {
	dir, err := configDir()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := statePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
