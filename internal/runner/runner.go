// Package runner wraps external command execution behind a small
// interface so the git engine and the search builder can be tested
// against canned output.
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its output.
type Runner interface {
	// Run executes name with args in dir (or the process working
	// directory when dir is empty) and returns stdout. A non-zero exit
	// status is returned as an error with stderr attached.
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// New returns an ExecRunner.
func New() ExecRunner {
	return ExecRunner{}
}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), &Error{Cmd: name, Stderr: msg, Err: err}
		}
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

// Error carries the stderr of a failed command.
type Error struct {
	Cmd    string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	return e.Cmd + ": " + e.Stderr
}

func (e *Error) Unwrap() error {
	return e.Err
}
