package git

import (
	"fmt"
	"strings"

	"github.com/sqve/avalanche/internal/errors"
)

// GitError represents an error from a git command execution.
type GitError struct {
	Command  string
	Args     []string
	Stderr   string
	ExitCode int
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s failed (exit %d): %s", strings.Join(e.Args, " "), e.ExitCode, e.Stderr)
}

// ExitCode returns the git exit status carried by err, or -1.
func ExitCode(err error) int {
	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return gitErr.ExitCode
	}
	return -1
}

// Stderr returns git's diagnostic output carried by err, or err's text.
func Stderr(err error) string {
	if err == nil {
		return ""
	}
	var gitErr *GitError
	if errors.As(err, &gitErr) && gitErr.Stderr != "" {
		return gitErr.Stderr
	}
	return err.Error()
}
