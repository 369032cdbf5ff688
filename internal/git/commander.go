package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sqve/avalanche/internal/config"
	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/logger"
)

// Commander abstracts Git command execution to enable dependency injection and testing.
type Commander interface {
	// Run executes git with args in workDir and returns stdout, stderr and
	// a *GitError when git exits non-zero.
	Run(ctx context.Context, workDir string, args ...string) (stdout, stderr []byte, err error)

	// RunQuiet executes git without logging failures, for commands whose
	// failure is an expected answer (show-ref, merge-base --is-ancestor).
	RunQuiet(ctx context.Context, workDir string, args ...string) error
}

// LiveGitCommander runs the git binary.
type LiveGitCommander struct {
	// Timeout bounds each command. Zero means git.command_timeout.
	Timeout time.Duration
}

func NewLiveGitCommander() *LiveGitCommander {
	return &LiveGitCommander{}
}

func (c *LiveGitCommander) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	if d := config.GetDuration("git.command_timeout"); d > 0 {
		return d
	}
	return 2 * time.Minute
}

func (c *LiveGitCommander) exec(ctx context.Context, workDir string, args []string) (stdout, stderr []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	// Stable, untranslated messages and no credential prompts in the daemon.
	cmd.Env = append(os.Environ(), "LC_ALL=C", "GIT_TERMINAL_PROMPT=0")

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout, stderr = outBuf.Bytes(), errBuf.Bytes()
	if runErr == nil {
		return stdout, stderr, nil
	}

	var execErr *exec.Error
	if errors.As(runErr, &execErr) {
		return stdout, stderr, errors.ErrGitNotFound(runErr)
	}

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	message := strings.TrimSpace(string(stderr))
	if ctx.Err() == context.DeadlineExceeded {
		message = "timed out after " + c.timeout().String()
	}

	return stdout, stderr, &GitError{
		Command:  "git",
		Args:     args,
		Stderr:   message,
		ExitCode: exitCode,
	}
}

func (c *LiveGitCommander) Run(ctx context.Context, workDir string, args ...string) (stdout, stderr []byte, err error) {
	log := logger.WithComponent("git_commander")
	start := time.Now()

	log.GitCommand("git", args, "workdir", workDir)
	stdout, stderr, err = c.exec(ctx, workDir, args)
	duration := time.Since(start)

	if err != nil {
		log.GitResult("git", false, string(stderr), "duration", duration.String(), "workdir", workDir)
		return stdout, stderr, err
	}

	log.GitResult("git", true, string(stdout), "duration", duration.String(), "workdir", workDir)
	return stdout, stderr, nil
}

func (c *LiveGitCommander) RunQuiet(ctx context.Context, workDir string, args ...string) error {
	log := logger.WithComponent("git_commander")

	log.GitCommand("git", args, "workdir", workDir)
	_, _, err := c.exec(ctx, workDir, args)
	return err
}

// DefaultCommander provides a default instance of LiveGitCommander for production use.
var DefaultCommander Commander = NewLiveGitCommander()
