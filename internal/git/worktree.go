package git

import (
	"context"
	"fmt"
	"hash/crc32"
	"path/filepath"
	"strings"

	"github.com/sqve/avalanche/internal/errors"
)

// Worktree is one entry of git worktree list --porcelain.
type Worktree struct {
	Path     string
	Head     string
	Branch   string // short name, "" when detached
	Bare     bool
	Detached bool
	Locked   bool
	Prunable bool
}

// SyncWorktreeRoot is the directory holding merge worktrees inside the
// common git directory.
func SyncWorktreeRoot(commonDir string) string {
	return filepath.Join(commonDir, "avalanche", "worktrees")
}

// SyncWorktreePath returns where branch is merged when it cannot be
// fast-forwarded. The checksum keeps "a/b" and "a-b" apart.
func SyncWorktreePath(commonDir, branch string) string {
	name := fmt.Sprintf("%s-%08x", BranchToDirectoryName(branch), crc32.ChecksumIEEE([]byte(branch)))
	return filepath.Join(SyncWorktreeRoot(commonDir), name)
}

// IsSyncWorktree reports whether path lies under commonDir's sync worktree
// root.
func IsSyncWorktree(commonDir, path string) bool {
	root := filepath.Clean(SyncWorktreeRoot(commonDir)) + string(filepath.Separator)
	return strings.HasPrefix(filepath.Clean(path), root)
}

// ListWorktrees returns every worktree of the repository at root, the main
// worktree first.
func (c *Client) ListWorktrees(ctx context.Context, root string) ([]Worktree, error) {
	stdout, _, err := c.cmd.Run(ctx, root, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, errors.ErrGitOperation("worktree list", err)
	}
	return parseWorktreePorcelain(string(stdout)), nil
}

// AddWorktree checks branch out into a new linked worktree at path.
func (c *Client) AddWorktree(ctx context.Context, root, path, branch string) error {
	if _, _, err := c.cmd.Run(ctx, root, "worktree", "add", "--quiet", path, branch); err != nil {
		return errors.ErrGitOperation("worktree add", err).WithContext("path", path)
	}
	return nil
}

// RemoveWorktree deletes the linked worktree at path. force discards local
// modifications and unmerged state.
func (c *Client) RemoveWorktree(ctx context.Context, root, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	if _, _, err := c.cmd.Run(ctx, root, args...); err != nil {
		return errors.ErrGitOperation("worktree remove", err).WithContext("path", path)
	}
	return nil
}

// PruneWorktrees drops administrative entries of worktrees whose directory
// is gone.
func (c *Client) PruneWorktrees(ctx context.Context, root string) error {
	if _, _, err := c.cmd.Run(ctx, root, "worktree", "prune"); err != nil {
		return errors.ErrGitOperation("worktree prune", err)
	}
	return nil
}

func parseWorktreePorcelain(output string) []Worktree {
	var worktrees []Worktree
	var current Worktree

	flush := func() {
		if current.Path != "" {
			worktrees = append(worktrees, current)
		}
		current = Worktree{}
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "worktree "):
			current.Path = filepath.Clean(strings.TrimPrefix(line, "worktree "))
		case strings.HasPrefix(line, "HEAD "):
			current.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "bare":
			current.Bare = true
		case line == "detached":
			current.Detached = true
		case line == "locked" || strings.HasPrefix(line, "locked "):
			current.Locked = true
		case line == "prunable" || strings.HasPrefix(line, "prunable "):
			current.Prunable = true
		}
	}
	flush()

	return worktrees
}
