package git

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/fs"
)

// Client runs repository queries and mutations through a Commander.
type Client struct {
	cmd  Commander
	fsys afero.Fs
}

func NewClient(cmd Commander) *Client {
	if cmd == nil {
		cmd = DefaultCommander
	}
	return &Client{cmd: cmd, fsys: afero.NewOsFs()}
}

// WithFs returns a copy that inspects git metadata through fsys.
func (c *Client) WithFs(fsys afero.Fs) *Client {
	return &Client{cmd: c.cmd, fsys: fsys}
}

func (c *Client) output(ctx context.Context, dir string, args ...string) (string, error) {
	stdout, _, err := c.cmd.Run(ctx, dir, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

// TopLevel returns the root of the working tree containing path.
func (c *Client) TopLevel(ctx context.Context, path string) (string, error) {
	out, err := c.output(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.ErrRepoNotFound(path).WithContext("cause", Stderr(err))
	}
	return filepath.Clean(out), nil
}

// GitDir returns the absolute git directory of the worktree at root.
func (c *Client) GitDir(ctx context.Context, root string) (string, error) {
	out, err := c.output(ctx, root, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", errors.ErrRepoNotFound(root).WithContext("cause", Stderr(err))
	}
	return filepath.Clean(out), nil
}

// CommonDir returns the git directory shared by all linked worktrees.
func (c *Client) CommonDir(ctx context.Context, root string) (string, error) {
	out, err := c.output(ctx, root, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", errors.ErrRepoNotFound(root).WithContext("cause", Stderr(err))
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(root, out)
	}
	return filepath.Clean(out), nil
}

// CurrentBranch returns the branch checked out at root, or "" when HEAD is
// detached.
func (c *Client) CurrentBranch(ctx context.Context, root string) (string, error) {
	stdout, _, err := c.cmd.Run(ctx, root, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		if ExitCode(err) == 1 {
			return "", nil
		}
		return "", errors.ErrGitOperation("symbolic-ref", err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

// BranchExists reports whether refs/heads/<branch> exists.
func (c *Client) BranchExists(ctx context.Context, root, branch string) (bool, error) {
	return c.refExists(ctx, root, "refs/heads/"+branch)
}

// RemoteBranchExists reports whether refs/remotes/<remote>/<branch> exists.
func (c *Client) RemoteBranchExists(ctx context.Context, root, remote, branch string) (bool, error) {
	return c.refExists(ctx, root, RemoteRef(remote, branch))
}

func (c *Client) refExists(ctx context.Context, root, ref string) (bool, error) {
	err := c.cmd.RunQuiet(ctx, root, "show-ref", "--verify", "--quiet", ref)
	if err == nil {
		return true, nil
	}
	if ExitCode(err) == 1 {
		return false, nil
	}
	return false, errors.ErrGitOperation("show-ref", err)
}

// ListBranches returns the local branch names in ref order.
func (c *Client) ListBranches(ctx context.Context, root string) ([]string, error) {
	out, err := c.output(ctx, root, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, errors.ErrGitOperation("for-each-ref", err)
	}
	return splitLines(out), nil
}

// ListRemotes returns the configured remotes in git's order.
func (c *Client) ListRemotes(ctx context.Context, root string) ([]string, error) {
	out, err := c.output(ctx, root, "remote")
	if err != nil {
		return nil, errors.ErrGitOperation("remote", err)
	}
	return splitLines(out), nil
}

// DefaultRemote picks preferred if configured, else origin, else the first
// remote. It returns "" when the repository has no remotes.
func (c *Client) DefaultRemote(ctx context.Context, root, preferred string) (string, error) {
	remotes, err := c.ListRemotes(ctx, root)
	if err != nil {
		return "", err
	}
	return pickRemote(remotes, preferred), nil
}

func pickRemote(remotes []string, preferred string) string {
	if len(remotes) == 0 {
		return ""
	}
	if preferred != "" && slices.Contains(remotes, preferred) {
		return preferred
	}
	if slices.Contains(remotes, "origin") {
		return "origin"
	}
	return remotes[0]
}

// ResolveCommit returns the commit hash ref points at.
func (c *Client) ResolveCommit(ctx context.Context, root, ref string) (string, error) {
	out, err := c.output(ctx, root, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", errors.ErrGitOperation("rev-parse", err).WithContext("ref", ref)
	}
	return out, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (c *Client) IsAncestor(ctx context.Context, root, ancestor, descendant string) (bool, error) {
	err := c.cmd.RunQuiet(ctx, root, "merge-base", "--is-ancestor", ancestor, descendant)
	if err == nil {
		return true, nil
	}
	if ExitCode(err) == 1 {
		return false, nil
	}
	return false, errors.ErrGitOperation("merge-base", err)
}

// UpdateRef moves ref to newHash only if it still points at oldHash.
func (c *Client) UpdateRef(ctx context.Context, root, ref, newHash, oldHash, reason string) error {
	args := []string{"update-ref"}
	if reason != "" {
		args = append(args, "-m", reason)
	}
	args = append(args, ref, newHash, oldHash)
	if _, _, err := c.cmd.Run(ctx, root, args...); err != nil {
		return errors.ErrGitOperation("update-ref", err).WithContext("ref", ref)
	}
	return nil
}

// Fetch runs git fetch --prune against remote.
func (c *Client) Fetch(ctx context.Context, root, remote string) error {
	if _, _, err := c.cmd.Run(ctx, root, "fetch", "--prune", "--quiet", remote); err != nil {
		return errors.ErrNetworkOrRemote(remote, err)
	}
	return nil
}

// PendingChanges counts entries in git status --porcelain for the worktree
// at root, untracked files included.
func (c *Client) PendingChanges(ctx context.Context, root string) (int, error) {
	stdout, _, err := c.cmd.Run(ctx, root, "status", "--porcelain")
	if err != nil {
		return 0, errors.ErrGitOperation("status", err)
	}
	return countLines(stdout), nil
}

// OngoingOperation returns the name of the operation in progress in gitDir,
// or "".
func (c *Client) OngoingOperation(gitDir string) string {
	markers := []struct {
		name      string
		operation string
	}{
		{"MERGE_HEAD", "merge"},
		{"rebase-merge", "rebase"},
		{"rebase-apply", "rebase"},
		{"CHERRY_PICK_HEAD", "cherry-pick"},
		{"REVERT_HEAD", "revert"},
	}

	for _, marker := range markers {
		if fs.PathExists(c.fsys, filepath.Join(gitDir, marker.name)) {
			return marker.operation
		}
	}
	return ""
}

// HasIndexLock reports whether another git process holds gitDir's index.
func (c *Client) HasIndexLock(gitDir string) bool {
	return fs.FileExists(c.fsys, filepath.Join(gitDir, "index.lock"))
}

// Merge merges ref into the branch checked out at worktree.
func (c *Client) Merge(ctx context.Context, worktree, ref string) error {
	_, _, err := c.cmd.Run(ctx, worktree, "merge", "--no-edit", ref)
	return err
}

// AbortMerge restores the pre-merge state in worktree.
func (c *Client) AbortMerge(ctx context.Context, worktree string) error {
	if _, _, err := c.cmd.Run(ctx, worktree, "merge", "--abort"); err != nil {
		return errors.ErrGitOperation("merge --abort", err)
	}
	return nil
}

// ConflictedFiles lists unmerged paths in worktree.
func (c *Client) ConflictedFiles(ctx context.Context, worktree string) ([]string, error) {
	out, err := c.output(ctx, worktree, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, errors.ErrGitOperation("diff", err)
	}
	return splitLines(out), nil
}

// StashPush stashes tracked and untracked changes. It reports whether a
// stash entry was created.
func (c *Client) StashPush(ctx context.Context, worktree, message string) (bool, error) {
	before, err := c.stashCount(ctx, worktree)
	if err != nil {
		return false, err
	}
	if _, _, err := c.cmd.Run(ctx, worktree, "stash", "push", "--include-untracked", "-m", message); err != nil {
		return false, errors.ErrGitOperation("stash push", err)
	}
	after, err := c.stashCount(ctx, worktree)
	if err != nil {
		return false, err
	}
	return after > before, nil
}

// StashPop re-applies the most recent stash entry.
func (c *Client) StashPop(ctx context.Context, worktree string) error {
	if _, _, err := c.cmd.Run(ctx, worktree, "stash", "pop"); err != nil {
		return errors.ErrGitOperation("stash pop", err)
	}
	return nil
}

func (c *Client) stashCount(ctx context.Context, worktree string) (int, error) {
	stdout, _, err := c.cmd.Run(ctx, worktree, "stash", "list")
	if err != nil {
		return 0, errors.ErrGitOperation("stash list", err)
	}
	return countLines(stdout), nil
}

// RemoteRef returns the remote-tracking ref for branch on remote.
func RemoteRef(remote, branch string) string {
	return "refs/remotes/" + remote + "/" + branch
}

// BranchRef returns the local ref for branch.
func BranchRef(branch string) string {
	return "refs/heads/" + branch
}

func countLines(out []byte) int {
	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	return count
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
