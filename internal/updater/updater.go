// Package updater brings a local branch up to date with its remote-tracking
// branch without checking it out in the user's worktree.
package updater

import (
	"context"
	"fmt"
	"strings"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/fs"
	"github.com/sqve/avalanche/internal/git"
	"github.com/sqve/avalanche/internal/logger"
	"github.com/sqve/avalanche/internal/models"
)

// Git is the subset of git.Client the executor drives.
type Git interface {
	Fetch(ctx context.Context, root, remote string) error
	CommonDir(ctx context.Context, root string) (string, error)
	GitDir(ctx context.Context, root string) (string, error)
	RemoteBranchExists(ctx context.Context, root, remote, branch string) (bool, error)
	ResolveCommit(ctx context.Context, root, ref string) (string, error)
	IsAncestor(ctx context.Context, root, ancestor, descendant string) (bool, error)
	UpdateRef(ctx context.Context, root, ref, newHash, oldHash, reason string) error
	ListWorktrees(ctx context.Context, root string) ([]git.Worktree, error)
	AddWorktree(ctx context.Context, root, path, branch string) error
	RemoveWorktree(ctx context.Context, root, path string, force bool) error
	PruneWorktrees(ctx context.Context, root string) error
	Merge(ctx context.Context, worktree, ref string) error
	AbortMerge(ctx context.Context, worktree string) error
	ConflictedFiles(ctx context.Context, worktree string) ([]string, error)
	OngoingOperation(gitDir string) string
	PendingChanges(ctx context.Context, root string) (int, error)
	StashPush(ctx context.Context, worktree, message string) (bool, error)
	StashPop(ctx context.Context, worktree string) error
}

var _ Git = (*git.Client)(nil)

type Executor struct {
	git Git
}

func New(g Git) *Executor {
	return &Executor{git: g}
}

// Execute fetches remote and merges its copy of branch into the local
// branch. It never returns an error: every failure is a SyncOutcome.
func (e *Executor) Execute(ctx context.Context, root, branch, remote string, mode models.ConflictMode) models.SyncOutcome {
	log := logger.WithComponent("updater").With("repository", root, "branch", branch)

	if err := e.git.Fetch(ctx, root, remote); err != nil {
		log.Warn("fetch failed", "remote", remote, "error", err)
		return models.FetchFailed(git.Stderr(err))
	}

	remoteRef := git.RemoteRef(remote, branch)
	exists, err := e.git.RemoteBranchExists(ctx, root, remote, branch)
	if err != nil {
		return models.MergeFailed(err.Error(), false)
	}
	if !exists {
		return models.MergeFailed(fmt.Sprintf("%s does not exist", remoteRef), false)
	}

	commonDir, err := e.git.CommonDir(ctx, root)
	if err != nil {
		return models.MergeFailed(err.Error(), false)
	}
	syncPath := git.SyncWorktreePath(commonDir, branch)

	// The branch is checked out in a leftover sync worktree, so moving the ref
	// directly would leave that tree stale.
	leftover, err := e.hasWorktree(ctx, root, syncPath)
	if err != nil {
		return models.MergeFailed(err.Error(), false)
	}
	if leftover {
		log.Debug("reusing sync worktree", "path", syncPath)
		return e.mergeInWorktree(ctx, root, branch, remoteRef, syncPath, mode)
	}

	localHash, err := e.git.ResolveCommit(ctx, root, git.BranchRef(branch))
	if err != nil {
		return models.MergeFailed(err.Error(), false)
	}
	remoteHash, err := e.git.ResolveCommit(ctx, root, remoteRef)
	if err != nil {
		return models.MergeFailed(err.Error(), false)
	}

	if localHash == remoteHash {
		return models.UpToDate()
	}
	contained, err := e.git.IsAncestor(ctx, root, remoteHash, localHash)
	if err != nil {
		return models.MergeFailed(err.Error(), false)
	}
	if contained {
		return models.UpToDate()
	}

	fastForward, err := e.git.IsAncestor(ctx, root, localHash, remoteHash)
	if err != nil {
		return models.MergeFailed(err.Error(), false)
	}
	if fastForward {
		reason := fmt.Sprintf("avalanche: fast-forward from %s", remoteRef)
		if err := e.git.UpdateRef(ctx, root, git.BranchRef(branch), remoteHash, localHash, reason); err != nil {
			return models.MergeFailed(err.Error(), false)
		}
		log.Info("branch fast-forwarded", "from", shortHash(localHash), "to", shortHash(remoteHash))
		return models.Success()
	}

	if err := e.git.AddWorktree(ctx, root, syncPath, branch); err != nil {
		// A directory left behind by a removed worktree blocks the add.
		_ = e.git.PruneWorktrees(ctx, root)
		return models.MergeFailed(err.Error(), false)
	}
	return e.mergeInWorktree(ctx, root, branch, remoteRef, syncPath, mode)
}

func (e *Executor) hasWorktree(ctx context.Context, root, path string) (bool, error) {
	worktrees, err := e.git.ListWorktrees(ctx, root)
	if err != nil {
		return false, err
	}
	for _, wt := range worktrees {
		if !wt.Prunable && fs.PathsEqual(fs.CanonicalPath(wt.Path), fs.CanonicalPath(path)) {
			return true, nil
		}
	}
	return false, nil
}

func (e *Executor) mergeInWorktree(ctx context.Context, root, branch, ref, path string, mode models.ConflictMode) models.SyncOutcome {
	log := logger.WithComponent("updater").With("repository", root, "branch", branch, "worktree", path)

	err := e.git.Merge(ctx, path, ref)
	if err == nil {
		e.cleanup(ctx, root, path)
		log.Info("branch merged", "from", ref)
		return models.Success()
	}
	if isMissingRef(err) {
		e.abort(ctx, path)
		e.cleanup(ctx, root, path)
		return models.MergeFailed(git.Stderr(err), false)
	}

	log.WithError(errors.ErrMergeConflict(branch, err)).Warn("merge conflicted", "mode", mode.String())

	switch mode {
	case models.ConflictNotify:
		return e.leaveForResolution(ctx, branch, path, "")
	case models.ConflictAutoStash:
		return e.retryWithStash(ctx, root, branch, ref, path)
	default:
		e.abort(ctx, path)
		e.cleanup(ctx, root, path)
		return models.MergeFailed(fmt.Sprintf("merge of %s into %s conflicted and was aborted", ref, branch), true)
	}
}

func (e *Executor) retryWithStash(ctx context.Context, root, branch, ref, path string) models.SyncOutcome {
	log := logger.WithComponent("updater").With("repository", root, "branch", branch, "worktree", path)

	e.abort(ctx, path)

	stashed := false
	if pending, err := e.git.PendingChanges(ctx, path); err == nil && pending > 0 {
		stashed, err = e.git.StashPush(ctx, path, "avalanche: auto-stash before merging "+ref)
		if err != nil {
			log.Warn("auto-stash failed", "error", err)
			return e.leaveForResolution(ctx, branch, path, "")
		}
	}

	if err := e.git.Merge(ctx, path, ref); err != nil {
		log.Warn("merge conflicted again after auto-stash", "error", git.Stderr(err))
		note := ""
		if stashed {
			note = "; local changes are kept in the stash"
		}
		return e.leaveForResolution(ctx, branch, path, note)
	}

	if stashed {
		if err := e.git.StashPop(ctx, path); err != nil {
			log.Warn("restoring auto-stash conflicted", "error", err)
			return e.leaveForResolution(ctx, branch, path, "; the merge succeeded but restoring the stash conflicted")
		}
	}

	e.cleanup(ctx, root, path)
	log.Info("branch merged after auto-stash", "from", ref)
	return models.Success()
}

func (e *Executor) leaveForResolution(ctx context.Context, branch, path, note string) models.SyncOutcome {
	outcome := models.MergeFailed(fmt.Sprintf("merge into %s conflicted; resolve it in %s%s", branch, path, note), true)
	outcome.Worktree = path

	files, err := e.git.ConflictedFiles(ctx, path)
	if err != nil {
		logger.WithComponent("updater").Debug("cannot list conflicted files", "worktree", path, "error", err)
		return outcome
	}
	outcome.ConflictedFiles = files
	if len(files) > 0 {
		outcome.Message += fmt.Sprintf(" (conflicts in %s)", strings.Join(files, ", "))
	}
	return outcome
}

// abort undoes a merge only if one is in progress.
func (e *Executor) abort(ctx context.Context, path string) {
	gitDir, err := e.git.GitDir(ctx, path)
	if err != nil || e.git.OngoingOperation(gitDir) != "merge" {
		return
	}
	if err := e.git.AbortMerge(ctx, path); err != nil {
		logger.WithComponent("updater").Warn("merge abort failed", "worktree", path, "error", err)
	}
}

// cleanup removes the sync worktree. A worktree holding changes is left in
// place rather than discarded.
func (e *Executor) cleanup(ctx context.Context, root, path string) {
	if err := e.git.RemoveWorktree(ctx, root, path, false); err != nil {
		logger.WithComponent("updater").Warn("sync worktree left in place", "worktree", path, "error", err)
	}
}

func isMissingRef(err error) bool {
	return strings.Contains(git.Stderr(err), "not something we can merge")
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
