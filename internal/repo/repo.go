// Package repo enumerates and inspects the repositories of a project.
package repo

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/sqve/avalanche/internal/errors"
	avfs "github.com/sqve/avalanche/internal/fs"
	"github.com/sqve/avalanche/internal/git"
	"github.com/sqve/avalanche/internal/lock"
	"github.com/sqve/avalanche/internal/logger"
)

// State is a fresh read of a repository. It is never cached across ticks.
type State struct {
	Root      string
	GitDir    string
	CommonDir string
	// CurrentBranch is "" when HEAD is detached.
	CurrentBranch string
	// CheckedOut maps branches checked out in the main or a user's linked
	// worktree to that worktree's path. Sync worktrees are excluded.
	CheckedOut map[string]string
	// SyncWorktrees maps branches to their leftover sync worktree.
	SyncWorktrees map[string]string
	// SyncOperations maps branches to the operation in progress in their
	// sync worktree.
	SyncOperations map[string]string
	// Operation is the operation in progress in the main worktree, or "".
	Operation     string
	Frozen        bool
	FrozenReason  string
	Remotes       []string
	DefaultRemote string
}

// IsCheckedOut reports whether branch is the current checkout or is checked
// out in another worktree of the repository.
func (s *State) IsCheckedOut(branch string) bool {
	if s.CurrentBranch == branch {
		return true
	}
	_, ok := s.CheckedOut[branch]
	return ok
}

// OperationFor returns the operation in progress that blocks branch.
func (s *State) OperationFor(branch string) string {
	if s.Operation != "" {
		return s.Operation
	}
	return s.SyncOperations[branch]
}

// Directory knows the repositories of one project.
type Directory interface {
	// Repositories lists repository roots, sorted.
	Repositories(ctx context.Context) ([]string, error)
	State(ctx context.Context, root string) (*State, error)
	BranchExists(ctx context.Context, root, branch string) (bool, error)
}

const (
	freezeMarkerDir  = "avalanche"
	freezeMarkerName = "frozen"
	syncLockName     = "sync.lock"
)

// GitDirectory discovers repositories on disk under a project root.
type GitDirectory struct {
	project         string
	client          *git.Client
	fsys            afero.Fs
	scanDepth       int
	preferredRemote string
}

type Option func(*GitDirectory)

func WithScanDepth(depth int) Option {
	return func(d *GitDirectory) { d.scanDepth = depth }
}

func WithPreferredRemote(remote string) Option {
	return func(d *GitDirectory) { d.preferredRemote = remote }
}

func WithFs(fsys afero.Fs) Option {
	return func(d *GitDirectory) { d.fsys = fsys }
}

func NewGitDirectory(project string, client *git.Client, opts ...Option) *GitDirectory {
	d := &GitDirectory{
		project:         avfs.CanonicalPath(project),
		client:          client,
		fsys:            afero.NewOsFs(),
		scanDepth:       2,
		preferredRemote: "origin",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *GitDirectory) Project() string {
	return d.project
}

// Repositories returns the repository containing the project root, if any,
// plus every main worktree found below it within the scan depth. Linked
// worktrees and directories inside .git are not repositories of their own.
func (d *GitDirectory) Repositories(ctx context.Context) ([]string, error) {
	log := logger.WithComponent("repo")
	found := make(map[string]bool)

	if !avfs.DirectoryExists(d.fsys, d.project) {
		return nil, errors.ErrRepoNotFound(d.project)
	}

	// A project rooted in a linked worktree has a .git file, not a directory.
	if top, err := d.client.TopLevel(ctx, d.project); err == nil && avfs.PathsEqual(avfs.CanonicalPath(top), d.project) {
		found[d.project] = true
	}

	err := d.scan(d.project, 0, found)
	if err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(found))
	for root := range found {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	log.Debug("repositories discovered", "project", d.project, "count", len(roots))
	return roots, nil
}

func (d *GitDirectory) scan(dir string, depth int, found map[string]bool) error {
	if avfs.DirectoryExists(d.fsys, filepath.Join(dir, ".git")) {
		found[dir] = true
	}
	if depth >= d.scanDepth {
		return nil
	}

	entries, err := afero.ReadDir(d.fsys, dir)
	if err != nil {
		if depth == 0 {
			return errors.NewAvalancheError(errors.ErrCodeRepoNotFound, "cannot read project directory", err).
				WithContext("path", dir)
		}
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Mode()&fs.ModeSymlink != 0 || skipDir(entry.Name()) {
			continue
		}
		if err := d.scan(filepath.Join(dir, entry.Name()), depth+1, found); err != nil {
			return err
		}
	}
	return nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor"
}

// Contains reports whether root is one of the project's repositories.
func (d *GitDirectory) Contains(ctx context.Context, root string) (bool, error) {
	roots, err := d.Repositories(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(roots, avfs.CanonicalPath(root)), nil
}

func (d *GitDirectory) State(ctx context.Context, root string) (*State, error) {
	state := &State{
		Root:           root,
		CheckedOut:     make(map[string]string),
		SyncWorktrees:  make(map[string]string),
		SyncOperations: make(map[string]string),
	}

	var err error
	if state.GitDir, err = d.client.GitDir(ctx, root); err != nil {
		return nil, err
	}
	if state.CommonDir, err = d.client.CommonDir(ctx, root); err != nil {
		return nil, err
	}
	if state.CurrentBranch, err = d.client.CurrentBranch(ctx, root); err != nil {
		return nil, err
	}

	worktrees, err := d.client.ListWorktrees(ctx, root)
	if err != nil {
		return nil, err
	}
	for _, wt := range worktrees {
		if wt.Branch == "" || wt.Prunable {
			continue
		}
		if git.IsSyncWorktree(state.CommonDir, wt.Path) {
			state.SyncWorktrees[wt.Branch] = wt.Path
			if gitDir, err := d.client.GitDir(ctx, wt.Path); err == nil {
				if op := d.client.OngoingOperation(gitDir); op != "" {
					state.SyncOperations[wt.Branch] = op
				}
			}
			continue
		}
		if !avfs.PathsEqual(avfs.CanonicalPath(wt.Path), avfs.CanonicalPath(root)) {
			state.CheckedOut[wt.Branch] = wt.Path
		}
	}

	state.Operation = d.client.OngoingOperation(state.GitDir)

	switch {
	case d.client.HasIndexLock(state.GitDir):
		state.Frozen, state.FrozenReason = true, "index.lock present"
	case avfs.FileExists(d.fsys, FreezeMarkerPath(state.CommonDir)):
		state.Frozen, state.FrozenReason = true, "frozen by user"
	}

	if state.Remotes, err = d.client.ListRemotes(ctx, root); err != nil {
		return nil, err
	}
	state.DefaultRemote, _ = d.client.DefaultRemote(ctx, root, d.preferredRemote)

	return state, nil
}

func (d *GitDirectory) BranchExists(ctx context.Context, root, branch string) (bool, error) {
	return d.client.BranchExists(ctx, root, branch)
}

// FreezeMarkerPath is the file whose presence freezes a repository.
func FreezeMarkerPath(commonDir string) string {
	return filepath.Join(commonDir, freezeMarkerDir, freezeMarkerName)
}

// Freeze stops automatic updates for root until Unfreeze.
func (d *GitDirectory) Freeze(ctx context.Context, root string) error {
	commonDir, err := d.client.CommonDir(ctx, root)
	if err != nil {
		return err
	}
	marker := FreezeMarkerPath(commonDir)
	if err := d.fsys.MkdirAll(filepath.Dir(marker), avfs.DirGit); err != nil {
		return errors.ErrStoreIO(marker, err)
	}
	if err := afero.WriteFile(d.fsys, marker, nil, avfs.FileGit); err != nil {
		return errors.ErrStoreIO(marker, err)
	}
	return nil
}

// Unfreeze removes the freeze marker. It is not an error if none exists.
func (d *GitDirectory) Unfreeze(ctx context.Context, root string) error {
	commonDir, err := d.client.CommonDir(ctx, root)
	if err != nil {
		return err
	}
	marker := FreezeMarkerPath(commonDir)
	if err := d.fsys.Remove(marker); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.ErrStoreIO(marker, err)
	}
	return nil
}

// SyncLockPath is the lock file held while a repository is being updated.
func SyncLockPath(commonDir string) string {
	return filepath.Join(commonDir, freezeMarkerDir, syncLockName)
}

// LockForSync takes the repository's sync lock. The lock lives in the common
// git directory so every worktree and every avalanche process shares it.
// A live holder yields a LOCK_HELD error.
func (d *GitDirectory) LockForSync(ctx context.Context, root string) (*lock.Lock, error) {
	commonDir, err := d.client.CommonDir(ctx, root)
	if err != nil {
		return nil, err
	}
	path := SyncLockPath(commonDir)
	if err := d.fsys.MkdirAll(filepath.Dir(path), avfs.DirGit); err != nil {
		return nil, errors.ErrStoreIO(path, err)
	}
	return lock.Acquire(d.fsys, path)
}
