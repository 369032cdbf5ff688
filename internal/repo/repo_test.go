package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/git"
	"github.com/sqve/avalanche/internal/testutil"
	testgit "github.com/sqve/avalanche/internal/testutil/git"
)

func initRepo(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
	testutil.MustExec(t, path, "git", "init", "--quiet", "-b", "main")
}

func TestRepositoriesScansNestedDirectories(t *testing.T) {
	testutil.RequireGit(t)
	project := testutil.TempDir(t)

	initRepo(t, filepath.Join(project, "api"))
	initRepo(t, filepath.Join(project, "libs", "shared"))
	initRepo(t, filepath.Join(project, "libs", "deep", "too-deep"))
	initRepo(t, filepath.Join(project, ".cache", "hidden"))
	require.NoError(t, os.MkdirAll(filepath.Join(project, "docs"), 0o755))

	dir := NewGitDirectory(project, git.NewClient(nil), WithScanDepth(2))
	roots, err := dir.Repositories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(project, "api"),
		filepath.Join(project, "libs", "shared"),
	}, roots)
}

func TestRepositoriesIncludesProjectRoot(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	initRepo(t, filepath.Join(repo.Path, "vendor-like", "nested"))

	dir := NewGitDirectory(repo.Path, git.NewClient(nil))
	roots, err := dir.Repositories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{repo.Path, filepath.Join(repo.Path, "vendor-like", "nested")}, roots)
}

func TestRepositoriesSkipsLinkedWorktrees(t *testing.T) {
	project := testutil.TempDir(t)
	main := filepath.Join(project, "app")
	initRepo(t, main)
	repo := testgit.Open(t, main)
	repo.Git("config", "user.email", "test@example.com")
	repo.Git("config", "user.name", "Test User")
	repo.Git("config", "commit.gpgsign", "false")
	repo.CommitFile("a.txt", "a", "init")
	repo.Git("worktree", "add", "--quiet", filepath.Join(project, "app-feature"), "-b", "feature")

	dir := NewGitDirectory(project, git.NewClient(nil))
	roots, err := dir.Repositories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{main}, roots)
}

func TestRepositoriesMissingProject(t *testing.T) {
	dir := NewGitDirectory(filepath.Join(testutil.TempDir(t), "missing"), git.NewClient(nil))
	_, err := dir.Repositories(context.Background())
	testutil.AssertErrorContains(t, err, "repository not found")
}

func TestStateReadsCheckoutsAndRemotes(t *testing.T) {
	fixture := testgit.NewSyncFixture(t, "feature", "release")
	local := fixture.Local
	other := filepath.Join(filepath.Dir(local.Path), "release-wt")
	local.Git("worktree", "add", "--quiet", other, "release")

	dir := NewGitDirectory(local.Path, git.NewClient(nil))
	state, err := dir.State(context.Background(), local.Path)
	require.NoError(t, err)

	assert.Equal(t, "main", state.CurrentBranch)
	assert.Equal(t, map[string]string{"release": other}, state.CheckedOut)
	assert.True(t, state.IsCheckedOut("main"))
	assert.True(t, state.IsCheckedOut("release"))
	assert.False(t, state.IsCheckedOut("feature"))
	assert.Equal(t, []string{"origin"}, state.Remotes)
	assert.Equal(t, "origin", state.DefaultRemote)
	assert.Empty(t, state.Operation)
	assert.False(t, state.Frozen)
}

func TestStateExcludesSyncWorktrees(t *testing.T) {
	fixture := testgit.NewSyncFixture(t, "feature")
	local := fixture.Local
	client := git.NewClient(nil)
	ctx := context.Background()

	commonDir, err := client.CommonDir(ctx, local.Path)
	require.NoError(t, err)
	syncPath := git.SyncWorktreePath(commonDir, "feature")
	require.NoError(t, client.AddWorktree(ctx, local.Path, syncPath, "feature"))

	wtGitDir, err := client.GitDir(ctx, syncPath)
	require.NoError(t, err)
	testutil.WriteFile(t, filepath.Join(wtGitDir, "MERGE_HEAD"), local.Head("HEAD")+"\n")

	state, err := NewGitDirectory(local.Path, client).State(ctx, local.Path)
	require.NoError(t, err)

	assert.False(t, state.IsCheckedOut("feature"))
	assert.Equal(t, syncPath, state.SyncWorktrees["feature"])
	assert.Equal(t, "merge", state.OperationFor("feature"))
	assert.Empty(t, state.OperationFor("main"))
}

func TestStateDetectsOperationAndIndexLock(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	dir := NewGitDirectory(repo.Path, git.NewClient(nil))
	ctx := context.Background()

	testutil.WriteFile(t, filepath.Join(repo.GitDir(), "rebase-merge", "head-name"), "refs/heads/main\n")
	state, err := dir.State(ctx, repo.Path)
	require.NoError(t, err)
	assert.Equal(t, "rebase", state.Operation)
	assert.Equal(t, "rebase", state.OperationFor("anything"))
	require.NoError(t, os.RemoveAll(filepath.Join(repo.GitDir(), "rebase-merge")))

	testutil.WriteFile(t, filepath.Join(repo.GitDir(), "index.lock"), "")
	state, err = dir.State(ctx, repo.Path)
	require.NoError(t, err)
	assert.True(t, state.Frozen)
	assert.Equal(t, "index.lock present", state.FrozenReason)
	assert.Empty(t, state.DefaultRemote)
}

func TestFreezeAndUnfreeze(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	dir := NewGitDirectory(repo.Path, git.NewClient(nil))
	ctx := context.Background()

	require.NoError(t, dir.Freeze(ctx, repo.Path))
	testutil.AssertPathExists(t, FreezeMarkerPath(repo.GitDir()))

	state, err := dir.State(ctx, repo.Path)
	require.NoError(t, err)
	assert.True(t, state.Frozen)
	assert.Equal(t, "frozen by user", state.FrozenReason)

	require.NoError(t, dir.Unfreeze(ctx, repo.Path))
	require.NoError(t, dir.Unfreeze(ctx, repo.Path))

	state, err = dir.State(ctx, repo.Path)
	require.NoError(t, err)
	assert.False(t, state.Frozen)
}

func TestLockForSyncIsExclusive(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	dir := NewGitDirectory(repo.Path, git.NewClient(nil))
	ctx := context.Background()

	held, err := dir.LockForSync(ctx, repo.Path)
	require.NoError(t, err)
	assert.Equal(t, SyncLockPath(repo.GitDir()), held.Path())
	testutil.AssertPathExists(t, held.Path())

	_, err = dir.LockForSync(ctx, repo.Path)
	require.Error(t, err)
	assert.True(t, errors.IsAvalancheError(err, errors.ErrCodeLockHeld))

	require.NoError(t, held.Release())
	testutil.AssertPathNotExists(t, held.Path())

	again, err := dir.LockForSync(ctx, repo.Path)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestBranchExists(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	repo.CreateBranch("feature")
	dir := NewGitDirectory(repo.Path, git.NewClient(nil))

	exists, err := dir.BranchExists(context.Background(), repo.Path, "feature")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = dir.BranchExists(context.Background(), repo.Path, "gone")
	require.NoError(t, err)
	assert.False(t, exists)
}
