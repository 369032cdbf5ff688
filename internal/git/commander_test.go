package git

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqve/avalanche/internal/testutil"
	testgit "github.com/sqve/avalanche/internal/testutil/git"
)

func TestLiveGitCommanderRun(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	c := NewLiveGitCommander()

	stdout, _, err := c.Run(context.Background(), repo.Path, "rev-parse", "--abbrev-ref", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, "main\n", string(stdout))
}

func TestLiveGitCommanderError(t *testing.T) {
	testutil.RequireGit(t)
	dir := testutil.TempDir(t)
	c := NewLiveGitCommander()

	_, _, err := c.Run(context.Background(), dir, "rev-parse", "--show-toplevel")
	require.Error(t, err)

	var gitErr *GitError
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, 128, gitErr.ExitCode)
	assert.Contains(t, gitErr.Stderr, "not a git repository")
	assert.Equal(t, []string{"rev-parse", "--show-toplevel"}, gitErr.Args)
}

func TestLiveGitCommanderRunQuiet(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	c := NewLiveGitCommander()

	assert.NoError(t, c.RunQuiet(context.Background(), repo.Path, "show-ref", "--verify", "--quiet", "refs/heads/main"))

	err := c.RunQuiet(context.Background(), repo.Path, "show-ref", "--verify", "--quiet", "refs/heads/missing")
	assert.Equal(t, 1, ExitCode(err))
}

func TestLiveGitCommanderTimeout(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	c := &LiveGitCommander{Timeout: time.Nanosecond}

	_, _, err := c.Run(context.Background(), repo.Path, "status")
	require.Error(t, err)
}

func TestClientAgainstRealRepository(t *testing.T) {
	fixture := testgit.NewSyncFixture(t, "feature")
	client := NewClient(nil)
	ctx := context.Background()
	root := fixture.Local.Path

	top, err := client.TopLevel(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, root, top)

	branch, err := client.CurrentBranch(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	remotes, err := client.ListRemotes(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"origin"}, remotes)

	count, err := client.PendingChanges(ctx, root)
	require.NoError(t, err)
	assert.Zero(t, count)

	fixture.Local.WriteFile("scratch.txt", "wip")
	count, err = client.PendingChanges(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	local, err := client.ResolveCommit(ctx, root, "refs/heads/feature")
	require.NoError(t, err)
	remote, err := client.ResolveCommit(ctx, root, RemoteRef("origin", "feature"))
	require.NoError(t, err)
	assert.Equal(t, local, remote)

	gitDir, err := client.GitDir(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, fixture.Local.GitDir(), gitDir)
}
