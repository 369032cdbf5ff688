package git

import (
	"context"
	"fmt"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqve/avalanche/internal/errors"
	testgit "github.com/sqve/avalanche/internal/testutil/git"
)

func TestTrackingInSync(t *testing.T) {
	fixture := testgit.NewSyncFixture(t, "feature")

	status, err := NewClient(nil).Tracking(context.Background(), fixture.Local.Path, "feature")
	require.NoError(t, err)
	assert.Equal(t, "origin/feature", status.Upstream)
	assert.Zero(t, status.Ahead)
	assert.Zero(t, status.Behind)
}

func TestTrackingAheadAndBehind(t *testing.T) {
	fixture := testgit.NewSyncFixture(t, "feature")
	fixture.CommitLocal("feature", "local.txt", "local")
	fixture.CommitLocal("feature", "local2.txt", "local")
	fixture.PushUpstream("feature", "remote.txt", "remote")
	fixture.Local.Git("fetch", "--quiet", "origin")

	status, err := NewClient(nil).Tracking(context.Background(), fixture.Local.Path, "feature")
	require.NoError(t, err)
	assert.Equal(t, 2, status.Ahead)
	assert.Equal(t, 1, status.Behind)
}

func TestTrackingAfterMergingUpstream(t *testing.T) {
	fixture := testgit.NewSyncFixture(t, "feature")
	fixture.CommitLocal("feature", "local.txt", "local")
	fixture.PushUpstream("feature", "remote.txt", "remote")
	fixture.Local.Git("fetch", "--quiet", "origin")
	fixture.Local.Checkout("feature")
	fixture.Local.Git("merge", "--quiet", "--no-edit", "origin/feature")
	fixture.Local.Checkout("main")

	status, err := NewClient(nil).Tracking(context.Background(), fixture.Local.Path, "feature")
	require.NoError(t, err)
	assert.Equal(t, 2, status.Ahead, "local commit plus the merge commit")
	assert.Zero(t, status.Behind)
}

func TestDivergenceOnlyWalksUnsharedHistory(t *testing.T) {
	fixture := testgit.NewSyncFixture(t, "feature")
	for i := range 20 {
		fixture.PushUpstream("feature", fmt.Sprintf("shared%d.txt", i), "shared")
	}
	fixture.Local.Git("fetch", "--quiet", "origin")
	fixture.Local.Git("update-ref", "refs/heads/feature", "refs/remotes/origin/feature")
	fixture.CommitLocal("feature", "local.txt", "local")

	repo, err := gogit.PlainOpen(fixture.Local.Path)
	require.NoError(t, err)
	local, err := repo.CommitObject(plumbing.NewHash(fixture.Local.Head("feature")))
	require.NoError(t, err)
	upstream, err := repo.CommitObject(plumbing.NewHash(fixture.Local.Head("origin/feature")))
	require.NoError(t, err)

	counts, err := divergence(context.Background(), repo, local, upstream)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.ahead)
	assert.Zero(t, counts.behind)
	assert.Less(t, counts.visited, 10, "walk stops near the shared boundary")
}

func TestTrackingWithoutUpstream(t *testing.T) {
	repo := testgit.NewTestRepo(t)
	repo.CreateBranch("orphaned")

	_, err := NewClient(nil).Tracking(context.Background(), repo.Path, "orphaned")
	require.Error(t, err)
	assert.True(t, errors.IsAvalancheError(err, errors.ErrCodeUnknownRepoState))
	assert.True(t, errors.Is(err, ErrNoUpstream))
}

func TestTrackingUpstreamRefMissing(t *testing.T) {
	fixture := testgit.NewSyncFixture(t, "feature")
	fixture.Local.Git("update-ref", "-d", "refs/remotes/origin/feature")

	_, err := NewClient(nil).Tracking(context.Background(), fixture.Local.Path, "feature")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamMissing))
}

func TestTrackingUnreadableRepository(t *testing.T) {
	_, err := NewClient(nil).Tracking(context.Background(), t.TempDir(), "main")
	require.Error(t, err)
	assert.True(t, errors.IsAvalancheError(err, errors.ErrCodeUnknownRepoState))
}
