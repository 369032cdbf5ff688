package git

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqve/avalanche/internal/errors"
)

func TestCurrentBranch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns branch name", func(t *testing.T) {
		m := &MockGitCommander{}
		m.On("Run", "/repo", "symbolic-ref", "--quiet", "--short", "HEAD").
			Return([]byte("feature/x\n"), []byte(nil), nil)

		branch, err := NewClient(m).CurrentBranch(ctx, "/repo")
		require.NoError(t, err)
		assert.Equal(t, "feature/x", branch)
		m.AssertExpectations(t)
	})

	t.Run("detached head", func(t *testing.T) {
		m := &MockGitCommander{}
		m.On("Run", "/repo", "symbolic-ref", "--quiet", "--short", "HEAD").
			Return([]byte(nil), []byte(nil), exitErr(1, ""))

		branch, err := NewClient(m).CurrentBranch(ctx, "/repo")
		require.NoError(t, err)
		assert.Empty(t, branch)
	})

	t.Run("other failure", func(t *testing.T) {
		m := &MockGitCommander{}
		m.On("Run", "/repo", "symbolic-ref", "--quiet", "--short", "HEAD").
			Return([]byte(nil), []byte("fatal"), exitErr(128, "fatal: not a git repository"))

		_, err := NewClient(m).CurrentBranch(ctx, "/repo")
		require.Error(t, err)
		assert.True(t, errors.IsAvalancheError(err, errors.ErrCodeGitOperation))
	})
}

func TestBranchExists(t *testing.T) {
	ctx := context.Background()

	m := &MockGitCommander{}
	m.On("RunQuiet", "/repo", "show-ref", "--verify", "--quiet", "refs/heads/main").Return(nil)
	m.On("RunQuiet", "/repo", "show-ref", "--verify", "--quiet", "refs/heads/gone").Return(exitErr(1, ""))
	m.On("RunQuiet", "/repo", "show-ref", "--verify", "--quiet", "refs/remotes/origin/main").Return(nil)
	m.On("RunQuiet", "/broken", "show-ref", "--verify", "--quiet", "refs/heads/main").Return(exitErr(128, "fatal"))

	client := NewClient(m)

	exists, err := client.BranchExists(ctx, "/repo", "main")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.BranchExists(ctx, "/repo", "gone")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = client.RemoteBranchExists(ctx, "/repo", "origin", "main")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = client.BranchExists(ctx, "/broken", "main")
	assert.Error(t, err)
}

func TestListBranches(t *testing.T) {
	m := &MockGitCommander{}
	m.On("Run", "/repo", "for-each-ref", "--format=%(refname:short)", "refs/heads").
		Return([]byte("feature/x\nmain\n\n"), []byte(nil), nil)

	branches, err := NewClient(m).ListBranches(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, []string{"feature/x", "main"}, branches)
}

func TestPickRemote(t *testing.T) {
	tests := []struct {
		name      string
		remotes   []string
		preferred string
		want      string
	}{
		{"no remotes", nil, "origin", ""},
		{"preferred present", []string{"origin", "upstream"}, "upstream", "upstream"},
		{"preferred missing falls back to origin", []string{"fork", "origin"}, "upstream", "origin"},
		{"first remote when no origin", []string{"fork", "mirror"}, "", "fork"},
		{"empty preference", []string{"origin"}, "", "origin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickRemote(tt.remotes, tt.preferred))
		})
	}
}

func TestDefaultRemote(t *testing.T) {
	m := &MockGitCommander{}
	m.On("Run", "/repo", "remote").Return([]byte("fork\nupstream\n"), []byte(nil), nil)

	remote, err := NewClient(m).DefaultRemote(context.Background(), "/repo", "origin")
	require.NoError(t, err)
	assert.Equal(t, "fork", remote)
}

func TestFetchFailureIsNetworkError(t *testing.T) {
	m := &MockGitCommander{}
	m.On("Run", "/repo", "fetch", "--prune", "--quiet", "origin").
		Return([]byte(nil), []byte("fatal: unable to access"), exitErr(128, "fatal: unable to access"))

	err := NewClient(m).Fetch(context.Background(), "/repo", "origin")
	require.Error(t, err)
	assert.True(t, errors.IsAvalancheError(err, errors.ErrCodeNetworkOrRemote))
	assert.Equal(t, "fatal: unable to access", Stderr(err))
}

func TestIsAncestor(t *testing.T) {
	m := &MockGitCommander{}
	m.On("RunQuiet", "/repo", "merge-base", "--is-ancestor", "a", "b").Return(nil)
	m.On("RunQuiet", "/repo", "merge-base", "--is-ancestor", "b", "a").Return(exitErr(1, ""))
	m.On("RunQuiet", "/repo", "merge-base", "--is-ancestor", "x", "a").Return(exitErr(128, "bad object"))

	client := NewClient(m)

	ok, err := client.IsAncestor(context.Background(), "/repo", "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.IsAncestor(context.Background(), "/repo", "b", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = client.IsAncestor(context.Background(), "/repo", "x", "a")
	assert.Error(t, err)
}

func TestPendingChanges(t *testing.T) {
	m := &MockGitCommander{}
	m.On("Run", "/repo", "status", "--porcelain").
		Return([]byte(" M a.txt\n?? b.txt\n\n"), []byte(nil), nil)

	count, err := NewClient(m).PendingChanges(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCommonDirRelative(t *testing.T) {
	m := &MockGitCommander{}
	m.On("Run", "/repo", "rev-parse", "--git-common-dir").Return([]byte(".git\n"), []byte(nil), nil)

	dir, err := NewClient(m).CommonDir(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/repo", ".git"), dir)
}

func TestOngoingOperationMarkers(t *testing.T) {
	tests := []struct {
		marker string
		want   string
	}{
		{"MERGE_HEAD", "merge"},
		{"rebase-merge", "rebase"},
		{"rebase-apply", "rebase"},
		{"CHERRY_PICK_HEAD", "cherry-pick"},
		{"REVERT_HEAD", "revert"},
	}

	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			require.NoError(t, fsys.MkdirAll("/repo/.git", 0o755))
			require.NoError(t, afero.WriteFile(fsys, filepath.Join("/repo/.git", tt.marker), []byte("x"), 0o644))

			client := NewClient(&MockGitCommander{}).WithFs(fsys)
			assert.Equal(t, tt.want, client.OngoingOperation("/repo/.git"))
		})
	}

	clean := NewClient(&MockGitCommander{}).WithFs(afero.NewMemMapFs())
	assert.Empty(t, clean.OngoingOperation("/repo/.git"))
}

func TestHasIndexLock(t *testing.T) {
	fsys := afero.NewMemMapFs()
	client := NewClient(&MockGitCommander{}).WithFs(fsys)

	assert.False(t, client.HasIndexLock("/repo/.git"))
	require.NoError(t, afero.WriteFile(fsys, "/repo/.git/index.lock", nil, 0o644))
	assert.True(t, client.HasIndexLock("/repo/.git"))
}

func TestExitCodeAndStderr(t *testing.T) {
	err := exitErr(2, "boom", "status")
	assert.Equal(t, 2, ExitCode(err))
	assert.Equal(t, "boom", Stderr(err))
	assert.Equal(t, "git status failed (exit 2): boom", err.Error())

	wrapped := errors.ErrGitOperation("status", err)
	assert.Equal(t, 2, ExitCode(wrapped))

	assert.Equal(t, -1, ExitCode(errors.New("plain")))
	assert.Equal(t, "plain", Stderr(errors.New("plain")))
	assert.Empty(t, Stderr(nil))
}
