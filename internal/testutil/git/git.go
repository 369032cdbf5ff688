package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sqve/avalanche/internal/fs"
	"github.com/sqve/avalanche/internal/testutil"
)

// TestRepo provides a test git repository with proper configuration
type TestRepo struct {
	t    *testing.T
	Path string
}

// Open wraps an existing repository directory.
func Open(t *testing.T, path string) *TestRepo {
	t.Helper()
	return &TestRepo{t: t, Path: path}
}

// NewTestRepo creates a new test repository with git config set up and an
// initial commit. Pass an optional branch name (default "main").
func NewTestRepo(t *testing.T, branchName ...string) *TestRepo {
	t.Helper()
	testutil.RequireGit(t)

	repoPath := filepath.Join(testutil.TempDir(t), "repo")
	if err := os.MkdirAll(repoPath, fs.DirGit); err != nil {
		t.Fatalf("Failed to create repo dir: %v", err)
	}

	branch := "main"
	if len(branchName) > 0 && branchName[0] != "" {
		branch = branchName[0]
	}

	r := &TestRepo{t: t, Path: repoPath}
	r.Git("init", "-b", branch)
	r.configure()
	r.CommitFile("test.txt", "test", "initial")
	return r
}

func (r *TestRepo) configure() {
	r.t.Helper()
	r.Git("config", "commit.gpgsign", "false")
	r.Git("config", "user.email", "test@example.com")
	r.Git("config", "user.name", "Test User")
}

// Git runs git in the repository and returns trimmed output.
func (r *TestRepo) Git(args ...string) string {
	r.t.Helper()
	return testutil.MustExec(r.t, r.Path, "git", args...)
}

// AddRemote adds a remote to the repository
func (r *TestRepo) AddRemote(name, url string) {
	r.t.Helper()
	r.Git("remote", "add", name, url)
}

// CreateBranch creates a new branch at the current HEAD
func (r *TestRepo) CreateBranch(name string) {
	r.t.Helper()
	r.Git("branch", name)
}

// Checkout switches to a branch
func (r *TestRepo) Checkout(name string) {
	r.t.Helper()
	r.Git("checkout", "--quiet", name)
}

// WriteFile writes content to a file in the repository
func (r *TestRepo) WriteFile(name, content string) {
	r.t.Helper()
	testutil.WriteFile(r.t, filepath.Join(r.Path, name), content)
}

// CommitFile writes, stages and commits a single file.
func (r *TestRepo) CommitFile(name, content, message string) {
	r.t.Helper()
	r.WriteFile(name, content)
	r.Git("add", name)
	r.Git("commit", "--quiet", "-m", message)
}

// Head returns the commit hash ref points at.
func (r *TestRepo) Head(ref string) string {
	r.t.Helper()
	return r.Git("rev-parse", ref)
}

// GitDir returns the absolute git directory.
func (r *TestRepo) GitDir() string {
	r.t.Helper()
	return r.Git("rev-parse", "--absolute-git-dir")
}

// SyncFixture is an upstream working copy, the bare remote it pushes to, and
// a local clone that tracks the remote.
type SyncFixture struct {
	t        *testing.T
	Upstream *TestRepo
	Remote   string
	Local    *TestRepo
}

// NewSyncFixture creates upstream with branches main and the given extra
// branches, pushes them to a bare remote and clones it. Every branch exists
// locally with upstream tracking configured; main is checked out.
func NewSyncFixture(t *testing.T, branches ...string) *SyncFixture {
	t.Helper()

	upstream := NewTestRepo(t)
	for _, branch := range branches {
		upstream.CreateBranch(branch)
	}

	base := filepath.Dir(upstream.Path)
	remote := filepath.Join(base, "remote.git")
	testutil.MustExec(t, base, "git", "clone", "--quiet", "--bare", upstream.Path, remote)
	upstream.AddRemote("origin", remote)
	upstream.Git("fetch", "--quiet", "origin")

	localPath := filepath.Join(base, "local")
	testutil.MustExec(t, base, "git", "clone", "--quiet", remote, localPath)
	local := Open(t, localPath)
	local.configure()
	for _, branch := range branches {
		local.Git("branch", "--quiet", "--track", branch, "origin/"+branch)
	}

	return &SyncFixture{t: t, Upstream: upstream, Remote: remote, Local: local}
}

// PushUpstream commits a file on branch in the upstream copy and pushes it.
func (f *SyncFixture) PushUpstream(branch, name, content string) {
	f.t.Helper()
	f.Upstream.Checkout(branch)
	f.Upstream.CommitFile(name, content, "upstream change to "+name)
	f.Upstream.Git("push", "--quiet", "origin", branch)
	f.Upstream.Checkout("main")
}

// CommitLocal commits a file on branch in the local clone without leaving
// the currently checked out branch.
func (f *SyncFixture) CommitLocal(branch, name, content string) {
	f.t.Helper()
	current := f.Local.Git("symbolic-ref", "--short", "HEAD")
	f.Local.Checkout(branch)
	f.Local.CommitFile(name, content, "local change to "+name)
	f.Local.Checkout(current)
}
