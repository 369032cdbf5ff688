package git

import (
	"container/heap"
	"context"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/logger"
	"github.com/sqve/avalanche/internal/models"
)

var (
	ErrNoUpstream      = errors.New("no upstream configured")
	ErrUpstreamMissing = errors.New("upstream ref does not exist")
)

// Tracking compares refs/heads/<branch> with its configured upstream using
// go-git. Every failure, including a branch without upstream, is reported
// as UNKNOWN_REPO_STATE.
func (c *Client) Tracking(ctx context.Context, root, branch string) (models.TrackingStatus, error) {
	log := logger.WithComponent("tracking")

	status, err := tracking(ctx, root, branch)
	if err != nil {
		log.Debug("tracking status unavailable", "path", root, "branch", branch, "error", err)
		return models.TrackingStatus{}, errors.ErrUnknownRepoState(root, err).WithContext("branch", branch)
	}
	return status, nil
}

func tracking(ctx context.Context, root, branch string) (models.TrackingStatus, error) {
	repo, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return models.TrackingStatus{}, errors.Wrap(err, "open repository")
	}

	cfg, err := repo.Config()
	if err != nil {
		return models.TrackingStatus{}, errors.Wrap(err, "read config")
	}

	branchCfg, ok := cfg.Branches[branch]
	if !ok || branchCfg.Remote == "" || branchCfg.Merge == "" {
		return models.TrackingStatus{}, ErrNoUpstream
	}

	upstreamName := branchCfg.Merge
	if branchCfg.Remote != "." {
		upstreamName = plumbing.NewRemoteReferenceName(branchCfg.Remote, branchCfg.Merge.Short())
	}

	localRef, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return models.TrackingStatus{}, errors.Wrapf(err, "resolve %s", branch)
	}
	upstreamRef, err := repo.Reference(upstreamName, true)
	if err != nil {
		return models.TrackingStatus{}, errors.Wrapf(ErrUpstreamMissing, "%s", upstreamName.String())
	}

	status := models.TrackingStatus{Upstream: upstreamName.Short()}
	if localRef.Hash() == upstreamRef.Hash() {
		return status, nil
	}

	localCommit, err := repo.CommitObject(localRef.Hash())
	if err != nil {
		return models.TrackingStatus{}, errors.Wrap(err, "load local commit")
	}
	upstreamCommit, err := repo.CommitObject(upstreamRef.Hash())
	if err != nil {
		return models.TrackingStatus{}, errors.Wrap(err, "load upstream commit")
	}

	counts, err := divergence(ctx, repo, localCommit, upstreamCommit)
	if err != nil {
		return models.TrackingStatus{}, err
	}
	status.Ahead, status.Behind = counts.ahead, counts.behind
	return status, nil
}

const (
	fromLocal uint8 = 1 << iota
	fromUpstream
	shared = fromLocal | fromUpstream
)

// extraSharedPops keeps walking a little past the point where every queued
// commit is shared, which absorbs small committer clock skew.
const extraSharedPops = 5

type divergenceCounts struct {
	ahead   int
	behind  int
	visited int
}

// divergence paints commits reachable from each tip, newest first, and stops
// once every commit still queued is reachable from both. Only the unshared
// history and its boundary are loaded.
func divergence(ctx context.Context, repo *gogit.Repository, local, upstream *object.Commit) (divergenceCounts, error) {
	marks := map[plumbing.Hash]uint8{local.Hash: fromLocal}
	marks[upstream.Hash] |= fromUpstream

	queue := &commitQueue{}
	queue.add(local)
	if upstream.Hash != local.Hash {
		queue.add(upstream)
	}

	var counts divergenceCounts
	slop := extraSharedPops
	for queue.Len() > 0 {
		if queue.hasUnshared(marks) {
			slop = extraSharedPops
		} else if slop == 0 {
			break
		} else {
			slop--
		}
		if err := ctx.Err(); err != nil {
			return divergenceCounts{}, err
		}

		commit := heap.Pop(queue).(queuedCommit).commit
		counts.visited++
		mark := marks[commit.Hash]

		for _, parentHash := range commit.ParentHashes {
			if marks[parentHash]|mark == marks[parentHash] {
				continue
			}
			marks[parentHash] |= mark
			parent, err := repo.CommitObject(parentHash)
			if err != nil {
				return divergenceCounts{}, errors.Wrapf(err, "load commit %s", parentHash)
			}
			queue.add(parent)
		}
	}

	for _, mark := range marks {
		switch mark {
		case fromLocal:
			counts.ahead++
		case fromUpstream:
			counts.behind++
		}
	}
	return counts, nil
}

type queuedCommit struct {
	commit *object.Commit
	seq    int
}

// commitQueue pops the most recently committed commit first, and commits
// with equal timestamps in the order they were queued.
type commitQueue struct {
	items []queuedCommit
	next  int
}

func (q *commitQueue) add(commit *object.Commit) {
	heap.Push(q, queuedCommit{commit: commit, seq: q.next})
	q.next++
}

func (q *commitQueue) Len() int { return len(q.items) }

func (q *commitQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if !a.commit.Committer.When.Equal(b.commit.Committer.When) {
		return a.commit.Committer.When.After(b.commit.Committer.When)
	}
	return a.seq < b.seq
}

func (q *commitQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *commitQueue) Push(x any) { q.items = append(q.items, x.(queuedCommit)) }

func (q *commitQueue) Pop() any {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}

func (q *commitQueue) hasUnshared(marks map[plumbing.Hash]uint8) bool {
	for _, item := range q.items {
		if marks[item.commit.Hash] != shared {
			return true
		}
	}
	return false
}
