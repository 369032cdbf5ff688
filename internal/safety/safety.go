// Package safety decides whether a tracked branch may be updated right now.
package safety

import (
	"context"

	"github.com/sqve/avalanche/internal/detect"
	"github.com/sqve/avalanche/internal/logger"
	"github.com/sqve/avalanche/internal/models"
	"github.com/sqve/avalanche/internal/repo"
)

// Result is the decision for one branch. Remote is the remote the executor
// fetches from and is only set when the decision allows the update.
type Result struct {
	Decision models.SafetyDecision
	Remote   string
	Changes  detect.Answer
	State    *repo.State
}

type Evaluator struct {
	dir      repo.Directory
	detector *detect.Detector
}

func New(dir repo.Directory, detector *detect.Detector) *Evaluator {
	return &Evaluator{dir: dir, detector: detector}
}

// Evaluate runs the checks in order; the first that matches wins. It returns
// an error only when the repository itself cannot be read.
func (e *Evaluator) Evaluate(ctx context.Context, root, branch string) (Result, error) {
	log := logger.WithComponent("safety")

	state, err := e.dir.State(ctx, root)
	if err != nil {
		return Result{}, err
	}

	result := Result{State: state}
	skip := func(reason models.SkipReason) (Result, error) {
		result.Decision = models.Skip(reason)
		log.Debug("update skipped", "repository", root, "branch", branch, "reason", reason.String())
		return result, nil
	}

	if state.IsCheckedOut(branch) {
		return skip(models.SkipCurrentlyCheckedOut)
	}
	if state.Frozen {
		return skip(models.SkipFrozen)
	}
	if state.OperationFor(branch) != "" {
		return skip(models.SkipMergeOrRebaseInProgress)
	}

	exists, err := e.dir.BranchExists(ctx, root, branch)
	if err != nil {
		return Result{}, err
	}
	if !exists {
		return skip(models.SkipLocalBranchMissing)
	}

	result.Changes = e.detector.HasLocalChanges(ctx, root, branch)
	if result.Changes != detect.No {
		return skip(models.SkipLocalChangesPresent)
	}

	if state.DefaultRemote == "" {
		return skip(models.SkipNoRemote)
	}

	result.Decision = models.Allow()
	result.Remote = state.DefaultRemote
	return result, nil
}
