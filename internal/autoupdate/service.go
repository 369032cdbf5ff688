// Package autoupdate runs one update pass over every enrolled branch.
package autoupdate

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/lock"
	"github.com/sqve/avalanche/internal/logger"
	"github.com/sqve/avalanche/internal/models"
	"github.com/sqve/avalanche/internal/notify"
	"github.com/sqve/avalanche/internal/registry"
	"github.com/sqve/avalanche/internal/repo"
	"github.com/sqve/avalanche/internal/safety"
	"github.com/sqve/avalanche/internal/store"
)

// Executor performs the update once a branch is allowed.
type Executor interface {
	Execute(ctx context.Context, root, branch, remote string, mode models.ConflictMode) models.SyncOutcome
}

// RepositoryLocker takes a lock over one repository that is shared with
// other processes. A held lock is reported as a LOCK_HELD error.
type RepositoryLocker interface {
	LockForSync(ctx context.Context, root string) (*lock.Lock, error)
}

type Service struct {
	registry  *registry.Registry
	dir       repo.Directory
	evaluator *safety.Evaluator
	executor  Executor
	notifier  notify.Notifier

	maxParallel int
	store       store.Store
	project     string
	locker      RepositoryLocker

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

type Option func(*Service)

func WithMaxParallel(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxParallel = n
		}
	}
}

// WithStore persists the registry after a tick that changed it.
func WithStore(st store.Store, project string) Option {
	return func(s *Service) {
		s.store = st
		s.project = project
	}
}

// WithRepositoryLocker excludes other processes from a repository while a
// tick updates it.
func WithRepositoryLocker(locker RepositoryLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

func New(reg *registry.Registry, dir repo.Directory, evaluator *safety.Evaluator, executor Executor, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{
		registry:    reg,
		dir:         dir,
		evaluator:   evaluator,
		executor:    executor,
		notifier:    notifier,
		maxParallel: 4,
		locks:       make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick evaluates every enrolled branch and updates the allowed ones.
// Repositories run in parallel, branches of one repository in order.
func (s *Service) Tick(ctx context.Context) *Report {
	log := logger.WithComponent("autoupdate").With("tick", uuid.NewString())
	report := &Report{}

	groups, err := s.group(ctx, log)
	if err != nil {
		log.Error("cannot enumerate repositories", "error", err)
		report.Err = err
		return report
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for _, root := range sortedKeys(groups) {
		branches := groups[root]
		g.Go(func() error {
			s.syncRepository(gctx, log, root, branches, report)
			return nil
		})
	}
	_ = g.Wait()

	s.persist(ctx, log)
	log.Debug("tick finished", "pairs", len(report.Results()), "failed", report.Failed())
	return report
}

// Status evaluates every enrolled branch without touching any repository.
func (s *Service) Status(ctx context.Context) (*Report, error) {
	log := logger.WithComponent("autoupdate")
	report := &Report{}

	roots, err := s.dir.Repositories(ctx)
	if err != nil {
		return nil, err
	}
	for _, pair := range s.registry.All() {
		if !slices.Contains(roots, pair.RepositoryRoot) {
			report.add(Result{Pair: pair, Err: errors.ErrRepoNotFound(pair.RepositoryRoot)})
			continue
		}
		result, err := s.evaluator.Evaluate(ctx, pair.RepositoryRoot, pair.BranchName)
		if err != nil {
			log.Debug("evaluation failed", "pair", pair.String(), "error", err)
		}
		report.add(Result{Pair: pair, Decision: result.Decision, Changes: result.Changes.String(), Err: err, Evaluated: err == nil})
	}
	return report, nil
}

// group buckets enrolled pairs by repository and prunes pairs whose
// repository is no longer part of the project.
func (s *Service) group(ctx context.Context, log *logger.Logger) (map[string][]models.TrackedBranch, error) {
	pairs := s.registry.All()
	if len(pairs) == 0 {
		return nil, nil
	}

	roots, err := s.dir.Repositories(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]models.TrackedBranch)
	pruned := make(map[string]bool)
	for _, pair := range pairs {
		if slices.Contains(roots, pair.RepositoryRoot) {
			groups[pair.RepositoryRoot] = append(groups[pair.RepositoryRoot], pair)
			continue
		}
		s.registry.Remove(pair)
		if !pruned[pair.RepositoryRoot] {
			pruned[pair.RepositoryRoot] = true
			log.Warn("repository disappeared, pruning enrollment", "repository", pair.RepositoryRoot)
			s.notifier.Notify(notify.RepositoryRemoved(pair.RepositoryRoot), models.SeverityWarning)
		}
	}
	return groups, nil
}

func (s *Service) repoLock(root string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[root]
	if !ok {
		l = &sync.Mutex{}
		s.locks[root] = l
	}
	return l
}

func (s *Service) syncRepository(ctx context.Context, log *logger.Logger, root string, pairs []models.TrackedBranch, report *Report) {
	l := s.repoLock(root)
	if !l.TryLock() {
		log.Info("repository busy, skipping this tick", "repository", root)
		markBusy(report, pairs)
		return
	}
	defer l.Unlock()

	if s.locker != nil {
		held, err := s.locker.LockForSync(ctx, root)
		switch {
		case errors.IsAvalancheError(err, errors.ErrCodeLockHeld):
			log.Info("repository locked by another process, skipping this tick", "repository", root)
			markBusy(report, pairs)
			return
		case err != nil:
			log.Error("cannot lock repository", "repository", root, "error", err)
			for _, pair := range pairs {
				report.add(Result{Pair: pair, Err: err})
			}
			return
		}
		defer func() {
			if err := held.Release(); err != nil {
				log.Warn("failed to release repository lock", "repository", root, "error", err)
			}
		}()
	}

	for _, pair := range pairs {
		report.add(s.syncPair(ctx, log, pair))
	}
}

func markBusy(report *Report, pairs []models.TrackedBranch) {
	for _, pair := range pairs {
		report.add(Result{Pair: pair, Busy: true})
	}
}

func (s *Service) syncPair(ctx context.Context, log *logger.Logger, pair models.TrackedBranch) (result Result) {
	result.Pair = pair
	root, branch := pair.RepositoryRoot, pair.BranchName

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while updating branch", "pair", pair.String(), "panic", r, "stack", string(debug.Stack()))
			result.Err = fmt.Errorf("panic: %v", r)
			s.notifier.Notify(notify.MergeFailed(branch), models.SeverityError)
		}
	}()

	decision, err := s.evaluator.Evaluate(ctx, root, branch)
	if err != nil {
		log.Error("repository state unreadable", "pair", pair.String(), "error", err)
		result.Err = err
		return result
	}
	result.Evaluated = true
	result.Decision = decision.Decision
	result.Changes = decision.Changes.String()

	if !decision.Decision.Allowed() {
		switch decision.Decision.Reason {
		case models.SkipLocalBranchMissing:
			log.Error("enrolled branch missing", "pair", pair.String(),
				"error", errors.ErrConfigurationDrift(root, branch))
			s.notifier.Notify(notify.BranchNotFound(branch), models.SeverityError)
		case models.SkipLocalChangesPresent:
			s.notifier.Notify(notify.SkippedLocalChanges(branch), models.SeverityWarning)
		}
		return result
	}

	mode := s.registry.Config().ConflictMode
	outcome := s.executor.Execute(ctx, root, branch, decision.Remote, mode)
	result.Outcome = &outcome

	switch outcome.Kind {
	case models.OutcomeSuccess:
		s.notifier.Notify(notify.Updated(branch), models.SeverityInfo)
	case models.OutcomeUpToDate:
		s.notifier.Notify(notify.UpToDate(branch), models.SeverityInfo)
	case models.OutcomeFetchFailed:
		log.Warn("fetch failed", "pair", pair.String(), "remote", decision.Remote, "message", outcome.Message)
		s.notifier.Notify(notify.FetchFailed(branch), models.SeverityError)
	case models.OutcomeMergeFailed:
		log.Warn("merge failed", "pair", pair.String(), "conflict", outcome.HadConflict, "message", outcome.Message)
		if outcome.Worktree != "" {
			s.notifier.Notify(notify.ConflictLeft(branch, outcome.Worktree), models.SeverityError)
		} else {
			s.notifier.Notify(notify.MergeFailed(branch), models.SeverityError)
		}
	}
	return result
}

func (s *Service) persist(ctx context.Context, log *logger.Logger) {
	if s.store == nil || !s.registry.Dirty() {
		return
	}
	if err := s.store.Save(ctx, s.project, s.registry.Snapshot()); err != nil {
		log.Error("failed to persist registry", "error", err)
		return
	}
	s.registry.MarkClean()
}

func sortedKeys(groups map[string][]models.TrackedBranch) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
