// Package registry tracks which branches are enrolled for automatic updates
// and the project's update schedule.
package registry

import (
	"slices"
	"sync"

	"github.com/sqve/avalanche/internal/logger"
	"github.com/sqve/avalanche/internal/models"
	"github.com/sqve/avalanche/internal/store"
)

type Registry struct {
	mu        sync.RWMutex
	branches  map[models.TrackedBranch]struct{}
	config    models.UpdateConfig
	dirty     bool
	listeners []func(models.UpdateConfig)
}

func New() *Registry {
	return &Registry{
		branches: make(map[models.TrackedBranch]struct{}),
		config:   models.DefaultUpdateConfig(),
	}
}

// Toggle enrolls pair, or unenrolls it if it was already enrolled. It
// reports whether pair is enrolled afterwards.
func (r *Registry) Toggle(pair models.TrackedBranch) bool {
	pair = models.NewTrackedBranch(pair.RepositoryRoot, pair.BranchName)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.dirty = true
	if _, ok := r.branches[pair]; ok {
		delete(r.branches, pair)
		logger.WithComponent("registry").Debug("branch unenrolled", "pair", pair.String())
		return false
	}
	r.branches[pair] = struct{}{}
	logger.WithComponent("registry").Debug("branch enrolled", "pair", pair.String())
	return true
}

func (r *Registry) IsEnrolled(pair models.TrackedBranch) bool {
	pair = models.NewTrackedBranch(pair.RepositoryRoot, pair.BranchName)

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.branches[pair]
	return ok
}

// All returns a sorted copy of the enrolled pairs.
func (r *Registry) All() []models.TrackedBranch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

func (r *Registry) sortedLocked() []models.TrackedBranch {
	pairs := make([]models.TrackedBranch, 0, len(r.branches))
	for pair := range r.branches {
		pairs = append(pairs, pair)
	}
	slices.SortFunc(pairs, models.TrackedBranch.Compare)
	return pairs
}

// Remove unenrolls pair. It reports whether pair was enrolled.
func (r *Registry) Remove(pair models.TrackedBranch) bool {
	pair = models.NewTrackedBranch(pair.RepositoryRoot, pair.BranchName)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.branches[pair]; !ok {
		return false
	}
	delete(r.branches, pair)
	r.dirty = true
	return true
}

func (r *Registry) Config() models.UpdateConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// SetConfig validates and stores cfg, then notifies every listener.
func (r *Registry) SetConfig(cfg models.UpdateConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.config = cfg
	r.dirty = true
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	announce(cfg, listeners)
	return nil
}

func announce(cfg models.UpdateConfig, listeners []func(models.UpdateConfig)) {
	logger.WithComponent("registry").Debug("update config changed",
		"interval_minutes", cfg.IntervalMinutes, "conflict_mode", cfg.ConflictMode.String())
	for _, listener := range listeners {
		listener(cfg)
	}
}

// OnConfigChange registers fn to run after every config change.
func (r *Registry) OnConfigChange(fn func(models.UpdateConfig)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Load replaces the registry's contents with state. The result is clean. A
// config that differs from the current one goes through the listeners.
func (r *Registry) Load(state store.State) error {
	cfg := state.Config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	branches := make(map[models.TrackedBranch]struct{}, len(state.Branches))
	for _, pair := range state.Branches {
		branches[models.NewTrackedBranch(pair.RepositoryRoot, pair.BranchName)] = struct{}{}
	}

	r.mu.Lock()
	r.branches = branches
	changed := r.config != cfg
	r.config = cfg
	r.dirty = false
	var listeners []func(models.UpdateConfig)
	if changed {
		listeners = slices.Clone(r.listeners)
	}
	r.mu.Unlock()

	if changed {
		announce(cfg, listeners)
	}
	return nil
}

func (r *Registry) Snapshot() store.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return store.State{
		Branches:        r.sortedLocked(),
		IntervalMinutes: r.config.IntervalMinutes,
		ConflictMode:    r.config.ConflictMode,
	}
}

// Dirty reports whether the registry changed since the last Load or
// MarkClean.
func (r *Registry) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

func (r *Registry) MarkClean() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = false
}
