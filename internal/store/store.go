// Package store persists per-project enrollment and schedule settings.
package store

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/fs"
	"github.com/sqve/avalanche/internal/git"
	"github.com/sqve/avalanche/internal/lock"
	"github.com/sqve/avalanche/internal/logger"
	"github.com/sqve/avalanche/internal/models"
	"github.com/sqve/avalanche/internal/retry"
)

// State is the persisted form of a project's registry.
type State struct {
	Branches        []models.TrackedBranch `toml:"branches" json:"branches"`
	IntervalMinutes int                    `toml:"interval_minutes" json:"interval_minutes"`
	ConflictMode    models.ConflictMode    `toml:"conflict_mode" json:"conflict_mode"`
}

func DefaultState() State {
	cfg := models.DefaultUpdateConfig()
	return State{IntervalMinutes: cfg.IntervalMinutes, ConflictMode: cfg.ConflictMode}
}

func (s State) Config() models.UpdateConfig {
	return models.UpdateConfig{IntervalMinutes: s.IntervalMinutes, ConflictMode: s.ConflictMode}
}

// Equal compares branch sets ignoring order.
func (s State) Equal(other State) bool {
	if s.Config() != other.Config() || len(s.Branches) != len(other.Branches) {
		return false
	}
	a := slices.Clone(s.Branches)
	b := slices.Clone(other.Branches)
	slices.SortFunc(a, models.TrackedBranch.Compare)
	slices.SortFunc(b, models.TrackedBranch.Compare)
	return slices.Equal(a, b)
}

type Store interface {
	Load(ctx context.Context, project string) (State, error)
	Save(ctx context.Context, project string, state State) error
	// Watch calls onChange with the new state whenever the project's file
	// changes on disk, until ctx is done.
	Watch(ctx context.Context, project string, onChange func(State)) error
}

// FileStore keeps one TOML file per project under dir.
type FileStore struct {
	dir    string
	fsys   afero.Fs
	policy retry.Policy
}

type Option func(*FileStore)

func WithFs(fsys afero.Fs) Option {
	return func(s *FileStore) { s.fsys = fsys }
}

func WithRetryPolicy(policy retry.Policy) Option {
	return func(s *FileStore) { s.policy = policy }
}

func NewFileStore(dir string, opts ...Option) *FileStore {
	s := &FileStore{
		dir:    dir,
		fsys:   afero.NewOsFs(),
		policy: retry.ConfiguredPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key names a project's files inside the store directory.
func Key(project string) string {
	canonical := fs.CanonicalPath(project)
	name := git.BranchToDirectoryName(filepath.Base(canonical))
	return fmt.Sprintf("%s-%08x", name, crc32.ChecksumIEEE([]byte(canonical)))
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the state file of project.
func (s *FileStore) Path(project string) string {
	return filepath.Join(s.dir, Key(project)+".toml")
}

// DaemonLockPath is the instance lock of the daemon serving project.
func (s *FileStore) DaemonLockPath(project string) string {
	return filepath.Join(s.dir, Key(project)+".pid")
}

// Load reads the project's state. A missing file yields DefaultState.
func (s *FileStore) Load(_ context.Context, project string) (State, error) {
	path := s.Path(project)
	data, err := afero.ReadFile(s.fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultState(), nil
		}
		return State{}, errors.ErrStoreIO(path, err)
	}
	return decode(path, data)
}

func decode(path string, data []byte) (State, error) {
	state := DefaultState()
	if err := toml.Unmarshal(data, &state); err != nil {
		return State{}, errors.ErrStoreIO(path, err)
	}
	if err := state.Config().Validate(); err != nil {
		return State{}, errors.WithOperation(err, "load "+path)
	}
	for i, b := range state.Branches {
		state.Branches[i] = models.NewTrackedBranch(b.RepositoryRoot, b.BranchName)
	}
	return state, nil
}

// Save writes state atomically while holding the file's lock.
func (s *FileStore) Save(ctx context.Context, project string, state State) error {
	log := logger.WithComponent("store")
	path := s.Path(project)

	if err := state.Config().Validate(); err != nil {
		return err
	}
	if err := s.fsys.MkdirAll(s.dir, fs.DirStrict); err != nil {
		return errors.ErrStoreIO(s.dir, err)
	}

	l, err := lock.AcquireWithRetry(ctx, s.fsys, path+".lock", s.policy)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Release(); err != nil {
			log.Warn("failed to release store lock", "path", l.Path(), "error", err)
		}
	}()

	sorted := state
	sorted.Branches = slices.Clone(state.Branches)
	slices.SortFunc(sorted.Branches, models.TrackedBranch.Compare)

	data, err := toml.Marshal(sorted)
	if err != nil {
		return errors.ErrStoreIO(path, err)
	}
	if err := fs.WriteFileAtomic(s.fsys, path, data, fs.FileStrict); err != nil {
		return errors.ErrStoreIO(path, err)
	}

	log.Debug("state saved", "path", path, "branches", len(sorted.Branches))
	return nil
}
