package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sqve/avalanche/internal/autoupdate"
	"github.com/sqve/avalanche/internal/config"
	"github.com/sqve/avalanche/internal/detect"
	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/fs"
	"github.com/sqve/avalanche/internal/git"
	"github.com/sqve/avalanche/internal/notify"
	"github.com/sqve/avalanche/internal/registry"
	"github.com/sqve/avalanche/internal/repo"
	"github.com/sqve/avalanche/internal/safety"
	"github.com/sqve/avalanche/internal/store"
	"github.com/sqve/avalanche/internal/updater"
)

// session wires the components serving one project for one command.
type session struct {
	project  string
	settings *config.Settings
	client   *git.Client
	dir      *repo.GitDirectory
	store    *store.FileStore
	registry *registry.Registry
	notifier notify.Notifier
	service  *autoupdate.Service
}

// projectDir resolves --project, defaulting to the working directory.
func projectDir(cmd *cobra.Command) (string, error) {
	project, _ := cmd.Flags().GetString("project")
	if project == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "failed to get current directory")
		}
		project = cwd
	}
	project = fs.CanonicalPath(project)
	if !fs.DirectoryExists(afero.NewOsFs(), project) {
		return "", errors.ErrRepoNotFound(project)
	}
	return project, nil
}

func openSession(cmd *cobra.Command, out io.Writer) (*session, error) {
	project, err := projectDir(cmd)
	if err != nil {
		return nil, err
	}
	settings, err := config.Get()
	if err != nil {
		return nil, err
	}

	client := git.NewClient(nil)
	dir := repo.NewGitDirectory(project, client,
		repo.WithScanDepth(settings.Repositories.ScanDepth),
		repo.WithPreferredRemote(settings.Git.DefaultRemote))
	st := store.NewFileStore(settings.Store.Dir)

	state, err := st.Load(cmd.Context(), project)
	if err != nil {
		return nil, err
	}
	reg := registry.New()
	if err := reg.Load(state); err != nil {
		return nil, err
	}

	notifier := notify.Multi{notify.NewConsole(out), notify.Log{}}
	service := autoupdate.New(reg, dir,
		safety.New(dir, detect.New(client)),
		updater.New(client),
		notifier,
		autoupdate.WithMaxParallel(settings.Scheduler.MaxParallel),
		autoupdate.WithStore(st, project),
		autoupdate.WithRepositoryLocker(dir))

	return &session{
		project:  project,
		settings: settings,
		client:   client,
		dir:      dir,
		store:    st,
		registry: reg,
		notifier: notifier,
		service:  service,
	}, nil
}

// save persists the registry if it changed.
func (s *session) save(ctx context.Context) error {
	if !s.registry.Dirty() {
		return nil
	}
	if err := s.store.Save(ctx, s.project, s.registry.Snapshot()); err != nil {
		return err
	}
	s.registry.MarkClean()
	return nil
}

// repository resolves --repo to a repository root of the project.
func (s *session) repository(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = "."
	}
	top, err := s.client.TopLevel(ctx, fs.CanonicalPath(path))
	if err != nil {
		return "", err
	}
	root := fs.CanonicalPath(top)

	known, err := s.dir.Contains(ctx, root)
	if err != nil {
		return "", err
	}
	if !known {
		return "", errors.ErrRepoNotFound(root).WithContext("project", s.project)
	}
	return root, nil
}
