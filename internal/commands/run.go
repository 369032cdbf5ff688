package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/fs"
	"github.com/sqve/avalanche/internal/lock"
	"github.com/sqve/avalanche/internal/logger"
	"github.com/sqve/avalanche/internal/models"
	"github.com/sqve/avalanche/internal/scheduler"
	"github.com/sqve/avalanche/internal/store"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep enrolled branches updated until interrupted",
		Long: `Run the update daemon for the project.

The first pass starts immediately and repeats on the configured interval.
Changes made with toggle or config from another shell take effect at once.
Only one daemon may run per project.`,
		Args: cobra.NoArgs,
		RunE: runDaemon,
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("daemon")

	s, err := openSession(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(s.store.Dir(), fs.DirStrict); err != nil {
		return errors.ErrStoreIO(s.store.Dir(), err)
	}
	instance, err := lock.Acquire(osFs, s.store.DaemonLockPath(s.project))
	if err != nil {
		if errors.IsAvalancheError(err, errors.ErrCodeLockHeld) {
			return fmt.Errorf("a daemon is already running for %s: %w", s.project, err)
		}
		return err
	}
	defer func() {
		if err := instance.Release(); err != nil {
			log.Warn("failed to release daemon lock", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := startDaemon(ctx, s, clockwork.NewRealClock(), func(ctx context.Context) {
		s.service.Tick(ctx)
	})
	if err != nil {
		return err
	}
	log.Info("daemon started", "project", s.project, "interval", sched.Interval().String(), "pid", os.Getpid())

	<-ctx.Done()
	sched.Stop()

	log.Info("daemon stopped", "project", s.project)
	// Signal context is done; persisting must not be cancelled with it.
	return s.save(context.WithoutCancel(ctx))
}

// startDaemon arms the scheduler and keeps it in step with the store. The
// scheduler is armed before anything can change the config, so every change
// re-arms it.
func startDaemon(ctx context.Context, s *session, clock clockwork.Clock, tick scheduler.TickFunc) (*scheduler.Scheduler, error) {
	log := logger.WithComponent("daemon")

	sched := scheduler.New(clock, tick)
	s.registry.OnConfigChange(func(cfg models.UpdateConfig) {
		sched.Rearm(scheduler.Minutes(cfg.IntervalMinutes))
	})
	if err := sched.Start(ctx, scheduler.Minutes(s.registry.Config().IntervalMinutes)); err != nil {
		return nil, err
	}

	reload := func(state store.State) {
		if err := s.registry.Load(state); err != nil {
			log.Warn("ignoring invalid state from disk", "error", err)
			return
		}
		log.Info("state reloaded", "branches", len(state.Branches))
	}
	if err := s.store.Watch(ctx, s.project, reload); err != nil {
		sched.Stop()
		return nil, err
	}

	// Saves that landed between opening the session and starting the watch.
	state, err := s.store.Load(ctx, s.project)
	if err != nil {
		sched.Stop()
		return nil, err
	}
	if !state.Equal(s.registry.Snapshot()) {
		reload(state)
	}
	return sched, nil
}
