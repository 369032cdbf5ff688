package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/models"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	var (
		interval     int
		conflictMode string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the update schedule of the project",
		Long: `Show or change the update schedule of the project.

Conflict modes:
  SKIP        abort the merge and leave the branch as it was
  NOTIFY      leave the conflicted merge in a sync worktree for manual resolution
  AUTO_STASH  stash changes in the sync worktree and retry once

A running daemon picks up changes immediately.

Examples:
  avalanche config                          # Show current settings
  avalanche config --interval 5             # Update every 5 minutes
  avalanche config --conflict-mode notify   # Keep conflicts for review`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, interval, conflictMode)
		},
	}

	cmd.Flags().IntVar(&interval, "interval", 0, "Minutes between updates")
	cmd.Flags().StringVar(&conflictMode, "conflict-mode", "", "SKIP, NOTIFY or AUTO_STASH")

	return cmd
}

func runConfig(cmd *cobra.Command, interval int, conflictMode string) error {
	s, err := openSession(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cfg := s.registry.Config()
	if cmd.Flags().Changed("interval") {
		cfg.IntervalMinutes = interval
	}
	if cmd.Flags().Changed("conflict-mode") {
		mode, err := models.ParseConflictMode(conflictMode)
		if err != nil {
			return errors.ErrConfigInvalid("conflict_mode", err)
		}
		cfg.ConflictMode = mode
	}

	if cfg != s.registry.Config() {
		if err := s.registry.SetConfig(cfg); err != nil {
			return err
		}
		if err := s.save(cmd.Context()); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "interval_minutes = %d\n", cfg.IntervalMinutes)
	_, _ = fmt.Fprintf(out, "conflict_mode = %s\n", cfg.ConflictMode)
	return nil
}
