package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqve/avalanche/internal/completion"
	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/git"
	"github.com/sqve/avalanche/internal/models"
	"github.com/sqve/avalanche/internal/notify"
	"github.com/sqve/avalanche/internal/validation"
)

// NewToggleCmd creates the toggle command
func NewToggleCmd() *cobra.Command {
	var repoPath string

	cmd := &cobra.Command{
		Use:   "toggle <branch>",
		Short: "Enable or disable automatic updates for a branch",
		Long: `Enable or disable automatic updates for a branch.

Running toggle on an enrolled branch disables it again.

Examples:
  avalanche toggle develop              # Repository of the current directory
  avalanche toggle main --repo ../api   # Another repository of the project`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.Branches(git.NewClient(nil)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, strings.TrimSpace(args[0]), repoPath)
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", "", "Repository containing the branch (default: current directory)")

	return cmd
}

func runToggle(cmd *cobra.Command, branch, repoPath string) error {
	if err := validation.BranchName(branch); err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openSession(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	root, err := s.repository(ctx, repoPath)
	if err != nil {
		return err
	}

	pair := models.NewTrackedBranch(root, branch)
	// Disabling a branch that has since been deleted must still work.
	if !s.registry.IsEnrolled(pair) {
		exists, err := s.dir.BranchExists(ctx, root, branch)
		if err != nil {
			return err
		}
		if !exists {
			return errors.ErrBranchNotFound(root, branch)
		}
	}

	enrolled := s.registry.Toggle(pair)
	if err := s.save(ctx); err != nil {
		return err
	}

	if enrolled {
		s.notifier.Notify(notify.Enabled(branch), models.SeverityInfo)
	} else {
		s.notifier.Notify(notify.Disabled(branch), models.SeverityInfo)
	}
	return nil
}
