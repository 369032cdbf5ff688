package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqve/avalanche/internal/styles"
)

// NewFreezeCmd creates the freeze command
func NewFreezeCmd() *cobra.Command {
	var repoPath string

	cmd := &cobra.Command{
		Use:   "freeze",
		Short: "Pause automatic updates for a repository",
		Long: `Pause automatic updates for every branch of a repository.

The pause lasts until unfreeze and applies to the daemon and to sync.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFreeze(cmd, repoPath, true)
		},
	}
	cmd.Flags().StringVar(&repoPath, "repo", "", "Repository to freeze (default: current directory)")

	return cmd
}

// NewUnfreezeCmd creates the unfreeze command
func NewUnfreezeCmd() *cobra.Command {
	var repoPath string

	cmd := &cobra.Command{
		Use:   "unfreeze",
		Short: "Resume automatic updates for a repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFreeze(cmd, repoPath, false)
		},
	}
	cmd.Flags().StringVar(&repoPath, "repo", "", "Repository to unfreeze (default: current directory)")

	return cmd
}

func runFreeze(cmd *cobra.Command, repoPath string, freeze bool) error {
	ctx := cmd.Context()
	s, err := openSession(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	root, err := s.repository(ctx, repoPath)
	if err != nil {
		return err
	}

	verb := "Froze"
	if freeze {
		err = s.dir.Freeze(ctx, root)
	} else {
		verb = "Unfroze"
		err = s.dir.Unfreeze(ctx, root)
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", styles.Symbol("success"), verb, root)
	return nil
}
