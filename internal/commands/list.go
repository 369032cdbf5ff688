package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sqve/avalanche/internal/models"
)

type listOutput struct {
	Project  string                 `json:"project"`
	Config   models.UpdateConfig    `json:"config"`
	Branches []models.TrackedBranch `json:"branches"`
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show enrolled branches and the update schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func runList(cmd *cobra.Command, asJSON bool) error {
	s, err := openSession(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cfg := s.registry.Config()
	branches := s.registry.All()

	if asJSON {
		return printJSON(out, listOutput{Project: s.project, Config: cfg, Branches: branches})
	}

	_, _ = fmt.Fprintf(out, "interval: %d minutes, conflict mode: %s\n", cfg.IntervalMinutes, cfg.ConflictMode)
	if len(branches) == 0 {
		_, _ = fmt.Fprintln(out, "no branches enrolled")
		return nil
	}

	rows := make([][]string, 0, len(branches))
	for i, b := range branches {
		rows = append(rows, []string{strconv.Itoa(i + 1), b.RepositoryRoot, b.BranchName})
	}
	printTable(out, []string{"#", "REPOSITORY", "BRANCH"}, rows)
	return nil
}
