package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqve/avalanche/internal/autoupdate"
)

// NewSyncCmd creates the sync command
func NewSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Update every enrolled branch once and exit",
		Long: `Run a single update pass over every enrolled branch.

Exits non-zero when any branch failed to update or no longer exists.`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	report := s.service.Tick(cmd.Context())
	if report.Err != nil {
		return report.Err
	}

	results := report.Results()
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Pair.RepositoryRoot, r.Pair.BranchName, syncResult(r)})
	}
	if len(rows) > 0 {
		printTable(cmd.OutOrStdout(), []string{"REPOSITORY", "BRANCH", "RESULT"}, rows)
	}

	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d branches failed to update", failed, len(results))
	}
	return nil
}

func syncResult(r autoupdate.Result) string {
	switch {
	case r.Busy:
		return "busy"
	case r.Err != nil:
		return "error: " + r.Err.Error()
	case r.Outcome != nil:
		return r.Outcome.Kind.String()
	default:
		return r.Decision.String()
	}
}
