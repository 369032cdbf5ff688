package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqve/avalanche/internal/autoupdate"
	"github.com/sqve/avalanche/internal/styles"
)

type statusEntry struct {
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
	Decision   string `json:"decision"`
	Detail     string `json:"detail,omitempty"`
	Changes    string `json:"changes,omitempty"`
}

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether each enrolled branch would be updated now",
		Long: `Evaluate every enrolled branch without fetching or merging.

A branch is skipped while it is checked out, while its repository is frozen
or mid-merge, when it no longer exists, when it has local changes, or when
its repository has no remote.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, asJSON bool) error {
	s, err := openSession(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	report, err := s.service.Status(cmd.Context())
	if err != nil {
		return err
	}

	entries := statusEntries(report)
	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "no branches enrolled")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		decision := e.Decision
		if e.Decision == "ALLOW" {
			decision = styles.Render(&styles.Success, decision)
		} else {
			decision = styles.Render(&styles.Warning, decision)
		}
		rows = append(rows, []string{e.Repository, e.Branch, decision, e.Detail})
	}
	printTable(out, []string{"REPOSITORY", "BRANCH", "DECISION", "DETAIL"}, rows)
	return nil
}

func statusEntries(report *autoupdate.Report) []statusEntry {
	results := report.Results()
	entries := make([]statusEntry, 0, len(results))
	for _, r := range results {
		e := statusEntry{
			Repository: r.Pair.RepositoryRoot,
			Branch:     r.Pair.BranchName,
			Changes:    r.Changes,
		}
		switch {
		case r.Err != nil:
			e.Decision = "ERROR"
			e.Detail = r.Err.Error()
		case r.Decision.Allowed():
			e.Decision = "ALLOW"
		default:
			e.Decision = r.Decision.String()
			e.Detail = r.Decision.Reason.Describe()
		}
		entries = append(entries, e)
	}
	return entries
}
