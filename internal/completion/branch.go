package completion

import (
	"context"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/sqve/avalanche/internal/logger"
)

// Timeout bounds the git calls made while the shell waits.
const Timeout = 2 * time.Second

// BranchLister is the part of the git client branch completion needs.
type BranchLister interface {
	TopLevel(ctx context.Context, path string) (string, error)
	ListBranches(ctx context.Context, root string) ([]string, error)
}

var priorityBranches = []string{"main", "master", "develop", "development"}

// Branches completes the first positional argument with the local branches
// of the repository named by --repo, or of the working directory.
func Branches(lister BranchLister) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		log := logger.WithComponent("completion")
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, Timeout)
		defer cancel()

		path, _ := cmd.Flags().GetString("repo")
		if path == "" {
			path = "."
		}
		root, err := lister.TopLevel(ctx, path)
		if err != nil {
			log.Debug("not in a git repository, skipping branch completion", "path", path)
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		branches, err := lister.ListBranches(ctx, root)
		if err != nil {
			log.Debug("failed to list branches", "error", err)
			return nil, cobra.ShellCompDirectiveError
		}

		filtered := FilterCompletions(prioritizeBranches(branches), toComplete)
		log.Debug("branch completion results", "total", len(branches), "filtered", len(filtered), "input", toComplete)
		return filtered, cobra.ShellCompDirectiveNoFileComp
	}
}

// prioritizeBranches puts well-known long-lived branches first and sorts
// the rest.
func prioritizeBranches(branches []string) []string {
	var prioritized, regular []string
	for _, priority := range priorityBranches {
		if slices.Contains(branches, priority) {
			prioritized = append(prioritized, priority)
		}
	}
	for _, branch := range branches {
		if !slices.Contains(priorityBranches, branch) {
			regular = append(regular, branch)
		}
	}
	slices.Sort(regular)
	return append(prioritized, regular...)
}
