package notify

import "fmt"

func Enabled(branch string) string {
	return "Auto Update Enabled for Branch: " + branch
}

func Disabled(branch string) string {
	return "Auto Update Disabled for Branch: " + branch
}

func BranchNotFound(branch string) string {
	return "Branch Not Found: " + branch
}

func FetchFailed(branch string) string {
	return "Fetch Failed for Branch: " + branch
}

func MergeFailed(branch string) string {
	return "Merge Failed for Branch: " + branch
}

func ConflictLeft(branch, worktree string) string {
	return fmt.Sprintf("Merge conflict for branch %s left for manual resolution in %s", branch, worktree)
}

func SkippedLocalChanges(branch string) string {
	return fmt.Sprintf("Skipping update for %s due to local modifications", branch)
}

func Updated(branch string) string {
	return "Successfully updated branch: " + branch
}

func RepositoryRemoved(root string) string {
	return "Repository no longer found, removed from auto update: " + root
}

func UpToDate(branch string) string {
	return "Branch already up to date: " + branch
}
