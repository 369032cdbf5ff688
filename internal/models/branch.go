package models

import (
	"cmp"
	"fmt"
	"path/filepath"
)

// TrackedBranch identifies an enrolled branch. Two values are the same
// enrollment when both fields are equal after normalization.
type TrackedBranch struct {
	RepositoryRoot string `toml:"repository" json:"repository"`
	BranchName     string `toml:"branch" json:"branch"`
}

// NewTrackedBranch cleans root so that equal repositories compare equal.
func NewTrackedBranch(root, branch string) TrackedBranch {
	return TrackedBranch{RepositoryRoot: filepath.Clean(root), BranchName: branch}
}

func (b TrackedBranch) String() string {
	return fmt.Sprintf("%s@%s", b.BranchName, b.RepositoryRoot)
}

// Compare orders by repository, then branch.
func (b TrackedBranch) Compare(other TrackedBranch) int {
	if c := cmp.Compare(b.RepositoryRoot, other.RepositoryRoot); c != 0 {
		return c
	}
	return cmp.Compare(b.BranchName, other.BranchName)
}

// TrackingStatus counts commits between a local branch and its upstream.
type TrackingStatus struct {
	Upstream string `json:"upstream"`
	Ahead    int    `json:"ahead"`
	Behind   int    `json:"behind"`
}
