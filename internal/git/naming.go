package git

import (
	"regexp"
	"strings"
)

var (
	unsafeDirChars = strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "-",
		"<", "-", ">", "-", "|", "-", "#", "-", " ", "-", "\t", "-",
	)
	multiHyphen = regexp.MustCompile(`-+`)
)

// BranchToDirectoryName converts a branch name to a filesystem-safe directory name.
//
// Examples:
//   - "fix/123" -> "fix-123"
//   - "feature/user/auth" -> "feature-user-auth"
//   - "bugfix/issue#456" -> "bugfix-issue-456"
//   - "hotfix/v1.2.3" -> "hotfix-v1.2.3"
func BranchToDirectoryName(branchName string) string {
	if branchName == "" {
		return ""
	}

	dirName := unsafeDirChars.Replace(branchName)
	dirName = multiHyphen.ReplaceAllString(dirName, "-")
	dirName = strings.Trim(dirName, "-.")

	if dirName == "" {
		return "branch"
	}
	return dirName
}
