// Package validation checks user input before it reaches git.
package validation

import (
	"regexp"
	"strings"

	"github.com/sqve/avalanche/internal/errors"
)

var (
	// Characters git reserves for revision syntax.
	invalidCharsRegex    = regexp.MustCompile(`[~^:?*\[\]\\]`)
	consecutiveDotsRegex = regexp.MustCompile(`\.\.`)
	invalidStartEndRegex = regexp.MustCompile(`^[./]|[./]$`)
	controlCharsRegex    = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// BranchName rejects names git would refuse as refs/heads/<name>, so toggle
// reports a readable reason instead of a branch lookup failure.
func BranchName(name string) error {
	switch {
	case name == "":
		return errors.ErrInvalidBranchName(name, "cannot be empty")
	case strings.Contains(name, " "):
		return errors.ErrInvalidBranchName(name, "cannot contain spaces")
	case strings.HasPrefix(name, "-"):
		return errors.ErrInvalidBranchName(name, "cannot start with a dash")
	case invalidCharsRegex.MatchString(name):
		return errors.ErrInvalidBranchName(name, "contains invalid characters (~^:?*[]\\)")
	case consecutiveDotsRegex.MatchString(name):
		return errors.ErrInvalidBranchName(name, "cannot contain consecutive dots (..)")
	case invalidStartEndRegex.MatchString(name):
		return errors.ErrInvalidBranchName(name, "cannot start or end with dots or slashes")
	case controlCharsRegex.MatchString(name):
		return errors.ErrInvalidBranchName(name, "cannot contain control characters")
	case strings.Contains(name, "@{"):
		return errors.ErrInvalidBranchName(name, "cannot contain '@{'")
	case name == "HEAD" || name == "@":
		return errors.ErrInvalidBranchName(name, "cannot be 'HEAD' or '@'")
	case strings.HasSuffix(name, ".lock"):
		return errors.ErrInvalidBranchName(name, "cannot end with '.lock'")
	}
	return nil
}
