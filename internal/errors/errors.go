package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling
const (
	// System errors
	ErrCodeGitNotFound = "GIT_NOT_FOUND"
	ErrCodeStoreIO     = "STORE_IO"
	ErrCodeLockHeld    = "LOCK_HELD"

	// Repository errors
	ErrCodeRepoNotFound     = "REPO_NOT_FOUND"
	ErrCodeBranchNotFound   = "BRANCH_NOT_FOUND"
	ErrCodeInvalidBranch    = "INVALID_BRANCH"
	ErrCodeUnknownRepoState = "UNKNOWN_REPO_STATE"

	// Update errors
	ErrCodeConfigurationDrift = "CONFIGURATION_DRIFT"
	ErrCodeNetworkOrRemote    = "NETWORK_OR_REMOTE"
	ErrCodeMergeConflict      = "MERGE_CONFLICT"
	ErrCodeGitOperation       = "GIT_OPERATION"

	// Configuration errors
	ErrCodeConfigInvalid = "CONFIG_INVALID"
)

// AvalancheError represents a standardized error with code and context.
//
// AvalancheError carries:
//   - Code: standardized error code for programmatic handling
//   - Message: human-readable error description
//   - Cause: underlying error that caused this error (optional)
//   - Context: additional contextual information as key-value pairs
//   - Operation: the operation that failed (optional)
//
// Example usage:
//
//	err := ErrBranchNotFound("/src/app", "feature-y")
//	if IsAvalancheError(err, ErrCodeBranchNotFound) {
//	  // surface configuration drift
//	}
type AvalancheError struct {
	Code      string                 // Standardized error code (see ErrCode* constants)
	Message   string                 // Human-readable error message
	Cause     error                  // Underlying error that caused this error
	Context   map[string]interface{} // Additional contextual information
	Operation string                 // The operation that failed
}

// Error implements the error interface
func (e *AvalancheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AvalancheError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code
func (e *AvalancheError) Is(target error) bool {
	if t, ok := target.(*AvalancheError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context information to the error
func (e *AvalancheError) WithContext(key string, value interface{}) *AvalancheError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsRetryable reports whether an immediate retry may succeed. Remote
// failures are not: they wait for the next scheduled tick.
func (e *AvalancheError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeLockHeld, ErrCodeStoreIO:
		return true
	default:
		return false
	}
}

// NewAvalancheError creates a new standardized error
func NewAvalancheError(code, message string, cause error) *AvalancheError {
	return &AvalancheError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewAvalancheErrorf creates a new standardized error with formatted message
func NewAvalancheErrorf(code string, cause error, format string, args ...interface{}) *AvalancheError {
	return &AvalancheError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

func ErrGitNotFound(cause error) *AvalancheError {
	return NewAvalancheError(ErrCodeGitNotFound, "git is not available in PATH", cause)
}

func ErrStoreIO(path string, cause error) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeStoreIO, cause, "failed to access state file: %s", path).
		WithContext("path", path)
}

func ErrLockHeld(path string, pid int) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeLockHeld, nil, "lock %s is held by process %d", path, pid).
		WithContext("path", path).
		WithContext("pid", pid)
}

func ErrRepoNotFound(path string) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeRepoNotFound, nil, "repository not found at: %s", path).
		WithContext("path", path)
}

func ErrBranchNotFound(root, branch string) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeBranchNotFound, nil, "branch %s does not exist in %s", branch, root).
		WithContext("path", root).
		WithContext("branch", branch)
}

func ErrInvalidBranchName(name, reason string) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeInvalidBranch, nil, "invalid branch name %q: %s", name, reason).
		WithContext("branch", name).
		WithContext("reason", reason)
}

func ErrUnknownRepoState(root string, cause error) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeUnknownRepoState, cause, "tracking status unreadable for %s", root).
		WithContext("path", root)
}

func ErrConfigurationDrift(root, branch string) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeConfigurationDrift, nil, "enrolled branch %s no longer exists in %s", branch, root).
		WithContext("path", root).
		WithContext("branch", branch)
}

func ErrNetworkOrRemote(remote string, cause error) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeNetworkOrRemote, cause, "fetch from %s failed", remote).
		WithContext("remote", remote)
}

func ErrMergeConflict(branch string, cause error) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeMergeConflict, cause, "merge into %s conflicted", branch).
		WithContext("branch", branch)
}

func ErrGitOperation(operation string, cause error) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeGitOperation, cause, "git %s failed", operation).
		WithContext("operation", operation)
}

func ErrConfigInvalid(field string, cause error) *AvalancheError {
	return NewAvalancheErrorf(ErrCodeConfigInvalid, cause, "invalid configuration: %s", field).
		WithContext("field", field)
}

// IsAvalancheError reports whether err carries the given code.
func IsAvalancheError(err error, code string) bool {
	var avErr *AvalancheError
	if errors.As(err, &avErr) {
		return avErr.Code == code
	}
	return false
}

// GetErrorCode returns the code of err, or "" for foreign errors.
func GetErrorCode(err error) string {
	var avErr *AvalancheError
	if errors.As(err, &avErr) {
		return avErr.Code
	}
	return ""
}

// GetErrorContext returns the context map of err, or nil for foreign errors.
func GetErrorContext(err error) map[string]interface{} {
	var avErr *AvalancheError
	if errors.As(err, &avErr) {
		return avErr.Context
	}
	return nil
}
