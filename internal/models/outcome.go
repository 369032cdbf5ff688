package models

import "fmt"

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeUpToDate
	OutcomeFetchFailed
	OutcomeMergeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "Success"
	case OutcomeUpToDate:
		return "UpToDate"
	case OutcomeFetchFailed:
		return "FetchFailed"
	case OutcomeMergeFailed:
		return "MergeFailed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SyncOutcome is the result of one fetch-then-merge attempt.
type SyncOutcome struct {
	Kind        OutcomeKind `json:"kind"`
	Message     string      `json:"message,omitempty"`
	HadConflict bool        `json:"had_conflict,omitempty"`
	// Worktree is set when a conflicted merge was left for manual resolution.
	Worktree        string   `json:"worktree,omitempty"`
	ConflictedFiles []string `json:"conflicted_files,omitempty"`
}

func Success() SyncOutcome {
	return SyncOutcome{Kind: OutcomeSuccess}
}

func UpToDate() SyncOutcome {
	return SyncOutcome{Kind: OutcomeUpToDate}
}

func FetchFailed(message string) SyncOutcome {
	return SyncOutcome{Kind: OutcomeFetchFailed, Message: message}
}

func MergeFailed(message string, hadConflict bool) SyncOutcome {
	return SyncOutcome{Kind: OutcomeMergeFailed, Message: message, HadConflict: hadConflict}
}

// Succeeded reports Success and UpToDate.
func (o SyncOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomeUpToDate
}

func (o SyncOutcome) String() string {
	switch o.Kind {
	case OutcomeFetchFailed:
		return fmt.Sprintf("FetchFailed(%s)", o.Message)
	case OutcomeMergeFailed:
		return fmt.Sprintf("MergeFailed(%s, hadConflict=%t)", o.Message, o.HadConflict)
	default:
		return o.Kind.String()
	}
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}
