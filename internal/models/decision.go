package models

import "fmt"

// SkipReason explains why an update was not attempted.
type SkipReason int

const (
	SkipCurrentlyCheckedOut SkipReason = iota + 1
	SkipFrozen
	SkipMergeOrRebaseInProgress
	SkipLocalBranchMissing
	SkipLocalChangesPresent
	SkipNoRemote
)

var skipReasonNames = map[SkipReason]string{
	SkipCurrentlyCheckedOut:     "CurrentlyCheckedOut",
	SkipFrozen:                  "Frozen",
	SkipMergeOrRebaseInProgress: "MergeOrRebaseInProgress",
	SkipLocalBranchMissing:      "LocalBranchMissing",
	SkipLocalChangesPresent:     "LocalChangesPresent",
	SkipNoRemote:                "NoRemote",
}

func (r SkipReason) String() string {
	if name, ok := skipReasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("SkipReason(%d)", int(r))
}

func (r SkipReason) MarshalText() ([]byte, error) {
	if _, ok := skipReasonNames[r]; !ok {
		return nil, fmt.Errorf("invalid skip reason %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *SkipReason) UnmarshalText(text []byte) error {
	for reason, name := range skipReasonNames {
		if name == string(text) {
			*r = reason
			return nil
		}
	}
	return fmt.Errorf("unknown skip reason %q", string(text))
}

// Describe returns a short human explanation.
func (r SkipReason) Describe() string {
	switch r {
	case SkipCurrentlyCheckedOut:
		return "branch is checked out"
	case SkipFrozen:
		return "repository is frozen"
	case SkipMergeOrRebaseInProgress:
		return "merge or rebase in progress"
	case SkipLocalBranchMissing:
		return "local branch does not exist"
	case SkipLocalChangesPresent:
		return "local modifications present"
	case SkipNoRemote:
		return "no remote configured"
	default:
		return r.String()
	}
}

// SafetyDecision is the evaluator's verdict for one branch. The zero value
// is Allow.
type SafetyDecision struct {
	Reason SkipReason
}

func Allow() SafetyDecision {
	return SafetyDecision{}
}

func Skip(reason SkipReason) SafetyDecision {
	return SafetyDecision{Reason: reason}
}

func (d SafetyDecision) Allowed() bool {
	return d.Reason == 0
}

func (d SafetyDecision) String() string {
	if d.Allowed() {
		return "ALLOW"
	}
	return "SKIP(" + d.Reason.String() + ")"
}

func (d SafetyDecision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
