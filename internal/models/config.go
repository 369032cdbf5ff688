package models

import (
	"fmt"
	"strings"
)

const (
	DefaultIntervalMinutes = 15
	DefaultConflictMode    = ConflictSkip
)

// ConflictMode selects what happens when a merge does not apply cleanly.
type ConflictMode int

const (
	// ConflictSkip aborts the merge and restores the pre-merge state.
	ConflictSkip ConflictMode = iota
	// ConflictNotify leaves the conflicted merge for manual resolution.
	ConflictNotify
	// ConflictAutoStash stashes local modifications and retries once.
	ConflictAutoStash
)

var conflictModeNames = map[ConflictMode]string{
	ConflictSkip:      "SKIP",
	ConflictNotify:    "NOTIFY",
	ConflictAutoStash: "AUTO_STASH",
}

func (m ConflictMode) String() string {
	if name, ok := conflictModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ConflictMode(%d)", int(m))
}

// ParseConflictMode accepts the canonical names case-insensitively, with
// '-' allowed in place of '_'.
func ParseConflictMode(s string) (ConflictMode, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for mode, name := range conflictModeNames {
		if name == normalized {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown conflict mode %q (want SKIP, NOTIFY or AUTO_STASH)", s)
}

func (m ConflictMode) MarshalText() ([]byte, error) {
	if _, ok := conflictModeNames[m]; !ok {
		return nil, fmt.Errorf("invalid conflict mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *ConflictMode) UnmarshalText(text []byte) error {
	mode, err := ParseConflictMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ConflictModes lists every mode in declaration order.
func ConflictModes() []ConflictMode {
	return []ConflictMode{ConflictSkip, ConflictNotify, ConflictAutoStash}
}

// UpdateConfig is the per-project schedule and conflict policy.
type UpdateConfig struct {
	IntervalMinutes int          `toml:"interval_minutes" json:"interval_minutes" validate:"min=1"`
	ConflictMode    ConflictMode `toml:"conflict_mode" json:"conflict_mode" validate:"conflict_mode"`
}

func DefaultUpdateConfig() UpdateConfig {
	return UpdateConfig{
		IntervalMinutes: DefaultIntervalMinutes,
		ConflictMode:    DefaultConflictMode,
	}
}
