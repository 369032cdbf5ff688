package models

import (
	"encoding/json"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqve/avalanche/internal/errors"
)

func TestNewTrackedBranchNormalizesRoot(t *testing.T) {
	a := NewTrackedBranch("/src/app/", "main")
	b := NewTrackedBranch("/src/./app", "main")

	assert.Equal(t, a, b)
	assert.Equal(t, "main@/src/app", a.String())
}

func TestTrackedBranchCompare(t *testing.T) {
	a := NewTrackedBranch("/a", "main")
	b := NewTrackedBranch("/a", "zeta")
	c := NewTrackedBranch("/b", "alpha")

	assert.Negative(t, a.Compare(b))
	assert.Negative(t, b.Compare(c))
	assert.Zero(t, a.Compare(a))
}

func TestParseConflictMode(t *testing.T) {
	tests := []struct {
		input   string
		want    ConflictMode
		wantErr bool
	}{
		{"SKIP", ConflictSkip, false},
		{"notify", ConflictNotify, false},
		{"auto-stash", ConflictAutoStash, false},
		{" AUTO_STASH ", ConflictAutoStash, false},
		{"rebase", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConflictMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConflictModeText(t *testing.T) {
	text, err := ConflictAutoStash.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "AUTO_STASH", string(text))

	_, err = ConflictMode(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "ConflictMode(42)", ConflictMode(42).String())
}

func TestUpdateConfigTOML(t *testing.T) {
	data, err := toml.Marshal(UpdateConfig{IntervalMinutes: 5, ConflictMode: ConflictNotify})
	require.NoError(t, err)
	assert.Contains(t, string(data), "NOTIFY")
	assert.Contains(t, string(data), "interval_minutes = 5")

	var decoded UpdateConfig
	require.NoError(t, toml.Unmarshal([]byte("interval_minutes = 30\nconflict_mode = 'auto_stash'\n"), &decoded))
	assert.Equal(t, UpdateConfig{IntervalMinutes: 30, ConflictMode: ConflictAutoStash}, decoded)

	err = toml.Unmarshal([]byte("conflict_mode = 'force'\n"), &decoded)
	assert.Error(t, err)
}

func TestUpdateConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultUpdateConfig().Validate())
	assert.NoError(t, UpdateConfig{IntervalMinutes: 1, ConflictMode: ConflictAutoStash}.Validate())

	err := UpdateConfig{IntervalMinutes: 0}.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsAvalancheError(err, errors.ErrCodeConfigInvalid))
	assert.Equal(t, "interval_minutes", errors.GetErrorContext(err)["field"])

	err = UpdateConfig{IntervalMinutes: 10, ConflictMode: ConflictMode(9)}.Validate()
	require.Error(t, err)
	assert.Equal(t, "conflict_mode", errors.GetErrorContext(err)["field"])
}

func TestDefaultUpdateConfig(t *testing.T) {
	cfg := DefaultUpdateConfig()
	assert.Equal(t, 15, cfg.IntervalMinutes)
	assert.Equal(t, ConflictSkip, cfg.ConflictMode)
}

func TestSafetyDecision(t *testing.T) {
	assert.True(t, Allow().Allowed())
	assert.Equal(t, "ALLOW", Allow().String())

	skip := Skip(SkipLocalChangesPresent)
	assert.False(t, skip.Allowed())
	assert.Equal(t, "SKIP(LocalChangesPresent)", skip.String())
	assert.Equal(t, "local modifications present", skip.Reason.Describe())
}

func TestSkipReasonText(t *testing.T) {
	for reason := range skipReasonNames {
		text, err := reason.MarshalText()
		require.NoError(t, err)

		var decoded SkipReason
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, reason, decoded)
	}

	var r SkipReason
	assert.Error(t, r.UnmarshalText([]byte("Tired")))
}

func TestSyncOutcome(t *testing.T) {
	assert.True(t, Success().Succeeded())
	assert.True(t, UpToDate().Succeeded())
	assert.False(t, FetchFailed("offline").Succeeded())

	failed := MergeFailed("conflict in a.txt", true)
	assert.Equal(t, "MergeFailed(conflict in a.txt, hadConflict=true)", failed.String())

	data, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"MergeFailed","message":"conflict in a.txt","had_conflict":true}`, string(data))
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "error", SeverityError.String())
}
