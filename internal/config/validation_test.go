//go:build !integration
// +build !integration

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqve/avalanche/internal/errors"
)

func validSettings() *Settings {
	return &Settings{
		Git:          GitSettings{DefaultRemote: "origin", CommandTimeout: time.Minute},
		Scheduler:    SchedulerSettings{MaxParallel: 4},
		Repositories: RepositoriesSettings{ScanDepth: 2},
		Store:        StoreSettings{Dir: "/tmp/avalanche"},
		Retry: RetrySettings{
			MaxAttempts: 3,
			BaseDelay:   100 * time.Millisecond,
			MaxDelay:    time.Second,
			Jitter:      true,
		},
		Logging: LoggingSettings{Level: "info", Format: "text"},
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Settings)
		wantFields []string
	}{
		{
			name:   "valid settings",
			mutate: func(*Settings) {},
		},
		{
			name:       "empty default remote",
			mutate:     func(s *Settings) { s.Git.DefaultRemote = "" },
			wantFields: []string{"git.default_remote"},
		},
		{
			name:       "zero command timeout",
			mutate:     func(s *Settings) { s.Git.CommandTimeout = 0 },
			wantFields: []string{"git.command_timeout"},
		},
		{
			name:       "command timeout too long",
			mutate:     func(s *Settings) { s.Git.CommandTimeout = time.Hour },
			wantFields: []string{"git.command_timeout"},
		},
		{
			name:       "negative scan depth",
			mutate:     func(s *Settings) { s.Repositories.ScanDepth = -1 },
			wantFields: []string{"repositories.scan_depth"},
		},
		{
			name:       "empty store dir",
			mutate:     func(s *Settings) { s.Store.Dir = "" },
			wantFields: []string{"store.dir"},
		},
		{
			name:       "base delay above max delay",
			mutate:     func(s *Settings) { s.Retry.BaseDelay = 5 * time.Second },
			wantFields: []string{"retry.max_delay"},
		},
		{
			name: "several invalid fields",
			mutate: func(s *Settings) {
				s.Logging.Level = "verbose"
				s.Logging.Format = "xml"
				s.Retry.MaxAttempts = 0
			},
			wantFields: []string{"retry.max_attempts", "logging.level", "logging.format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := validSettings()
			tt.mutate(settings)

			err := ValidateSettings(settings)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var validationErrs ValidationErrors
			require.True(t, errors.As(err, &validationErrs))

			fields := make([]string, 0, len(validationErrs))
			for _, ve := range validationErrs {
				fields = append(fields, ve.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestValidationErrorMessages(t *testing.T) {
	settings := validSettings()
	settings.Logging.Level = "verbose"

	err := ValidateSettings(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "must be one of: [debug info warn error]")
}

func TestValidationErrorsEmpty(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
}
