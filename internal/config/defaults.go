package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

func SetDefaults() {
	viper.SetDefault("general.plain", false)

	viper.SetDefault("git.default_remote", "origin")
	viper.SetDefault("git.command_timeout", 2*time.Minute)

	viper.SetDefault("scheduler.max_parallel", 4)

	viper.SetDefault("repositories.scan_depth", 2)

	viper.SetDefault("store.dir", DefaultStoreDir())

	// Retry covers local contention only (store lock). Remote failures wait
	// for the next tick.
	viper.SetDefault("retry.max_attempts", 3)
	viper.SetDefault("retry.base_delay", 200*time.Millisecond)
	viper.SetDefault("retry.max_delay", 2*time.Second)
	viper.SetDefault("retry.jitter_enabled", true)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// DefaultStoreDir is where project state files live unless store.dir is set.
func DefaultStoreDir() string {
	if dir := getUserConfigDir(); dir != "" {
		return filepath.Join(dir, "projects")
	}
	return filepath.Join(".avalanche", "projects")
}

func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Keys lists every recognised settings key.
func Keys() []string {
	return []string{
		"general.plain",
		"git.default_remote",
		"git.command_timeout",
		"scheduler.max_parallel",
		"repositories.scan_depth",
		"store.dir",
		"retry.max_attempts",
		"retry.base_delay",
		"retry.max_delay",
		"retry.jitter_enabled",
		"logging.level",
		"logging.format",
	}
}
