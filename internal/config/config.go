package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sqve/avalanche/internal/errors"
)

const (
	EnvPrefix  = "AVALANCHE"
	ConfigName = "config"
	ConfigType = "toml"
)

// Settings is the global, per-user configuration. Per-project state lives in
// the store, not here.
type Settings struct {
	General      GeneralSettings      `mapstructure:"general"`
	Git          GitSettings          `mapstructure:"git"`
	Scheduler    SchedulerSettings    `mapstructure:"scheduler"`
	Repositories RepositoriesSettings `mapstructure:"repositories"`
	Store        StoreSettings        `mapstructure:"store"`
	Retry        RetrySettings        `mapstructure:"retry"`
	Logging      LoggingSettings      `mapstructure:"logging"`
}

type GeneralSettings struct {
	Plain bool `mapstructure:"plain"`
}

type GitSettings struct {
	DefaultRemote  string        `mapstructure:"default_remote" validate:"required"`
	CommandTimeout time.Duration `mapstructure:"command_timeout" validate:"gt=0,lte=30m"`
}

type SchedulerSettings struct {
	MaxParallel int `mapstructure:"max_parallel" validate:"min=1,max=64"`
}

type RepositoriesSettings struct {
	ScanDepth int `mapstructure:"scan_depth" validate:"min=0,max=8"`
}

type StoreSettings struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type RetrySettings struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
	BaseDelay   time.Duration `mapstructure:"base_delay" validate:"gt=0"`
	MaxDelay    time.Duration `mapstructure:"max_delay" validate:"gt=0,gtefield=BaseDelay"`
	Jitter      bool          `mapstructure:"jitter_enabled"`
}

type LoggingSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Initialize reads config.toml from the search paths, layers AVALANCHE_*
// environment variables on top and validates the result. A missing config
// file is not an error.
func Initialize() error {
	SetDefaults()

	viper.SetConfigName(ConfigName)
	viper.SetConfigType(ConfigType)
	if envPath := os.Getenv("AVALANCHE_CONFIG"); envPath != "" {
		viper.SetConfigFile(envPath)
	} else {
		for _, path := range GetConfigPaths() {
			viper.AddConfigPath(path)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.ErrConfigInvalid(viper.ConfigFileUsed(), err)
		}
	}

	return Validate()
}

// Get decodes the effective settings.
func Get() (*Settings, error) {
	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, errors.ErrConfigInvalid("settings", err)
	}
	return &settings, nil
}

func GetString(key string) string {
	return viper.GetString(key)
}

func GetInt(key string) int {
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

func Set(key string, value interface{}) {
	viper.Set(key, value)
}

// IsPlain returns true if plain output mode is enabled
func IsPlain() bool {
	return viper.GetBool("general.plain")
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return viper.GetString("logging.level") == "debug"
}

// ConfigFileUsed returns the path of the loaded config file, or "".
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
