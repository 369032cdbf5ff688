package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "avalanche"

// GetConfigPaths returns the directories searched for config.toml, highest
// precedence first.
func GetConfigPaths() []string {
	var paths []string

	if envPath := os.Getenv("AVALANCHE_CONFIG"); envPath != "" {
		paths = append(paths, filepath.Dir(envPath))
	}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, cwd)
	}

	if userConfigDir := getUserConfigDir(); userConfigDir != "" {
		paths = append(paths, userConfigDir)
	}

	if homeDir := getHomeDir(); homeDir != "" {
		paths = append(paths, homeDir)
	}

	return paths
}

func getUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appDirName)
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Roaming", appDirName)
		}
		return ""
	case "darwin":
		if homeDir := getHomeDir(); homeDir != "" {
			return filepath.Join(homeDir, "Library", "Application Support", appDirName)
		}
		return ""
	default:
		// XDG Base Directory specification
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, appDirName)
		}
		if homeDir := getHomeDir(); homeDir != "" {
			return filepath.Join(homeDir, ".config", appDirName)
		}
		return ""
	}
}

func getHomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
		return userProfile
	}
	return ""
}

// GetDefaultConfigPath returns the default config file path for the current platform
func GetDefaultConfigPath() string {
	configDir := getUserConfigDir()
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, ConfigName+"."+ConfigType)
}
