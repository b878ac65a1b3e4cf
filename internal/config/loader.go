package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/dbxdeploy"
	projectConfigDir = ".dbxdeploy"
	configFileName   = "config.yaml"
)

// LoadSettings loads the dbxdeploy settings by layering default, user, and
// project configuration files. Both files are optional.
func LoadSettings() (Settings, error) {
	// 1. Start with the built-in defaults
	settings := GetDefaultSettings()

	// 2. Determine user-specific configuration path
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// Log this error but don't fail; user config is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userSettings, err := loadSettingsFromFile(userConfigPath)
			if err != nil {
				return Settings{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			settings = mergeSettings(settings, userSettings)
		}
	}

	// 3. Determine project-specific configuration path
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		// Log this error but don't fail; project config is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else {
		if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
			projectSettings, err := loadSettingsFromFile(projectConfigPath)
			if err != nil {
				return Settings{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
			}
			settings = mergeSettings(settings, projectSettings)
		}
	}

	return settings, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadSettingsFromFile loads Settings from a YAML file.
func loadSettingsFromFile(filePath string) (Settings, error) {
	var settings Settings
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Settings{}, err
	}
	err = yaml.Unmarshal(data, &settings)
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// mergeSettings merges 'overlay' settings into 'base' settings.
// Only fields explicitly set in the overlay replace the base values.
func mergeSettings(base, overlay Settings) Settings {
	merged := base

	if overlay.WorkspaceRoot != "" {
		merged.WorkspaceRoot = overlay.WorkspaceRoot
	}
	if overlay.SourceDir != "" {
		merged.SourceDir = overlay.SourceDir
	}
	if overlay.HistoryPath != "" {
		merged.HistoryPath = overlay.HistoryPath
	}
	if overlay.GitHub.Repo != "" {
		merged.GitHub.Repo = overlay.GitHub.Repo
	}
	if overlay.GitHub.ProdReviewer != "" {
		merged.GitHub.ProdReviewer = overlay.GitHub.ProdReviewer
	}

	return merged
}

// GetUserConfigDir returns the user configuration directory path.
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
