package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "wled-backup"
	configFile = "config.yaml"
)

// Environment variables
const (
	EnvS3AccessKey = "WLED_BACKUP_S3_ACCESS_KEY"
	EnvS3SecretKey = "WLED_BACKUP_S3_SECRET_KEY"

	// EnvSearchSecs and EnvBackupDelay configure watch mode
	EnvSearchSecs  = "SEARCH_SECS"
	EnvBackupDelay = "BACKUP_DELAY"
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/wled-backup or $HOME/.config/wled-backup
//   - macOS: $HOME/.config/wled-backup
//   - Windows: %LOCALAPPDATA%\wled-backup
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads settings from path on top of the defaults. With an empty path
// the default location is used, and a missing file there is not an error.
// An explicitly given path must exist.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			// No home directory; run on defaults
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	settings, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return settings, nil
}

// Parse decodes YAML settings on top of the defaults. Unknown keys are
// rejected so typos do not go unnoticed.
func Parse(data []byte) (*Settings, error) {
	settings := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(settings); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return settings, nil
}

// ApplyEnv overrides the S3 credentials from the environment
func (s *Settings) ApplyEnv() {
	if v := os.Getenv(EnvS3AccessKey); v != "" {
		s.S3.AccessKey = v
	}
	if v := os.Getenv(EnvS3SecretKey); v != "" {
		s.S3.SecretKey = v
	}
}

// ApplyWatchEnv reads SEARCH_SECS and BACKUP_DELAY (seconds), the variables
// used by the container scheduling loop
func (s *Settings) ApplyWatchEnv() error {
	if v := os.Getenv(EnvSearchSecs); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSearchSecs, err)
		}
		s.SearchSecs = secs
	}
	if v := os.Getenv(EnvBackupDelay); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvBackupDelay, err)
		}
		s.Watch.Interval = time.Duration(secs) * time.Second
	}
	return nil
}
