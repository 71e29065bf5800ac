package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the configuration directory name.
	DirName = "vtinstaller"

	// FileName is the configuration file name.
	FileName = "config.yaml"
)

// DefaultDir returns $XDG_CONFIG_HOME/vtinstaller, falling back to
// ~/.config/vtinstaller.
func DefaultDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, DirName), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}
