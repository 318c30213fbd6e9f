package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName names the config directory, the log file and the single-instance lock.
const AppName = "focustimer"

// ConfigDir returns the application directory inside the OS-standard configuration
// directory. It does not create it.
func ConfigDir() (string, error) {
	baseDir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, AppName), nil
}

// EnsureConfigDir returns ConfigDir after creating it.
func EnsureConfigDir() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return configDir, nil
}

func userConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}

	return fallbackConfigDir(homeDir), nil
}
