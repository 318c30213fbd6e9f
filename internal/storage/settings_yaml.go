package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"focustimer/internal/ui/preferences"
	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	HistoryPath           string  `yaml:"history_path"`
	Backend               string  `yaml:"backend"`
	Presets               []int   `yaml:"presets"`
	OverlayOpacity        float64 `yaml:"overlay_opacity"`
	AlwaysOnTop           *bool   `yaml:"always_on_top"`
	Notify                *bool   `yaml:"notify"`
	Bell                  *bool   `yaml:"bell"`
	IdlePauseEnabled      bool    `yaml:"idle_pause_enabled"`
	IdlePauseAfterMinutes int     `yaml:"idle_pause_after_minutes"`
	LogLevel              string  `yaml:"log_level"`
}

// SettingsPath returns the settings file location inside configDir.
func SettingsPath(configDir string) string {
	return filepath.Join(configDir, settingsFileName)
}

// LoadSettings reads user preferences from YAML.
// If the config file does not exist, default settings are returned.
func LoadSettings(configPath string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML.
func SaveSettings(configPath string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		HistoryPath:           settings.HistoryPath,
		Backend:               settings.Backend,
		Presets:               settings.Presets,
		OverlayOpacity:        settings.OverlayOpacity,
		AlwaysOnTop:           &settings.AlwaysOnTop,
		Notify:                &settings.Notify,
		Bell:                  &settings.Bell,
		IdlePauseEnabled:      settings.IdlePauseEnabled,
		IdlePauseAfterMinutes: int(settings.IdlePauseAfter / time.Minute),
		LogLevel:              settings.LogLevel,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if path := strings.TrimSpace(fileData.HistoryPath); path != "" {
		settings.HistoryPath = path
	}
	if backend := strings.ToLower(strings.TrimSpace(fileData.Backend)); preferences.ValidBackend(backend) {
		settings.Backend = backend
	}
	if preferences.ValidPresets(fileData.Presets) {
		settings.Presets = fileData.Presets
	}

	if fileData.OverlayOpacity >= preferences.MinOpacity && fileData.OverlayOpacity <= preferences.MaxOpacity {
		settings.OverlayOpacity = fileData.OverlayOpacity
	}
	if fileData.AlwaysOnTop != nil {
		settings.AlwaysOnTop = *fileData.AlwaysOnTop
	}
	if fileData.Notify != nil {
		settings.Notify = *fileData.Notify
	}
	if fileData.Bell != nil {
		settings.Bell = *fileData.Bell
	}

	settings.IdlePauseEnabled = fileData.IdlePauseEnabled
	if fileData.IdlePauseAfterMinutes > 0 {
		settings.IdlePauseAfter = time.Duration(fileData.IdlePauseAfterMinutes) * time.Minute
	}
	if level := strings.TrimSpace(fileData.LogLevel); level != "" {
		settings.LogLevel = strings.ToLower(level)
	}
}
