package preferences

import (
	"slices"
	"time"

	"focustimer/internal/core/timekeeper"
)

// History backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Opacity bounds accepted for the floating window.
const (
	MinOpacity = 0.5
	MaxOpacity = 1.0
)

// Settings defines editable user preferences.
type Settings struct {
	HistoryPath string
	Backend     string
	// Presets are the countdown lengths offered by the menu, in minutes.
	Presets []int

	OverlayOpacity float64
	AlwaysOnTop    bool
	Notify         bool
	Bell           bool

	IdlePauseEnabled bool
	IdlePauseAfter   time.Duration

	LogLevel string
}

// DefaultSettings returns default settings for focustimer.
func DefaultSettings() Settings {
	return Settings{
		HistoryPath:      "pomodoro_history.json",
		Backend:          BackendJSON,
		Presets:          []int{15, 30, 45, 60},
		OverlayOpacity:   0.9,
		AlwaysOnTop:      true,
		Notify:           true,
		Bell:             true,
		IdlePauseEnabled: false,
		IdlePauseAfter:   5 * time.Minute,
		LogLevel:         "info",
	}
}

// ValidBackend reports whether name is a known history backend.
func ValidBackend(name string) bool {
	return name == BackendJSON || name == BackendSQLite
}

// ValidPresets reports whether every preset is a positive number of minutes.
func ValidPresets(presets []int) bool {
	if len(presets) == 0 {
		return false
	}
	return !slices.ContainsFunc(presets, func(minutes int) bool { return minutes <= 0 })
}

// TimeKeeperConfig converts settings to a timekeeper configuration.
func (settings Settings) TimeKeeperConfig() timekeeper.Config {
	config := timekeeper.Config{
		TickInterval:      time.Second,
		PausedInterval:    200 * time.Millisecond,
		IdleCheckInterval: 5 * time.Second,
	}
	if settings.IdlePauseEnabled {
		config.IdlePauseAfter = settings.IdlePauseAfter
	}
	return config
}

// Clone returns a copy that does not share the presets slice.
func (settings Settings) Clone() Settings {
	settings.Presets = slices.Clone(settings.Presets)
	return settings
}
