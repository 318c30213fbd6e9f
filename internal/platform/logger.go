package platform

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

const logFileName = AppName + ".log"

// LogPath returns the log file location inside configDir.
func LogPath(configDir string) string {
	return filepath.Join(configDir, logFileName)
}

// ParseLogLevel maps a level name to an hclog level, falling back to info.
func ParseLogLevel(name string) hclog.Level {
	level := hclog.LevelFromString(strings.TrimSpace(name))
	if level == hclog.NoLevel {
		return hclog.Info
	}
	return level
}

// NewLogger builds the application logger writing to output.
func NewLogger(output io.Writer, level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       AppName,
		Level:      ParseLogLevel(level),
		Output:     output,
		TimeFormat: "2006-01-02 15:04:05.000",
	})
}

// OpenLogFile opens the append-only log file under configDir. The terminal belongs to
// the menu, so the logger never writes to stdout.
func OpenLogFile(configDir string) (*os.File, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(LogPath(configDir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
