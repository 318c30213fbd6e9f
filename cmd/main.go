package main

import (
	"fmt"
	"io"
	"os"

	"focustimer/internal/platform"
	"focustimer/internal/storage"
	"focustimer/internal/ui/preferences"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags override the values stored in settings.yaml for one run.
type globalFlags struct {
	configDir   string
	historyPath string
	backend     string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "focustimer",
		Short:         "Focus timer and stopwatch with a floating window and a history log",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "directory holding settings.yaml and the log file")
	root.PersistentFlags().StringVar(&flags.historyPath, "history", "", "history file path")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "history backend: json|sqlite")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace|debug|info|warn|error")

	root.AddCommand(newStartCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	return root
}

// environment is the configuration shared by every command.
type environment struct {
	configDir    string
	settingsPath string
	settings     preferences.Settings
	logger       hclog.Logger
	logFile      *os.File
}

func loadEnvironment(flags *globalFlags) (*environment, error) {
	configDir := flags.configDir
	if configDir == "" {
		dir, err := platform.EnsureConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	settingsPath := storage.SettingsPath(configDir)
	settings, loadErr := storage.LoadSettings(settingsPath)
	if err := flags.apply(&settings); err != nil {
		return nil, err
	}

	var output io.Writer = io.Discard
	logFile, logErr := platform.OpenLogFile(configDir)
	if logErr == nil {
		output = logFile
	}
	logger := platform.NewLogger(output, settings.LogLevel)
	if logErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", logErr)
	}
	if loadErr != nil {
		logger.Warn("settings file unreadable, using defaults", "path", settingsPath, "error", loadErr)
	}
	logger.Debug("environment loaded", "config_dir", configDir, "backend", settings.Backend, "history", settings.HistoryPath)

	return &environment{
		configDir:    configDir,
		settingsPath: settingsPath,
		settings:     settings,
		logger:       logger,
		logFile:      logFile,
	}, nil
}

func (flags *globalFlags) apply(settings *preferences.Settings) error {
	if flags.historyPath != "" {
		settings.HistoryPath = flags.historyPath
	}
	if flags.backend != "" {
		if !preferences.ValidBackend(flags.backend) {
			return fmt.Errorf("unknown backend %q: use %s or %s", flags.backend, preferences.BackendJSON, preferences.BackendSQLite)
		}
		settings.Backend = flags.backend
	}
	if flags.logLevel != "" {
		settings.LogLevel = flags.logLevel
	}
	return nil
}

func (env *environment) openHistory() (storage.HistoryStore, error) {
	store, err := storage.OpenHistory(env.settings.Backend, env.settings.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func (env *environment) Close() {
	if env.logFile != nil {
		_ = env.logFile.Close()
	}
}
