package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focustimer/internal/platform"
	"focustimer/internal/session"
	"focustimer/internal/storage"
	"focustimer/internal/ui/overlay"
	"focustimer/internal/ui/preferences"
	"focustimer/internal/ui/pulse"
	"focustimer/internal/ui/tray"
	"focustimer/resources"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"
)

const (
	appID = "io.github.focustimer"

	// shutdownGrace bounds how long a closing app waits for the foreground work.
	shutdownGrace = 3 * time.Second
)

// desktopHost is the GUI side of an interactive run.
type desktopHost struct {
	env      *environment
	store    storage.HistoryStore
	runner   *session.Runner
	settings preferences.Settings
}

// runDesktop owns the fyne event loop on the calling goroutine and runs work
// alongside it. The app quits once work returns; an interrupt cancels ctx.
func runDesktop(cmd *cobra.Command, flags *globalFlags, work func(ctx context.Context, host *desktopHost) error) error {
	env, err := loadEnvironment(flags)
	if err != nil {
		return err
	}
	defer env.Close()
	logger := env.logger

	guard, err := platform.AcquireSingleInstance(env.configDir)
	if errors.Is(err, platform.ErrAlreadyRunning) {
		logger.Warn("single instance", "error", err)
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "focustimer is already running.")
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	store, err := env.openHistory()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close history", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(resources.AppIcon())

	presenter := overlay.NewPresenter(fyneApp, overlayConfig(env.settings), logger.Named("overlay"))
	runner := session.NewRunner(session.Options{
		Store:   store,
		Display: presenter,
		Idle:    platform.NewIdleChecker(),
		Keeper:  env.settings.TimeKeeperConfig(),
		Logger:  logger,
	})

	prefsWindow := preferences.New(fyneApp, env.settings, func(updated preferences.Settings) {
		if err := storage.SaveSettings(env.settingsPath, updated); err != nil {
			logger.Error("save settings", "path", env.settingsPath, "error", err)
		}
		presenter.SetConfig(overlayConfig(updated))
		runner.SetKeeperConfig(updated.TimeKeeperConfig())
		logger.Info("settings updated", "history_and_backend_apply", "next launch")
	})

	hostWindow := fyneApp.NewWindow("focustimer")
	hostWindow.SetContent(widget.NewLabel("focustimer is running in the system tray."))
	hostWindow.SetCloseIntercept(func() {
		hostWindow.Hide()
	})

	var trayApp desktop.App
	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayApp = desktopApp
		desktopApp.SetSystemTrayWindow(hostWindow)
	} else {
		logger.Info("system tray unsupported on this platform")
	}
	trayManager := tray.New(trayApp, tray.Callbacks{
		OnPreferences: prefsWindow.Show,
		OnQuit:        stop,
	})
	runner.AddObserver(trayManager)

	host := &desktopHost{env: env, store: store, runner: runner, settings: env.settings}
	workDone := make(chan error, 1)
	go func() {
		err := work(ctx, host)
		stop()
		runner.Wait()
		workDone <- err
		fyne.Do(fyneApp.Quit)
	}()

	fyneApp.Run()

	stop()
	select {
	case err := <-workDone:
		return err
	case <-time.After(shutdownGrace):
		logger.Warn("exiting before the session finished")
		return nil
	}
}

func overlayConfig(settings preferences.Settings) overlay.Config {
	return overlay.Config{
		Opacity:     settings.OverlayOpacity,
		AlwaysOnTop: settings.AlwaysOnTop,
		Notify:      settings.Notify,
		Bell:        settings.Bell,
		Pulse:       pulse.DefaultConfig(),
	}
}
