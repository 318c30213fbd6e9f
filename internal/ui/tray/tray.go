package tray

import (
	"fmt"
	"sync"

	"focustimer/internal/core/model"
	"focustimer/internal/core/timekeeper"
	"focustimer/internal/session"
	"focustimer/resources"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const menuTitle = "focustimer"

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnPreferences func()
	OnQuit        func()
}

// Manager handles system tray state. It mirrors the active session and forwards the
// session controls to its engine.
type Manager struct {
	app        desktop.App
	statusItem *fyne.MenuItem
	pauseItem  *fyne.MenuItem
	finishItem *fyne.MenuItem
	cancelItem *fyne.MenuItem
	callbacks  Callbacks

	mu     sync.Mutex
	keeper *timekeeper.TimeKeeper
	plan   model.Plan
}

// New creates a tray manager with the provided callbacks. app may be nil when the
// driver has no system tray.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Status: idle", nil)
	manager.statusItem.Disabled = true

	manager.pauseItem = fyne.NewMenuItem("Pause", func() {
		if keeper := manager.activeKeeper(); keeper != nil {
			keeper.TogglePause()
		}
	})
	manager.finishItem = fyne.NewMenuItem("Finish session", func() {
		if keeper := manager.activeKeeper(); keeper != nil {
			keeper.Finalize()
		}
	})
	manager.cancelItem = fyne.NewMenuItem("Cancel session", func() {
		if keeper := manager.activeKeeper(); keeper != nil {
			keeper.Cancel()
		}
	})
	manager.setSessionItems(false)

	if app != nil {
		app.SetSystemTrayIcon(resources.TrayIcon())
	}
	manager.refreshMenu()
	return manager
}

// SessionStarted attaches the tray to a new session.
func (manager *Manager) SessionStarted(plan model.Plan, keeper *timekeeper.TimeKeeper) {
	manager.mu.Lock()
	manager.keeper = keeper
	manager.plan = plan
	manager.mu.Unlock()

	events := keeper.Subscribe(8)
	go func() {
		for event := range events {
			if event.Type == timekeeper.EventProgress {
				continue
			}
			snapshot := event.Snapshot
			fyne.Do(func() { manager.update(keeper, snapshot) })
		}
	}()

	fyne.Do(func() {
		if manager.app != nil {
			manager.app.SetSystemTrayIcon(resources.TrayActiveIcon())
		}
		manager.update(keeper, keeper.Snapshot())
	})
}

// SessionEnded detaches the tray from the finished session.
func (manager *Manager) SessionEnded(outcome session.Outcome) {
	manager.mu.Lock()
	manager.keeper = nil
	manager.mu.Unlock()

	fyne.Do(func() {
		if manager.app != nil {
			manager.app.SetSystemTrayIcon(resources.TrayIcon())
		}
		manager.showIdle(outcome)
	})
}

// update renders a snapshot of keeper into the menu. Snapshots from a session that
// is no longer attached are dropped. It must run on the UI thread.
func (manager *Manager) update(keeper *timekeeper.TimeKeeper, snapshot timekeeper.Snapshot) {
	manager.mu.Lock()
	plan := manager.plan
	current := manager.keeper == keeper && keeper != nil
	manager.mu.Unlock()
	if !current {
		return
	}

	status := fmt.Sprintf("%s %s", plan.Objective, plan.Type.Label())
	switch snapshot.State {
	case timekeeper.StatePaused:
		status += " (paused)"
		manager.pauseItem.Label = "Resume"
	case timekeeper.StateCompleted:
		status += " (finished)"
		manager.pauseItem.Label = "Pause"
	default:
		manager.pauseItem.Label = "Pause"
	}
	manager.statusItem.Label = "Status: " + status
	manager.setSessionItems(!snapshot.Terminal())
	manager.refreshMenu()
}

func (manager *Manager) showIdle(outcome session.Outcome) {
	switch {
	case outcome.Saved:
		manager.statusItem.Label = fmt.Sprintf("Status: idle, last session saved (%d min)", outcome.Minutes)
	case outcome.SaveErr != nil:
		manager.statusItem.Label = "Status: idle, last session not saved"
	default:
		manager.statusItem.Label = "Status: idle"
	}
	manager.pauseItem.Label = "Pause"
	manager.setSessionItems(false)
	manager.refreshMenu()
}

func (manager *Manager) activeKeeper() *timekeeper.TimeKeeper {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.keeper
}

func (manager *Manager) setSessionItems(enabled bool) {
	manager.pauseItem.Disabled = !enabled
	manager.finishItem.Disabled = !enabled
	manager.cancelItem.Disabled = !enabled
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	quit := fyne.NewMenuItem("Quit", func() {
		if manager.callbacks.OnQuit != nil {
			manager.callbacks.OnQuit()
		}
	})
	quit.IsQuit = true

	manager.app.SetSystemTrayMenu(fyne.NewMenu(menuTitle,
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		manager.pauseItem,
		manager.finishItem,
		manager.cancelItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		quit,
	))
}
