package overlay

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"focustimer/internal/core/model"
	"focustimer/internal/core/timekeeper"
	"focustimer/internal/ui/pulse"
	"focustimer/resources"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/hashicorp/go-hclog"
)

// Controller receives the user gestures of the floating window.
type Controller interface {
	TogglePause()
	Finalize()
	Cancel()
	Acknowledge()
}

// Config defines overlay behaviour.
type Config struct {
	Opacity     float64
	AlwaysOnTop bool
	Notify      bool
	Bell        bool
	// BellOutput receives the audible bell; nil means stderr.
	BellOutput io.Writer
	Pulse      pulse.Config
}

const (
	filledSegment = "#"
	emptySegment  = "·"
)

var (
	backgroundColor = color.NRGBA{R: 0x2C, G: 0x3E, B: 0x50, A: 255}
	titleColor      = color.NRGBA{R: 0xEC, G: 0xF0, B: 0xF1, A: 255}
	progressColor   = color.NRGBA{R: 0x34, G: 0x98, B: 0xDB, A: 255}
	countdownColor  = color.NRGBA{R: 0x85, G: 0xA9, B: 0xCC, A: 255}
	stopwatchColor  = color.NRGBA{R: 0x2E, G: 0xCC, B: 0x71, A: 255}
	hiddenColor     = color.NRGBA{}
)

// Window is the floating session display.
type Window struct {
	app        fyne.App
	window     fyne.Window
	config     Config
	plan       model.Plan
	controller Controller
	logger     hclog.Logger

	titleLabel    *canvas.Text
	progressLabel *canvas.Text
	clockLabel    *canvas.Text
	clockColor    color.Color
	pauseButton   *widget.Button
	finishButton  *widget.Button
	effects       *pulse.Engine
	effectsCtx    context.Context
	cancelCtx     context.CancelFunc

	// UI thread only.
	lastState   timekeeper.State
	ackDialog   dialog.Dialog
	awaitingAck bool

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// New creates the floating window for plan. It must run on the UI thread.
func New(app fyne.App, config Config, plan model.Plan, controller Controller, logger hclog.Logger) *Window {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if config.BellOutput == nil {
		config.BellOutput = os.Stderr
	}
	if config.Pulse == (pulse.Config{}) {
		config.Pulse = pulse.DefaultConfig()
	}

	heading := "STOPWATCH"
	clockColor := color.Color(stopwatchColor)
	if plan.Countdown() {
		heading = "TIMER"
		clockColor = countdownColor
	}

	window := app.NewWindow(heading + " - " + plan.Objective)
	window.SetIcon(resources.AppIcon())
	window.SetFixedSize(true)
	window.SetPadded(false)

	titleLabel := canvas.NewText(heading+"  "+strings.ToUpper(plan.Objective), titleColor)
	titleLabel.Alignment = fyne.TextAlignCenter
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 11

	progressLabel := canvas.NewText(ProgressBar(0), progressColor)
	progressLabel.Alignment = fyne.TextAlignCenter
	progressLabel.TextStyle = fyne.TextStyle{Monospace: true}
	progressLabel.TextSize = 14
	if !plan.Countdown() {
		progressLabel.Hide()
	}

	clockLabel := canvas.NewText(FormatClock(plan.Duration()), clockColor)
	clockLabel.Alignment = fyne.TextAlignCenter
	clockLabel.TextStyle = fyne.TextStyle{Monospace: true}
	clockLabel.TextSize = 24

	ctx, cancel := context.WithCancel(context.Background())
	overlay := &Window{
		app:           app,
		window:        window,
		config:        config,
		plan:          plan,
		controller:    controller,
		logger:        logger.Named("overlay"),
		titleLabel:    titleLabel,
		progressLabel: progressLabel,
		clockLabel:    clockLabel,
		clockColor:    clockColor,
		effects:       pulse.New(config.Pulse),
		effectsCtx:    ctx,
		cancelCtx:     cancel,
		lastState:     timekeeper.StateRunning,
		done:          make(chan struct{}),
	}

	overlay.pauseButton = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), func() {
		overlay.controller.TogglePause()
		overlay.effects.Pulse(overlay.effectsCtx, overlay.highlightPause, overlay.restorePause)
	})
	overlay.pauseButton.Importance = widget.HighImportance
	overlay.finishButton = widget.NewButtonWithIcon("Finish", theme.ConfirmIcon(), func() {
		overlay.controller.Finalize()
	})
	overlay.finishButton.Importance = widget.SuccessImportance

	background := canvas.NewRectangle(backgroundColor)
	content := container.NewVBox(
		titleLabel,
		progressLabel,
		clockLabel,
		container.NewGridWithColumns(2, overlay.pauseButton, overlay.finishButton),
	)
	window.SetContent(container.NewStack(background, container.NewPadded(content)))
	window.SetCloseIntercept(overlay.requestClose)
	window.Resize(fyne.NewSize(240, content.MinSize().Height+theme.Padding()*2))

	return overlay
}

// Show displays the window and applies the native window options.
func (overlay *Window) Show() {
	overlay.window.Show()
	overlay.applyNative()
}

// Done is closed once the window has been torn down.
func (overlay *Window) Done() <-chan struct{} {
	return overlay.done
}

// Follow renders events until the engine terminates, then finishes the window with
// the final snapshot. Once engineDone closes the window is dismissed even if the
// completion dialog is still open. It runs on its own goroutine and never touches
// widgets.
func (overlay *Window) Follow(events <-chan timekeeper.Event, latest func() timekeeper.Snapshot, engineDone <-chan struct{}) {
	for event := range events {
		if overlay.closed.Load() {
			continue
		}
		snapshot := event.Snapshot
		fyne.Do(func() { overlay.Render(snapshot) })
	}
	final := latest()
	fyne.Do(func() { overlay.Finish(final) })

	select {
	case <-engineDone:
		fyne.Do(overlay.dismiss)
	case <-overlay.done:
	}
}

// Render shows snapshot. It must run on the UI thread.
func (overlay *Window) Render(snapshot timekeeper.Snapshot) {
	if overlay.closed.Load() {
		return
	}

	overlay.clockLabel.Text = FormatClock(snapshot.Display())
	overlay.clockLabel.Refresh()
	if snapshot.Mode == timekeeper.ModeCountdown {
		overlay.progressLabel.Text = ProgressBar(snapshot.Segments())
		overlay.progressLabel.Refresh()
	}

	if snapshot.State != overlay.lastState {
		overlay.lastState = snapshot.State
		overlay.restorePause()
	}
	if snapshot.Terminal() {
		overlay.pauseButton.Disable()
		overlay.finishButton.Disable()
	}
}

// Finish handles the terminal snapshot. A completed countdown waits for the user to
// acknowledge it before the window closes. It must run on the UI thread.
func (overlay *Window) Finish(final timekeeper.Snapshot) {
	if overlay.closed.Load() {
		return
	}
	overlay.Render(final)

	if final.State != timekeeper.StateCompleted || final.Acknowledged {
		overlay.teardown()
		return
	}
	overlay.celebrate(final)
}

func (overlay *Window) celebrate(final timekeeper.Snapshot) {
	overlay.effects.Blink(overlay.effectsCtx, func(visible bool) {
		if visible {
			overlay.clockLabel.Color = overlay.clockColor
		} else {
			overlay.clockLabel.Color = hiddenColor
		}
		overlay.clockLabel.Refresh()
	})

	message := fmt.Sprintf("%s: %d minutes recorded.", overlay.plan.Objective, final.Minutes())
	if overlay.config.Notify {
		overlay.app.SendNotification(fyne.NewNotification("Timer finished", message))
	}
	if overlay.config.Bell {
		if _, err := fmt.Fprint(overlay.config.BellOutput, "\a"); err != nil {
			overlay.logger.Debug("bell failed", "error", err)
		}
	}

	overlay.awaitingAck = true
	info := dialog.NewInformation("Timer finished", message, overlay.window)
	info.SetOnClosed(overlay.acknowledge)
	overlay.ackDialog = info
	info.Show()
	overlay.window.RequestFocus()
}

// requestClose maps the window close affordance to the session: it acknowledges a
// finished countdown and cancels anything else.
func (overlay *Window) requestClose() {
	if overlay.awaitingAck {
		overlay.acknowledge()
		return
	}
	if overlay.closed.Load() {
		return
	}
	overlay.controller.Cancel()
}

func (overlay *Window) acknowledge() {
	if !overlay.awaitingAck {
		return
	}
	overlay.awaitingAck = false
	overlay.controller.Acknowledge()
	if overlay.ackDialog != nil {
		info := overlay.ackDialog
		overlay.ackDialog = nil
		info.Hide()
	}
	overlay.teardown()
}

// dismiss closes the window without answering the engine, which has already shut
// down. It must run on the UI thread.
func (overlay *Window) dismiss() {
	if overlay.closed.Load() {
		return
	}
	overlay.awaitingAck = false
	if overlay.ackDialog != nil {
		info := overlay.ackDialog
		overlay.ackDialog = nil
		info.Hide()
	}
	overlay.teardown()
}

// teardown marks the window closed so queued redraws become no-ops, stops pending
// effects and closes the window.
func (overlay *Window) teardown() {
	overlay.closeOnce.Do(func() {
		overlay.closed.Store(true)
		overlay.cancelCtx()
		overlay.effects.Stop()
		overlay.window.Close()
		close(overlay.done)
	})
}

func (overlay *Window) highlightPause() {
	if overlay.closed.Load() {
		return
	}
	overlay.pauseButton.Importance = widget.WarningImportance
	overlay.pauseButton.Refresh()
}

func (overlay *Window) restorePause() {
	if overlay.closed.Load() {
		return
	}
	if overlay.lastState == timekeeper.StatePaused {
		overlay.pauseButton.SetText("Resume")
		overlay.pauseButton.SetIcon(theme.MediaPlayIcon())
		overlay.pauseButton.Importance = widget.DangerImportance
	} else {
		overlay.pauseButton.SetText("Pause")
		overlay.pauseButton.SetIcon(theme.MediaPauseIcon())
		overlay.pauseButton.Importance = widget.HighImportance
	}
	overlay.pauseButton.Refresh()
}

// FormatClock renders a duration as HH:MM:SS.
func FormatClock(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int(value / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// ProgressBar renders filled segments out of timekeeper.ProgressSegments.
func ProgressBar(filled int) string {
	filled = max(0, min(filled, timekeeper.ProgressSegments))
	return strings.Repeat(filledSegment, filled) + strings.Repeat(emptySegment, timekeeper.ProgressSegments-filled)
}
