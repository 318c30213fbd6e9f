package overlay

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"focustimer/internal/core/model"
	"focustimer/internal/core/timekeeper"
	"focustimer/internal/ui/pulse"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
)

type fakeController struct {
	mu    sync.Mutex
	calls []string
}

func (controller *fakeController) record(call string) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.calls = append(controller.calls, call)
}

func (controller *fakeController) TogglePause() { controller.record("toggle") }

func (controller *fakeController) Finalize() { controller.record("finalize") }

func (controller *fakeController) Cancel() { controller.record("cancel") }

func (controller *fakeController) Acknowledge() { controller.record("acknowledge") }

func (controller *fakeController) Calls() []string {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return append([]string(nil), controller.calls...)
}

func testConfig(bell *bytes.Buffer) Config {
	return Config{
		Opacity:    0.9,
		Bell:       true,
		BellOutput: bell,
		Pulse: pulse.Config{
			PulseDuration: time.Millisecond,
			BlinkOn:       time.Millisecond,
			BlinkOff:      time.Millisecond,
			BlinkCount:    1,
		},
	}
}

func newTestApp(t *testing.T) fyne.App {
	t.Helper()
	return test.NewTempApp(t)
}

var timerPlan = model.Plan{Objective: model.ObjectiveStudy, Type: model.SessionTimer, Minutes: 15}

func isDone(window *Window) bool {
	select {
	case <-window.Done():
		return true
	default:
		return false
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "00:00:00"},
		{in: 899 * time.Second, want: "00:14:59"},
		{in: 3725 * time.Second, want: "01:02:05"},
		{in: -time.Second, want: "00:00:00"},
		{in: 1500 * time.Millisecond, want: "00:00:01"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Fatalf("FormatClock(%v) = %q want %q", tt.in, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		filled int
		want   string
	}{
		{filled: 0, want: "··········"},
		{filled: 5, want: "#####·····"},
		{filled: 9, want: "#########·"},
		{filled: 12, want: "##########"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.filled); got != tt.want {
			t.Fatalf("ProgressBar(%d) = %q want %q", tt.filled, got, tt.want)
		}
	}
}

func TestOpacityAlpha(t *testing.T) {
	if got := opacityAlpha(1); got != 255 {
		t.Fatalf("opacityAlpha(1) = %d", got)
	}
	if got := opacityAlpha(0.5); got != 128 {
		t.Fatalf("opacityAlpha(0.5) = %d", got)
	}
}

func TestButtonsDriveController(t *testing.T) {
	app := newTestApp(t)
	controller := &fakeController{}
	window := New(app, testConfig(&bytes.Buffer{}), timerPlan, controller, nil)

	test.Tap(window.pauseButton)
	test.Tap(window.finishButton)

	calls := controller.Calls()
	if len(calls) != 2 || calls[0] != "toggle" || calls[1] != "finalize" {
		t.Fatalf("controller calls = %v", calls)
	}
}

func TestRenderShowsCountdown(t *testing.T) {
	app := newTestApp(t)
	window := New(app, testConfig(&bytes.Buffer{}), timerPlan, &fakeController{}, nil)

	window.Render(timekeeper.Snapshot{
		Mode:    timekeeper.ModeCountdown,
		State:   timekeeper.StateRunning,
		Total:   900 * time.Second,
		Elapsed: 899 * time.Second,
	})
	if window.clockLabel.Text != "00:00:01" {
		t.Fatalf("clock = %q", window.clockLabel.Text)
	}
	if window.progressLabel.Text != "#########·" {
		t.Fatalf("progress = %q", window.progressLabel.Text)
	}

	window.Render(timekeeper.Snapshot{
		Mode:    timekeeper.ModeCountdown,
		State:   timekeeper.StatePaused,
		Total:   900 * time.Second,
		Elapsed: 899 * time.Second,
	})
	if window.pauseButton.Text != "Resume" {
		t.Fatalf("pause button = %q want Resume", window.pauseButton.Text)
	}
}

func TestRenderShowsStopwatchElapsed(t *testing.T) {
	app := newTestApp(t)
	plan := model.Plan{Objective: model.ObjectiveWork, Type: model.SessionStopwatch}
	window := New(app, testConfig(&bytes.Buffer{}), plan, &fakeController{}, nil)

	window.Render(timekeeper.Snapshot{Mode: timekeeper.ModeStopwatch, State: timekeeper.StateRunning, Elapsed: 125 * time.Second})
	if window.clockLabel.Text != "00:02:05" {
		t.Fatalf("clock = %q", window.clockLabel.Text)
	}
	if window.progressLabel.Visible() {
		t.Fatalf("stopwatch must not show a progress bar")
	}
}

func TestCloseCancelsRunningSession(t *testing.T) {
	app := newTestApp(t)
	controller := &fakeController{}
	window := New(app, testConfig(&bytes.Buffer{}), timerPlan, controller, nil)

	window.requestClose()
	if calls := controller.Calls(); len(calls) != 1 || calls[0] != "cancel" {
		t.Fatalf("controller calls = %v want [cancel]", calls)
	}
	if isDone(window) {
		t.Fatalf("window closed before the engine terminated")
	}

	window.Finish(timekeeper.Snapshot{Mode: timekeeper.ModeCountdown, State: timekeeper.StateCancelled, Total: 900 * time.Second})
	if !isDone(window) {
		t.Fatalf("window not torn down after cancellation")
	}

	window.Render(timekeeper.Snapshot{Mode: timekeeper.ModeCountdown, State: timekeeper.StateRunning, Total: 900 * time.Second, Elapsed: 10 * time.Second})
	if window.clockLabel.Text == "00:14:50" {
		t.Fatalf("render after teardown changed the window")
	}
}

func TestCompletedCountdownWaitsForAcknowledgment(t *testing.T) {
	app := newTestApp(t)
	controller := &fakeController{}
	bell := &bytes.Buffer{}
	window := New(app, testConfig(bell), timerPlan, controller, nil)

	window.Finish(timekeeper.Snapshot{
		Mode:    timekeeper.ModeCountdown,
		State:   timekeeper.StateCompleted,
		Total:   900 * time.Second,
		Elapsed: 900 * time.Second,
	})
	if window.clockLabel.Text != "00:00:00" || window.progressLabel.Text != "##########" {
		t.Fatalf("final render clock=%q progress=%q", window.clockLabel.Text, window.progressLabel.Text)
	}
	if bell.String() != "\a" {
		t.Fatalf("bell output = %q", bell.String())
	}
	if isDone(window) {
		t.Fatalf("window closed before acknowledgment")
	}

	window.requestClose()
	calls := controller.Calls()
	if len(calls) != 1 || calls[0] != "acknowledge" {
		t.Fatalf("controller calls = %v want [acknowledge]", calls)
	}
	if !isDone(window) {
		t.Fatalf("window not torn down after acknowledgment")
	}
}

func TestFinalizedSessionClosesImmediately(t *testing.T) {
	app := newTestApp(t)
	controller := &fakeController{}
	window := New(app, testConfig(&bytes.Buffer{}), timerPlan, controller, nil)

	window.Finish(timekeeper.Snapshot{Mode: timekeeper.ModeCountdown, State: timekeeper.StateFinalized, Total: 900 * time.Second, Elapsed: 300 * time.Second})
	if !isDone(window) {
		t.Fatalf("finalized session should close the window")
	}
	if len(controller.Calls()) != 0 {
		t.Fatalf("unexpected controller calls %v", controller.Calls())
	}
}

func TestPresenterFollowsEngine(t *testing.T) {
	app := newTestApp(t)
	ticker := &stepTicker{ch: make(chan time.Time)}
	keeper := timekeeper.New(timekeeper.ModeCountdown, 2*time.Second, timekeeper.Config{
		NewTicker: func(time.Duration) timekeeper.Ticker { return ticker },
	})
	presenter := NewPresenter(app, testConfig(&bytes.Buffer{}), nil)

	closed := presenter.Present(timerPlan, keeper)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	keeper.Start(ctx)
	keeper.Finalize()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("presenter window did not close after finalize")
	}
}

func TestPresenterClosesWhenCancelledDuringCompletionDialog(t *testing.T) {
	app := newTestApp(t)
	ticker := &stepTicker{ch: make(chan time.Time)}
	keeper := timekeeper.New(timekeeper.ModeCountdown, time.Second, timekeeper.Config{
		NewTicker: func(time.Duration) timekeeper.Ticker { return ticker },
	})
	presenter := NewPresenter(app, testConfig(&bytes.Buffer{}), nil)

	closed := presenter.Present(timerPlan, keeper)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	keeper.Start(ctx)
	ticker.ch <- time.Now()

	select {
	case <-keeper.Terminated():
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown did not complete")
	}
	select {
	case <-closed:
		t.Fatalf("window closed before the completion was acknowledged")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("window stayed open after the session context was cancelled")
	}
	if !keeper.Snapshot().Acknowledged {
		t.Fatalf("shutdown should acknowledge the completed countdown")
	}
}

type stepTicker struct {
	ch chan time.Time
}

func (ticker *stepTicker) C() <-chan time.Time { return ticker.ch }

func (ticker *stepTicker) Reset(time.Duration) {}

func (ticker *stepTicker) Stop() {}
