package timekeeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type manualTicker struct {
	ch chan time.Time

	mu      sync.Mutex
	resets  []time.Duration
	stopped bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (ticker *manualTicker) C() <-chan time.Time { return ticker.ch }

func (ticker *manualTicker) Reset(interval time.Duration) {
	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	ticker.resets = append(ticker.resets, interval)
}

func (ticker *manualTicker) Stop() {
	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	ticker.stopped = true
}

func (ticker *manualTicker) Resets() []time.Duration {
	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	return append([]time.Duration(nil), ticker.resets...)
}

func (ticker *manualTicker) advance(n int) {
	for i := 0; i < n; i++ {
		ticker.ch <- time.Now()
	}
}

type idleStub struct {
	idle time.Duration
	err  error

	mu    sync.Mutex
	calls int
}

func (stub *idleStub) IdleDuration() (time.Duration, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.calls++
	return stub.idle, stub.err
}

func (stub *idleStub) Calls() int {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return stub.calls
}

func startKeeper(t *testing.T, mode Mode, total time.Duration) (*TimeKeeper, *manualTicker) {
	t.Helper()
	ticker := newManualTicker()
	keeper := New(mode, total, Config{
		NewTicker: func(time.Duration) Ticker { return ticker },
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	keeper.Start(ctx)
	return keeper, ticker
}

func waitFor(t *testing.T, keeper *TimeKeeper, what string, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snapshot := keeper.Snapshot()
		if cond(snapshot) {
			return snapshot
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s, last snapshot %+v", what, keeper.Snapshot())
	return Snapshot{}
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestCountdownCompletesAfterTotalTicks(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		wantMinutes int
	}{
		{name: "one minute", total: 60, wantMinutes: 1},
		{name: "partial minute", total: 125, wantMinutes: 2},
		{name: "fifteen minutes", total: 900, wantMinutes: 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keeper, ticker := startKeeper(t, ModeCountdown, time.Duration(tt.total)*time.Second)

			ticker.advance(tt.total - 1)
			before := waitFor(t, keeper, "last running tick", func(s Snapshot) bool {
				return s.Elapsed == time.Duration(tt.total-1)*time.Second
			})
			if before.State != StateRunning {
				t.Fatalf("state after %d ticks = %s want running", tt.total-1, before.State)
			}

			ticker.advance(1)
			waitClosed(t, keeper.Terminated(), "terminated")
			final := keeper.Snapshot()
			if final.State != StateCompleted {
				t.Fatalf("state = %s want completed", final.State)
			}
			if final.Elapsed != time.Duration(tt.total)*time.Second {
				t.Fatalf("elapsed = %v want %ds", final.Elapsed, tt.total)
			}
			if final.Minutes() != tt.wantMinutes {
				t.Fatalf("minutes = %d want %d", final.Minutes(), tt.wantMinutes)
			}
			if isClosed(keeper.Done()) {
				t.Fatalf("done closed before acknowledgment")
			}

			keeper.Cancel()
			keeper.Acknowledge()
			waitClosed(t, keeper.Done(), "done")
			if got := keeper.Snapshot(); got.State != StateCompleted || !got.Acknowledged {
				t.Fatalf("after acknowledge snapshot = %+v", got)
			}
		})
	}
}

func TestPauseFreezesElapsed(t *testing.T) {
	keeper, ticker := startKeeper(t, ModeStopwatch, 0)

	ticker.advance(5)
	waitFor(t, keeper, "five seconds", func(s Snapshot) bool { return s.Elapsed == 5*time.Second })

	keeper.Pause()
	waitFor(t, keeper, "paused", func(s Snapshot) bool { return s.State == StatePaused })

	ticker.advance(10)
	if got := keeper.Snapshot().Elapsed; got != 5*time.Second {
		t.Fatalf("elapsed while paused = %v want 5s", got)
	}

	keeper.Resume()
	waitFor(t, keeper, "running", func(s Snapshot) bool { return s.State == StateRunning })
	ticker.advance(3)
	waitFor(t, keeper, "eight seconds", func(s Snapshot) bool { return s.Elapsed == 8*time.Second })

	resets := ticker.Resets()
	if len(resets) != 2 || resets[0] != 200*time.Millisecond || resets[1] != time.Second {
		t.Fatalf("ticker resets = %v want [200ms 1s]", resets)
	}
}

func TestTogglePause(t *testing.T) {
	keeper, ticker := startKeeper(t, ModeCountdown, time.Minute)

	keeper.TogglePause()
	waitFor(t, keeper, "paused", func(s Snapshot) bool { return s.State == StatePaused })
	ticker.advance(3)

	keeper.TogglePause()
	waitFor(t, keeper, "running", func(s Snapshot) bool { return s.State == StateRunning })
	ticker.advance(2)
	snapshot := waitFor(t, keeper, "two seconds", func(s Snapshot) bool { return s.Elapsed == 2*time.Second })
	if snapshot.Remaining() != 58*time.Second {
		t.Fatalf("remaining = %v want 58s", snapshot.Remaining())
	}
}

func TestFinalizeRecordsElapsedMinutes(t *testing.T) {
	keeper, ticker := startKeeper(t, ModeStopwatch, 0)

	ticker.advance(125)
	waitFor(t, keeper, "125 seconds", func(s Snapshot) bool { return s.Elapsed == 125*time.Second })

	keeper.Finalize()
	waitClosed(t, keeper.Done(), "done")

	final := keeper.Snapshot()
	if final.State != StateFinalized {
		t.Fatalf("state = %s want finalized", final.State)
	}
	if final.Minutes() != 2 {
		t.Fatalf("minutes = %d want 2", final.Minutes())
	}
}

func TestCancelDiscardsSession(t *testing.T) {
	keeper, ticker := startKeeper(t, ModeCountdown, 15*time.Minute)
	events := keeper.Subscribe(64)

	ticker.advance(90)
	keeper.Cancel()
	waitClosed(t, keeper.Done(), "done")

	final := keeper.Snapshot()
	if final.State != StateCancelled {
		t.Fatalf("state = %s want cancelled", final.State)
	}
	if final.Minutes() != 0 {
		t.Fatalf("cancelled minutes = %d want 0", final.Minutes())
	}

	var last Event
	for event := range events {
		last = event
	}
	if last.Snapshot.State != StateCancelled {
		t.Fatalf("last event state = %s want cancelled", last.Snapshot.State)
	}

	keeper.Finalize()
	keeper.Resume()
	if got := keeper.Snapshot().State; got != StateCancelled {
		t.Fatalf("terminal state changed to %s", got)
	}
	if _, ok := <-keeper.Subscribe(1); ok {
		t.Fatalf("subscribe after termination should return a closed channel")
	}
}

func TestZeroTotalCompletesImmediately(t *testing.T) {
	keeper, _ := startKeeper(t, ModeCountdown, 0)

	waitClosed(t, keeper.Terminated(), "terminated")
	snapshot := keeper.Snapshot()
	if snapshot.State != StateCompleted {
		t.Fatalf("state = %s want completed", snapshot.State)
	}
	if snapshot.Segments() != ProgressSegments {
		t.Fatalf("segments = %d want %d", snapshot.Segments(), ProgressSegments)
	}
	keeper.Acknowledge()
	waitClosed(t, keeper.Done(), "done")
}

func TestContextCancellation(t *testing.T) {
	t.Run("running session is cancelled", func(t *testing.T) {
		ticker := newManualTicker()
		keeper := New(ModeStopwatch, 0, Config{NewTicker: func(time.Duration) Ticker { return ticker }})
		ctx, cancel := context.WithCancel(context.Background())
		keeper.Start(ctx)
		ticker.advance(61)

		cancel()
		waitClosed(t, keeper.Done(), "done")
		if got := keeper.Snapshot().State; got != StateCancelled {
			t.Fatalf("state = %s want cancelled", got)
		}
	})

	t.Run("completed session is acknowledged", func(t *testing.T) {
		ticker := newManualTicker()
		keeper := New(ModeCountdown, 2*time.Second, Config{NewTicker: func(time.Duration) Ticker { return ticker }})
		ctx, cancel := context.WithCancel(context.Background())
		keeper.Start(ctx)
		ticker.advance(2)
		waitClosed(t, keeper.Terminated(), "terminated")

		cancel()
		waitClosed(t, keeper.Done(), "done")
		snapshot := keeper.Snapshot()
		if snapshot.State != StateCompleted || !snapshot.Acknowledged {
			t.Fatalf("snapshot = %+v want acknowledged completion", snapshot)
		}
	})
}

func TestIdleAutoPause(t *testing.T) {
	ticker := newManualTicker()
	stub := &idleStub{idle: 10 * time.Minute}
	keeper := New(ModeStopwatch, 0, Config{
		IdlePauseAfter: 5 * time.Minute,
		NewTicker:      func(time.Duration) Ticker { return ticker },
	})
	keeper.SetIdleChecker(stub)
	events := keeper.Subscribe(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	keeper.Start(ctx)

	ticker.advance(1)
	snapshot := waitFor(t, keeper, "idle pause", func(s Snapshot) bool { return s.State == StatePaused })
	if snapshot.Elapsed != 0 {
		t.Fatalf("idle tick must not be credited, elapsed = %v", snapshot.Elapsed)
	}

	sawIdle := false
	for !sawIdle {
		select {
		case event := <-events:
			sawIdle = event.Type == EventIdlePause
		case <-time.After(2 * time.Second):
			t.Fatalf("no idle_pause event")
		}
	}
}

func TestIdleUnsupportedDisablesChecks(t *testing.T) {
	ticker := newManualTicker()
	stub := &idleStub{err: ErrIdleUnsupported}
	keeper := New(ModeStopwatch, 0, Config{
		IdlePauseAfter: time.Minute,
		NewTicker:      func(time.Duration) Ticker { return ticker },
	})
	keeper.SetIdleChecker(stub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	keeper.Start(ctx)

	ticker.advance(20)
	waitFor(t, keeper, "twenty seconds", func(s Snapshot) bool { return s.Elapsed == 20*time.Second })
	if stub.Calls() != 1 {
		t.Fatalf("idle checker calls = %d want 1", stub.Calls())
	}
	if !errors.Is(stub.err, ErrIdleUnsupported) {
		t.Fatalf("unexpected stub error %v", stub.err)
	}
}

func TestSnapshotSegments(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		want     int
	}{
		{name: "start", snapshot: Snapshot{Mode: ModeCountdown, Total: 900 * time.Second}, want: 0},
		{name: "half", snapshot: Snapshot{Mode: ModeCountdown, Total: 900 * time.Second, Elapsed: 450 * time.Second}, want: 5},
		{name: "one second short", snapshot: Snapshot{Mode: ModeCountdown, Total: 900 * time.Second, Elapsed: 899 * time.Second}, want: 9},
		{name: "full", snapshot: Snapshot{Mode: ModeCountdown, Total: 900 * time.Second, Elapsed: 900 * time.Second}, want: 10},
		{name: "overrun clamps", snapshot: Snapshot{Mode: ModeCountdown, Total: 900 * time.Second, Elapsed: 1000 * time.Second}, want: 10},
		{name: "zero total", snapshot: Snapshot{Mode: ModeCountdown}, want: 10},
		{name: "stopwatch", snapshot: Snapshot{Mode: ModeStopwatch, Elapsed: time.Hour}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snapshot.Segments(); got != tt.want {
				t.Fatalf("Segments() = %d want %d", got, tt.want)
			}
		})
	}
}

func TestSnapshotMinutes(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		want     int
	}{
		{name: "countdown finalize capped", snapshot: Snapshot{Mode: ModeCountdown, State: StateFinalized, Total: 900 * time.Second, Elapsed: 905 * time.Second}, want: 15},
		{name: "countdown finalize early", snapshot: Snapshot{Mode: ModeCountdown, State: StateFinalized, Total: 900 * time.Second, Elapsed: 299 * time.Second}, want: 4},
		{name: "stopwatch finalize uncapped", snapshot: Snapshot{Mode: ModeStopwatch, State: StateFinalized, Elapsed: 3725 * time.Second}, want: 62},
		{name: "completed uses total", snapshot: Snapshot{Mode: ModeCountdown, State: StateCompleted, Total: 1800 * time.Second, Elapsed: 1800 * time.Second}, want: 30},
		{name: "cancelled", snapshot: Snapshot{Mode: ModeStopwatch, State: StateCancelled, Elapsed: time.Hour}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snapshot.Minutes(); got != tt.want {
				t.Fatalf("Minutes() = %d want %d", got, tt.want)
			}
		})
	}
}

func TestSnapshotDisplay(t *testing.T) {
	countdown := Snapshot{Mode: ModeCountdown, Total: time.Minute, Elapsed: 15 * time.Second}
	if countdown.Display() != 45*time.Second {
		t.Fatalf("countdown display = %v want 45s", countdown.Display())
	}
	stopwatch := Snapshot{Mode: ModeStopwatch, Elapsed: 15 * time.Second}
	if stopwatch.Display() != 15*time.Second {
		t.Fatalf("stopwatch display = %v want 15s", stopwatch.Display())
	}
}
