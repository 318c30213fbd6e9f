package pulse

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (rec *recorder) add(call string) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.calls = append(rec.calls, call)
}

func (rec *recorder) snapshot() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]string(nil), rec.calls...)
}

func immediate(fn func()) { fn() }

func fastConfig() Config {
	return Config{
		PulseDuration: 5 * time.Millisecond,
		BlinkOn:       2 * time.Millisecond,
		BlinkOff:      2 * time.Millisecond,
		BlinkCount:    2,
	}
}

func TestPulseRunsOnThenOff(t *testing.T) {
	rec := &recorder{}
	engine := NewWithDispatcher(fastConfig(), immediate)

	engine.Pulse(context.Background(), func() { rec.add("on") }, func() { rec.add("off") })
	engine.wait()

	got := rec.snapshot()
	if len(got) != 2 || got[0] != "on" || got[1] != "off" {
		t.Fatalf("calls = %v want [on off]", got)
	}
}

func TestBlinkEndsVisible(t *testing.T) {
	rec := &recorder{}
	engine := NewWithDispatcher(fastConfig(), immediate)

	engine.Blink(context.Background(), func(visible bool) {
		if visible {
			rec.add("show")
		} else {
			rec.add("hide")
		}
	})
	engine.wait()

	want := []string{"hide", "show", "hide", "show"}
	got := rec.snapshot()
	if len(got) != len(want) {
		t.Fatalf("calls = %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v want %v", got, want)
		}
	}
}

func TestStopCancelsPendingCallbacks(t *testing.T) {
	rec := &recorder{}
	config := fastConfig()
	config.PulseDuration = time.Hour
	engine := NewWithDispatcher(config, immediate)

	engine.Pulse(context.Background(), func() { rec.add("on") }, func() { rec.add("off") })
	engine.Stop()
	engine.wait()

	engine.Pulse(context.Background(), func() { rec.add("late") }, nil)
	engine.wait()

	for _, call := range rec.snapshot() {
		if call == "off" || call == "late" {
			t.Fatalf("callback %q ran after Stop", call)
		}
	}
}

func TestQueuedCallbackSkippedAfterStop(t *testing.T) {
	var (
		mu     sync.Mutex
		queued []func()
	)
	deferred := func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		queued = append(queued, fn)
	}
	ran := false
	engine := NewWithDispatcher(fastConfig(), deferred)

	engine.Pulse(context.Background(), func() { ran = true }, nil)
	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		count := len(queued)
		mu.Unlock()
		if count > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	engine.Stop()
	engine.wait()

	mu.Lock()
	defer mu.Unlock()
	for _, fn := range queued {
		fn()
	}
	if ran {
		t.Fatalf("queued callback ran after Stop")
	}
}

func TestNewEffectReplacesActiveOne(t *testing.T) {
	rec := &recorder{}
	config := fastConfig()
	config.PulseDuration = time.Hour
	engine := NewWithDispatcher(config, immediate)

	engine.Pulse(context.Background(), func() { rec.add("first-on") }, func() { rec.add("first-off") })
	engine.Blink(context.Background(), func(bool) { rec.add("blink") })
	engine.wait()

	for _, call := range rec.snapshot() {
		if call == "first-off" {
			t.Fatalf("replaced pulse still finished")
		}
	}
}
