package pulse

import (
	"context"
	"sync"
	"time"

	"fyne.io/fyne/v2"
)

// Config contains effect timing values.
type Config struct {
	PulseDuration time.Duration

	BlinkOn    time.Duration
	BlinkOff   time.Duration
	BlinkCount int
}

// DefaultConfig returns the timings used by the floating window.
func DefaultConfig() Config {
	return Config{
		PulseDuration: 150 * time.Millisecond,
		BlinkOn:       250 * time.Millisecond,
		BlinkOff:      250 * time.Millisecond,
		BlinkCount:    3,
	}
}

// Engine schedules short visual effects. Callbacks are dispatched to the UI thread
// and are skipped once the effect is replaced or the engine is stopped.
type Engine struct {
	mu       sync.Mutex
	config   Config
	dispatch func(func())
	cancel   context.CancelFunc
	stopped  bool
	running  sync.WaitGroup
}

// New creates an engine that runs callbacks through fyne.Do.
func New(config Config) *Engine {
	return NewWithDispatcher(config, fyne.Do)
}

// NewWithDispatcher creates an engine that runs callbacks through dispatch.
func NewWithDispatcher(config Config, dispatch func(func())) *Engine {
	return &Engine{config: config, dispatch: dispatch}
}

// Pulse calls on immediately and off after the pulse duration.
func (engine *Engine) Pulse(ctx context.Context, on, off func()) {
	engine.start(ctx, func(runCtx context.Context) {
		engine.call(runCtx, on)
		if !sleepWithContext(runCtx, engine.config.PulseDuration) {
			return
		}
		engine.call(runCtx, off)
	})
}

// Blink toggles visibility BlinkCount times and always ends visible unless
// cancelled.
func (engine *Engine) Blink(ctx context.Context, show func(visible bool)) {
	engine.start(ctx, func(runCtx context.Context) {
		for i := 0; i < engine.config.BlinkCount; i++ {
			engine.call(runCtx, func() { show(false) })
			if !sleepWithContext(runCtx, engine.config.BlinkOff) {
				return
			}
			engine.call(runCtx, func() { show(true) })
			if !sleepWithContext(runCtx, engine.config.BlinkOn) {
				return
			}
		}
	})
}

// Stop cancels the active effect; later effects are ignored.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	engine.stopped = true
	if engine.cancel != nil {
		engine.cancel()
		engine.cancel = nil
	}
	engine.mu.Unlock()
}

// wait blocks until every effect goroutine has returned.
func (engine *Engine) wait() {
	engine.running.Wait()
}

func (engine *Engine) start(parent context.Context, run func(context.Context)) {
	engine.mu.Lock()
	if engine.stopped {
		engine.mu.Unlock()
		return
	}
	if engine.cancel != nil {
		engine.cancel()
	}
	runCtx, cancel := context.WithCancel(parent)
	engine.cancel = cancel
	engine.running.Add(1)
	engine.mu.Unlock()

	go func() {
		defer engine.running.Done()
		run(runCtx)
	}()
}

// call dispatches fn, re-checking cancellation on the UI thread so a callback queued
// before Stop never runs after it.
func (engine *Engine) call(ctx context.Context, fn func()) {
	if fn == nil || ctx.Err() != nil {
		return
	}
	engine.dispatch(func() {
		if ctx.Err() != nil {
			return
		}
		fn()
	})
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
