package timekeeper

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// tickStep is the session time credited by one tick.
const tickStep = time.Second

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// Ticker delivers tick times. It mirrors the parts of time.Ticker the engine uses.
type Ticker interface {
	C() <-chan time.Time
	Reset(interval time.Duration)
	Stop()
}

type systemTicker struct {
	ticker *time.Ticker
}

func newSystemTicker(interval time.Duration) Ticker {
	return &systemTicker{ticker: time.NewTicker(interval)}
}

func (ticker *systemTicker) C() <-chan time.Time { return ticker.ticker.C }

func (ticker *systemTicker) Reset(interval time.Duration) { ticker.ticker.Reset(interval) }

func (ticker *systemTicker) Stop() { ticker.ticker.Stop() }

// Config contains runtime options for TimeKeeper.
type Config struct {
	// TickInterval is the wall-clock period between ticks while running.
	TickInterval time.Duration
	// PausedInterval is the refresh period while paused.
	PausedInterval time.Duration

	// IdlePauseAfter enables idle auto-pause when positive.
	IdlePauseAfter    time.Duration
	IdleCheckInterval time.Duration

	NewTicker func(interval time.Duration) Ticker
	Now       func() time.Time
}

type command int

const (
	commandPause command = iota
	commandResume
	commandToggle
	commandFinalize
	commandCancel
	commandAcknowledge
)

// TimeKeeper is the countdown/stopwatch state machine. A single goroutine owns the
// session state; control methods post commands to it.
type TimeKeeper struct {
	mu          sync.Mutex
	options     Config
	idleChecker IdleChecker
	latest      Snapshot
	subscribers []chan Event
	subsClosed  bool
	started     bool

	commands   chan command
	terminated chan struct{}
	done       chan struct{}

	// Owned by the run goroutine.
	state         Snapshot
	ticker        Ticker
	ticks         <-chan time.Time
	idleEnabled   bool
	lastIdleCheck time.Time
}

// New creates a TimeKeeper. total is ignored in stopwatch mode.
func New(mode Mode, total time.Duration, options Config) *TimeKeeper {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.PausedInterval <= 0 {
		options.PausedInterval = 200 * time.Millisecond
	}
	if options.IdleCheckInterval <= 0 {
		options.IdleCheckInterval = 5 * time.Second
	}
	if options.NewTicker == nil {
		options.NewTicker = newSystemTicker
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if mode != ModeCountdown {
		mode = ModeStopwatch
		total = 0
	}

	initial := Snapshot{Mode: mode, State: StateRunning, Total: total}
	return &TimeKeeper{
		options:    options,
		latest:     initial,
		state:      initial,
		commands:   make(chan command, 16),
		terminated: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// SetIdleChecker injects an idle checker. It must be called before Start.
func (keeper *TimeKeeper) SetIdleChecker(checker IdleChecker) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.idleChecker = checker
}

// Subscribe registers a new observer channel. The channel is closed once the
// session reaches a terminal state.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.subsClosed {
		close(ch)
		return ch
	}
	keeper.subscribers = append(keeper.subscribers, ch)
	return ch
}

// Start launches the ticking loop. Cancelling ctx cancels a running session.
func (keeper *TimeKeeper) Start(ctx context.Context) {
	keeper.mu.Lock()
	if keeper.started {
		keeper.mu.Unlock()
		return
	}
	keeper.started = true
	checker := keeper.idleChecker
	keeper.mu.Unlock()

	keeper.idleEnabled = checker != nil && keeper.options.IdlePauseAfter > 0
	go keeper.run(ctx, checker)
}

// Pause freezes the clock.
func (keeper *TimeKeeper) Pause() { keeper.send(commandPause) }

// Resume unfreezes the clock.
func (keeper *TimeKeeper) Resume() { keeper.send(commandResume) }

// TogglePause pauses a running session or resumes a paused one.
func (keeper *TimeKeeper) TogglePause() { keeper.send(commandToggle) }

// Finalize ends the session early and keeps the elapsed minutes.
func (keeper *TimeKeeper) Finalize() { keeper.send(commandFinalize) }

// Cancel ends the session and discards it.
func (keeper *TimeKeeper) Cancel() { keeper.send(commandCancel) }

// Acknowledge confirms that the user saw a completed countdown.
func (keeper *TimeKeeper) Acknowledge() { keeper.send(commandAcknowledge) }

// Snapshot returns the latest published state.
func (keeper *TimeKeeper) Snapshot() Snapshot {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.latest
}

// Terminated is closed when the session reaches a terminal state.
func (keeper *TimeKeeper) Terminated() <-chan struct{} {
	return keeper.terminated
}

// Done is closed when the session is over, after acknowledgment for a completed
// countdown.
func (keeper *TimeKeeper) Done() <-chan struct{} {
	return keeper.done
}

func (keeper *TimeKeeper) send(cmd command) {
	select {
	case keeper.commands <- cmd:
	case <-keeper.done:
	}
}

func (keeper *TimeKeeper) run(ctx context.Context, checker IdleChecker) {
	defer close(keeper.done)

	keeper.ticker = keeper.options.NewTicker(keeper.options.TickInterval)
	keeper.ticks = keeper.ticker.C()
	defer keeper.stopTicker()

	now := keeper.options.Now()
	if keeper.state.Mode == ModeCountdown && keeper.state.Total <= 0 {
		keeper.transition(StateCompleted, now)
	} else {
		keeper.publish(Event{Type: EventStateChange, At: now})
	}

	for !keeper.closed() {
		select {
		case <-ctx.Done():
			keeper.shutdown()
		case cmd := <-keeper.commands:
			keeper.apply(cmd)
		case tickTime := <-keeper.ticks:
			keeper.tick(tickTime, checker)
		}
	}
}

func (keeper *TimeKeeper) closed() bool {
	if !keeper.state.State.Terminal() {
		return false
	}
	return keeper.state.State != StateCompleted || keeper.state.Acknowledged
}

func (keeper *TimeKeeper) apply(cmd command) {
	now := keeper.options.Now()
	state := keeper.state.State

	if cmd == commandAcknowledge {
		if state == StateCompleted && !keeper.state.Acknowledged {
			keeper.state.Acknowledged = true
			keeper.storeLatest()
		}
		return
	}
	if state.Terminal() {
		return
	}

	switch cmd {
	case commandToggle:
		if state == StatePaused {
			keeper.resume(now)
		} else {
			keeper.pause(now, EventStateChange, "")
		}
	case commandPause:
		if state == StateRunning {
			keeper.pause(now, EventStateChange, "")
		}
	case commandResume:
		if state == StatePaused {
			keeper.resume(now)
		}
	case commandFinalize:
		keeper.transition(StateFinalized, now)
	case commandCancel:
		keeper.transition(StateCancelled, now)
	}
}

func (keeper *TimeKeeper) pause(now time.Time, eventType EventType, message string) {
	keeper.state.State = StatePaused
	keeper.ticker.Reset(keeper.options.PausedInterval)
	keeper.publish(Event{Type: eventType, Message: message, At: now})
}

func (keeper *TimeKeeper) resume(now time.Time) {
	keeper.state.State = StateRunning
	keeper.lastIdleCheck = time.Time{}
	keeper.ticker.Reset(keeper.options.TickInterval)
	keeper.publish(Event{Type: EventStateChange, At: now})
}

func (keeper *TimeKeeper) tick(tickTime time.Time, checker IdleChecker) {
	if keeper.state.State != StateRunning {
		keeper.publish(Event{Type: EventProgress, At: tickTime})
		return
	}

	if keeper.checkIdle(tickTime, checker) {
		return
	}

	keeper.state.Elapsed += tickStep
	if keeper.state.Mode == ModeCountdown && keeper.state.Elapsed >= keeper.state.Total {
		keeper.state.Elapsed = keeper.state.Total
		keeper.transition(StateCompleted, tickTime)
		return
	}
	keeper.publish(Event{Type: EventProgress, At: tickTime})
}

// checkIdle reports whether the tick was consumed by an idle auto-pause.
func (keeper *TimeKeeper) checkIdle(now time.Time, checker IdleChecker) bool {
	if !keeper.idleEnabled {
		return false
	}
	if !keeper.lastIdleCheck.IsZero() && now.Sub(keeper.lastIdleCheck) < keeper.options.IdleCheckInterval {
		return false
	}
	keeper.lastIdleCheck = now

	idleDuration, err := checker.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			keeper.idleEnabled = false
		}
		keeper.publish(Event{Type: EventIdleError, Message: err.Error(), At: now})
		return false
	}
	if idleDuration < keeper.options.IdlePauseAfter {
		return false
	}
	keeper.pause(now, EventIdlePause, "paused after "+idleDuration.Truncate(time.Second).String()+" idle")
	return true
}

func (keeper *TimeKeeper) transition(state State, now time.Time) {
	keeper.state.State = state
	keeper.stopTicker()
	keeper.publish(Event{Type: EventStateChange, At: now})
}

func (keeper *TimeKeeper) shutdown() {
	switch {
	case keeper.state.State == StateCompleted:
		keeper.state.Acknowledged = true
		keeper.storeLatest()
	case !keeper.state.State.Terminal():
		keeper.transition(StateCancelled, keeper.options.Now())
	}
}

func (keeper *TimeKeeper) stopTicker() {
	if keeper.ticker == nil {
		return
	}
	keeper.ticker.Stop()
	keeper.ticks = nil
}

func (keeper *TimeKeeper) storeLatest() {
	keeper.mu.Lock()
	keeper.latest = keeper.state
	keeper.mu.Unlock()
}

// publish stores the snapshot and fans the event out. Slow subscribers lose their
// oldest buffered event, never the newest one. Subscribers are closed after a
// terminal event.
func (keeper *TimeKeeper) publish(event Event) {
	event.Snapshot = keeper.state

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.latest = keeper.state
	for _, ch := range keeper.subscribers {
		select {
		case ch <- event:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}

	if !event.Snapshot.Terminal() {
		return
	}
	for _, ch := range keeper.subscribers {
		close(ch)
	}
	keeper.subscribers = nil
	keeper.subsClosed = true
	close(keeper.terminated)
}
