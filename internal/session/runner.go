package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"focustimer/internal/core/model"
	"focustimer/internal/core/timekeeper"
	"focustimer/internal/platform"
	"focustimer/internal/storage"

	"github.com/hashicorp/go-hclog"
)

// ErrSessionActive indicates a session is already running.
var ErrSessionActive = errors.New("a session is already running")

// Display presents a running session to the user. Present must subscribe to the
// keeper before returning; the returned channel closes once the display is torn
// down.
type Display interface {
	Present(plan model.Plan, keeper *timekeeper.TimeKeeper) <-chan struct{}
}

// Observer is notified when sessions start and end.
type Observer interface {
	SessionStarted(plan model.Plan, keeper *timekeeper.TimeKeeper)
	SessionEnded(outcome Outcome)
}

// Outcome reports how a session ended.
type Outcome struct {
	Plan  model.Plan
	State timekeeper.State
	// Minutes is the recorded value; zero for a cancelled session.
	Minutes int
	// Saved is set when the session was appended to the history log.
	Saved   bool
	Session model.Session
	SaveErr error
}

// Recorded reports whether the outcome is worth a history entry.
func (outcome Outcome) Recorded() bool {
	return outcome.State == timekeeper.StateCompleted || outcome.State == timekeeper.StateFinalized
}

// Options configures a Runner.
type Options struct {
	Store   storage.HistoryStore
	Display Display
	Idle    timekeeper.IdleChecker
	Keeper  timekeeper.Config
	Clock   platform.Clock
	Logger  hclog.Logger
}

// Runner drives one session at a time from plan to history entry.
type Runner struct {
	store   storage.HistoryStore
	display Display
	idle    timekeeper.IdleChecker
	keeper  timekeeper.Config
	clock   platform.Clock
	logger  hclog.Logger

	mu        sync.Mutex
	active    bool
	observers []Observer
	sessions  sync.WaitGroup
}

// NewRunner creates a Runner.
func NewRunner(options Options) *Runner {
	if options.Clock == nil {
		options.Clock = platform.SystemClock{}
	}
	if options.Logger == nil {
		options.Logger = hclog.NewNullLogger()
	}
	return &Runner{
		store:   options.Store,
		display: options.Display,
		idle:    options.Idle,
		keeper:  options.Keeper,
		clock:   options.Clock,
		logger:  options.Logger.Named("session"),
	}
}

// AddObserver registers an observer for subsequent sessions.
func (runner *Runner) AddObserver(observer Observer) {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	runner.observers = append(runner.observers, observer)
}

// SetKeeperConfig replaces the engine configuration used by later sessions.
func (runner *Runner) SetKeeperConfig(config timekeeper.Config) {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	runner.keeper = config
}

// Wait blocks until the running session, if any, has been recorded.
func (runner *Runner) Wait() {
	runner.sessions.Wait()
}

// Run executes plan until the session closes and records the result. observe, when
// not nil, receives every published snapshot and the final one.
func (runner *Runner) Run(ctx context.Context, plan model.Plan, observe func(timekeeper.Snapshot)) (Outcome, error) {
	if err := plan.Validate(); err != nil {
		return Outcome{}, err
	}

	runner.mu.Lock()
	if runner.active {
		runner.mu.Unlock()
		return Outcome{}, ErrSessionActive
	}
	runner.active = true
	runner.sessions.Add(1)
	config := runner.keeper
	observers := append([]Observer(nil), runner.observers...)
	runner.mu.Unlock()
	defer func() {
		runner.mu.Lock()
		runner.active = false
		runner.mu.Unlock()
		runner.sessions.Done()
	}()

	mode := timekeeper.ModeStopwatch
	if plan.Countdown() {
		mode = timekeeper.ModeCountdown
	}
	keeper := timekeeper.New(mode, plan.Duration(), config)
	if runner.idle != nil {
		keeper.SetIdleChecker(runner.idle)
	}

	var forwarded sync.WaitGroup
	if observe != nil {
		events := keeper.Subscribe(16)
		forwarded.Add(1)
		go func() {
			defer forwarded.Done()
			for event := range events {
				observe(event.Snapshot)
			}
		}()
	}

	displayClosed := runner.present(plan, keeper)
	for _, observer := range observers {
		observer.SessionStarted(plan, keeper)
	}

	startedAt := runner.clock.Now()
	runner.logger.Info("session started", "objective", plan.Objective, "type", plan.Type, "minutes", plan.Minutes)
	keeper.Start(ctx)

	<-keeper.Done()
	<-displayClosed
	forwarded.Wait()

	final := keeper.Snapshot()
	if observe != nil {
		observe(final)
	}

	outcome := Outcome{Plan: plan, State: final.State, Minutes: final.Minutes()}
	if outcome.Recorded() {
		outcome.Session = model.NewSession(plan, startedAt, outcome.Minutes)
		outcome.SaveErr = runner.save(ctx, outcome.Session)
		outcome.Saved = outcome.SaveErr == nil
	}
	runner.logger.Info("session ended", "state", outcome.State, "minutes", outcome.Minutes, "saved", outcome.Saved)

	for _, observer := range observers {
		observer.SessionEnded(outcome)
	}
	return outcome, nil
}

// present hands the keeper to the display. Without a display a completed countdown
// is acknowledged as soon as it terminates.
func (runner *Runner) present(plan model.Plan, keeper *timekeeper.TimeKeeper) <-chan struct{} {
	if runner.display != nil {
		return runner.display.Present(plan, keeper)
	}
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		<-keeper.Terminated()
		keeper.Acknowledge()
	}()
	return closed
}

func (runner *Runner) save(ctx context.Context, session model.Session) error {
	if runner.store == nil {
		return errors.New("save session: no history store configured")
	}
	// A session that finished during shutdown is still written.
	if err := runner.store.Append(context.WithoutCancel(ctx), session); err != nil {
		runner.logger.Error("save session failed", "error", err)
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
