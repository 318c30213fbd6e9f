package timekeeper

import "time"

// Mode selects countdown or count-up behaviour.
type Mode string

const (
	ModeCountdown Mode = "countdown"
	ModeStopwatch Mode = "stopwatch"
)

// State represents the current TimeKeeper lifecycle state.
type State string

const (
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateFinalized State = "finalized"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (state State) Terminal() bool {
	return state == StateCompleted || state == StateFinalized || state == StateCancelled
}

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventProgress    EventType = "progress"
	EventIdlePause   EventType = "idle_pause"
	EventIdleError   EventType = "idle_error"
)

// ProgressSegments is the number of cells in the countdown progress bar.
const ProgressSegments = 10

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	Mode         Mode
	State        State
	Total        time.Duration
	Elapsed      time.Duration
	Acknowledged bool
}

// Terminal reports whether the snapshot is in a terminal state.
func (snapshot Snapshot) Terminal() bool {
	return snapshot.State.Terminal()
}

// Remaining returns the countdown time left, never negative.
func (snapshot Snapshot) Remaining() time.Duration {
	if snapshot.Mode != ModeCountdown {
		return 0
	}
	remaining := snapshot.Total - snapshot.Elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Display returns the value shown on the clock: remaining time for a countdown,
// elapsed time for a stopwatch.
func (snapshot Snapshot) Display() time.Duration {
	if snapshot.Mode == ModeCountdown {
		return snapshot.Remaining()
	}
	return snapshot.Elapsed
}

// Segments returns how many progress bar cells are filled.
func (snapshot Snapshot) Segments() int {
	if snapshot.Mode != ModeCountdown {
		return 0
	}
	if snapshot.Total <= 0 {
		return ProgressSegments
	}
	filled := int(int64(ProgressSegments) * int64(snapshot.Elapsed) / int64(snapshot.Total))
	if filled > ProgressSegments {
		return ProgressSegments
	}
	if filled < 0 {
		return 0
	}
	return filled
}

// Minutes returns the whole minutes the session is worth recording.
func (snapshot Snapshot) Minutes() int {
	switch snapshot.State {
	case StateCancelled:
		return 0
	case StateCompleted:
		return int(snapshot.Total / time.Minute)
	}
	minutes := int(snapshot.Elapsed / time.Minute)
	if snapshot.Mode == ModeCountdown {
		if limit := int(snapshot.Total / time.Minute); minutes > limit {
			minutes = limit
		}
	}
	return minutes
}

// Event represents a TimeKeeper update for observers.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	Message  string
	At       time.Time
}
