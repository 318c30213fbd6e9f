package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPlan indicates a session plan that cannot be started.
var ErrInvalidPlan = errors.New("invalid session plan")

// Layouts used by the history log.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Objectives offered by the menu.
const (
	ObjectiveStudy = "Study"
	ObjectiveWork  = "Work"
	ObjectiveOther = "Other"
)

// SessionType identifies how a session measures time.
type SessionType string

const (
	SessionTimer     SessionType = "timer"
	SessionStopwatch SessionType = "stopwatch"

	// legacyStopwatch is how older history files spell the stopwatch type.
	legacyStopwatch = "cronometro"
)

// ParseSessionType converts a stored or user supplied value to a SessionType.
func ParseSessionType(value string) (SessionType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(SessionTimer):
		return SessionTimer, nil
	case string(SessionStopwatch), legacyStopwatch:
		return SessionStopwatch, nil
	default:
		return "", fmt.Errorf("unknown session type %q", value)
	}
}

// Valid reports whether the type is one of the two known values.
func (sessionType SessionType) Valid() bool {
	return sessionType == SessionTimer || sessionType == SessionStopwatch
}

// Label returns the human readable name of the type.
func (sessionType SessionType) Label() string {
	switch sessionType {
	case SessionTimer:
		return "Timer"
	case SessionStopwatch:
		return "Stopwatch"
	default:
		return string(sessionType)
	}
}

// Session is a finished work session as stored in the history log.
type Session struct {
	Date      time.Time
	StartedAt time.Time
	Objective string
	Type      SessionType
	Minutes   int
}

// NewSession builds the history record for a plan that ran from startedAt.
func NewSession(plan Plan, startedAt time.Time, minutes int) Session {
	if minutes < 0 {
		minutes = 0
	}
	return Session{
		Date:      DateOf(startedAt),
		StartedAt: startedAt.Truncate(time.Second),
		Objective: plan.Objective,
		Type:      plan.Type,
		Minutes:   minutes,
	}
}

// DateOf returns local midnight of the calendar day containing value.
func DateOf(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, value.Location())
}

// Plan describes a session the user asked to start.
type Plan struct {
	Objective string
	Type      SessionType
	// Minutes is the countdown length; ignored for stopwatch sessions.
	Minutes int
}

// Validate checks that the plan can be run.
func (plan Plan) Validate() error {
	if strings.TrimSpace(plan.Objective) == "" {
		return fmt.Errorf("%w: objective is empty", ErrInvalidPlan)
	}
	if !plan.Type.Valid() {
		return fmt.Errorf("%w: unknown session type %q", ErrInvalidPlan, plan.Type)
	}
	if plan.Type == SessionTimer && plan.Minutes <= 0 {
		return fmt.Errorf("%w: timer needs a positive number of minutes", ErrInvalidPlan)
	}
	return nil
}

// Countdown reports whether the plan runs in countdown mode.
func (plan Plan) Countdown() bool {
	return plan.Type == SessionTimer
}

// Duration returns the countdown length, or zero for stopwatch sessions.
func (plan Plan) Duration() time.Duration {
	if !plan.Countdown() {
		return 0
	}
	return time.Duration(plan.Minutes) * time.Minute
}
