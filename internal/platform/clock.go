package platform

import "time"

// Clock abstracts wall-clock time so session start times are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
