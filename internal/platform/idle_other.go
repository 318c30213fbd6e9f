//go:build !linux && !windows

package platform

import (
	"time"

	"focustimer/internal/core/timekeeper"
)

type idleChecker struct{}

func newIdleChecker() timekeeper.IdleChecker {
	return idleChecker{}
}

func (idleChecker) IdleDuration() (time.Duration, error) {
	return 0, timekeeper.ErrIdleUnsupported
}
