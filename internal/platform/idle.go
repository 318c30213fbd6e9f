package platform

import "focustimer/internal/core/timekeeper"

// NewIdleChecker returns a platform-specific idle checker. Platforms without idle
// detection report timekeeper.ErrIdleUnsupported.
func NewIdleChecker() timekeeper.IdleChecker {
	return newIdleChecker()
}
