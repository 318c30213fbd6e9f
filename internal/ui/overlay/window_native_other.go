//go:build !windows

package overlay

// applyNative is a no-op: without a portable always-on-top API the window manager
// decides stacking and opacity.
func (overlay *Window) applyNative() {}
