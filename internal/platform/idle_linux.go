package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"focustimer/internal/core/timekeeper"
)

// idleQueryTimeout bounds one xprintidle call; the engine asks from its own loop.
const idleQueryTimeout = 2 * time.Second

// commandOutput runs name and returns its standard output.
type commandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// xprintidleChecker reads the X11 idle time through the xprintidle helper.
type xprintidleChecker struct {
	path    string
	timeout time.Duration
	output  commandOutput
}

type unsupportedIdleChecker struct{}

func newIdleChecker() timekeeper.IdleChecker {
	return detectIdleChecker(os.Getenv, exec.LookPath, runCommand)
}

// detectIdleChecker picks xprintidle on an X11 session and reports idle detection
// as unsupported everywhere else.
func detectIdleChecker(getenv func(string) string, lookPath func(string) (string, error), output commandOutput) timekeeper.IdleChecker {
	if strings.EqualFold(getenv("XDG_SESSION_TYPE"), "wayland") || getenv("DISPLAY") == "" {
		return unsupportedIdleChecker{}
	}
	path, err := lookPath("xprintidle")
	if err != nil {
		return unsupportedIdleChecker{}
	}
	return &xprintidleChecker{path: path, timeout: idleQueryTimeout, output: output}
}

func (checker *xprintidleChecker) IdleDuration() (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), checker.timeout)
	defer cancel()

	output, err := checker.output(ctx, checker.path)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("xprintidle timed out after %s: %w", checker.timeout, err)
		}
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	return parseIdleMillis(string(output))
}

func parseIdleMillis(value string) (time.Duration, error) {
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

func (unsupportedIdleChecker) IdleDuration() (time.Duration, error) {
	return 0, timekeeper.ErrIdleUnsupported
}
