package platform

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	lockFileName = AppName + ".lock"
	greeting     = AppName + "\n"
	dialTimeout  = 500 * time.Millisecond
)

// InstanceGuard holds the single-instance lock: a loopback listener on an ephemeral
// port whose address is recorded in a lock file inside the config directory.
type InstanceGuard struct {
	listener net.Listener
	address  string
	lockPath string
}

// AcquireSingleInstance claims the instance lock in configDir. A lock file whose
// listener no longer answers is treated as stale and replaced. Only the interactive
// session needs it; history reports may run alongside.
func AcquireSingleInstance(configDir string) (*InstanceGuard, error) {
	lockPath := filepath.Join(configDir, lockFileName)
	address, err := readLock(lockPath)
	switch {
	case err == nil && instanceAnswers(address):
		return nil, fmt.Errorf("%w: listening on %s", ErrAlreadyRunning, address)
	case err == nil || !errors.Is(err, os.ErrNotExist):
		if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for instance lock: %w", err)
	}
	address = listener.Addr().String()

	lockFile, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		_ = listener.Close()
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s was claimed concurrently", ErrAlreadyRunning, lockPath)
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	_, writeErr := io.WriteString(lockFile, address+"\n")
	closeErr := lockFile.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = listener.Close()
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("write lock file: %w", err)
	}

	guard := &InstanceGuard{listener: listener, address: address, lockPath: lockPath}
	go guard.serve()
	return guard, nil
}

// Release closes the listener and removes the lock file if it is still ours.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	closeErr := guard.listener.Close()
	if address, err := readLock(guard.lockPath); err == nil && address == guard.address {
		if err := os.Remove(guard.lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.Join(closeErr, fmt.Errorf("remove lock file: %w", err))
		}
	}
	return closeErr
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

// serve answers every connection with the greeting until the listener closes.
func (guard *InstanceGuard) serve() {
	for {
		conn, err := guard.listener.Accept()
		if err != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(dialTimeout))
		_, _ = io.WriteString(conn, greeting)
		_ = conn.Close()
	}
}

func readLock(lockPath string) (string, error) {
	rawData, err := os.ReadFile(lockPath)
	if err != nil {
		return "", err
	}
	address := strings.TrimSpace(string(rawData))
	if address == "" {
		return "", fmt.Errorf("empty lock file %s", lockPath)
	}
	return address, nil
}

// instanceAnswers reports whether a running instance greets on address. Any other
// listener on a reused port does not count.
func instanceAnswers(address string) bool {
	conn, err := net.DialTimeout("tcp", address, dialTimeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && line == greeting
}
