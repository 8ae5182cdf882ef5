// Package pid guards against a second daemon instance via a pidfile.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/sysboard/sysboard/internal/errors"
)

const pidFile = "sysboard.pid"

// Write writes the current process ID to the pidfile. It fails with
// ErrAlreadyRunning when a live process already holds it.
func Write() error {
	pid := os.Getpid()
	path := filepath.Join(os.TempDir(), pidFile)

	if _, err := os.Stat(path); err == nil {
		bytes, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(errors.ErrInternal, err)
		}

		existing, err := strconv.Atoi(string(bytes))
		if err == nil {
			if process, err := os.FindProcess(existing); err == nil {
				if process.Signal(syscall.Signal(0)) == nil {
					return errors.WithData(errors.ErrAlreadyRunning, existing)
				}
			}
		}
		// Stale pidfile: fall through and take it over.
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the pidfile.
func Remove() error {
	path := filepath.Join(os.TempDir(), pidFile)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}

	return nil
}
