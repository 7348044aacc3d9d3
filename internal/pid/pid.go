// Package pid guards against two bridges driving the same display.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/serialstat/internal/errors"
)

const (
	pidFile = "serialstat.pid"
)

// DefaultPath is the PID file used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write records the current process ID at path. It fails with
// ErrAlreadyRunning when the file names another live process; a stale or
// unreadable file is replaced.
func Write(path string) error {
	errFactory := errors.New()

	if running, err := isRunning(path); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	} else if running {
		return errFactory.WithData(errors.ErrAlreadyRunning, struct {
			Path string
		}{
			Path: path,
		})
	}

	err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove(path string) error {
	errFactory := errors.New()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func isRunning(path string) (bool, error) {
	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}

	return process.Signal(syscall.Signal(0)) == nil, nil
}
