package lock

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/fs"
	"github.com/sqve/avalanche/internal/logger"
	"github.com/sqve/avalanche/internal/retry"
)

const maxStaleRemovals = 3

// Lock is a PID-stamped lock file. The file's existence is the lock.
type Lock struct {
	fsys afero.Fs
	path string
	file afero.File
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release closes and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = l.file.Close()
	l.file = nil
	if err := l.fsys.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.ErrStoreIO(l.path, err)
	}
	return nil
}

// Acquire creates the lock file exclusively. Locks left behind by dead
// processes or holding garbage are removed and acquisition is retried a
// bounded number of times. A live holder yields a LOCK_HELD error.
func Acquire(fsys afero.Fs, path string) (*Lock, error) {
	for attempt := range maxStaleRemovals {
		l, done, err := tryAcquire(fsys, path, attempt)
		if done {
			return l, err
		}
	}
	return nil, errors.NewAvalancheErrorf(errors.ErrCodeLockHeld, nil,
		"failed to acquire lock after %d attempts; if no avalanche process is running, remove %s", maxStaleRemovals, path).
		WithContext("path", path)
}

// AcquireWithRetry waits for a live holder to release the lock, backing off
// according to policy.
func AcquireWithRetry(ctx context.Context, fsys afero.Fs, path string, policy retry.Policy) (*Lock, error) {
	var acquired *Lock
	err := retry.Do(ctx, policy, func(context.Context) error {
		l, err := Acquire(fsys, path)
		if err != nil {
			return err
		}
		acquired = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acquired, nil
}

// tryAcquire makes a single attempt. It returns done=false only when a stale
// lock was removed and the caller should try again.
func tryAcquire(fsys afero.Fs, path string, attempt int) (*Lock, bool, error) {
	file, err := fsys.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fs.FileStrict)
	if err == nil {
		if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
			_ = file.Close()
			_ = fsys.Remove(path)
			return nil, true, errors.ErrStoreIO(path, err)
		}
		return &Lock{fsys: fsys, path: path, file: file}, true, nil
	}

	if !os.IsExist(err) {
		return nil, true, errors.ErrStoreIO(path, err)
	}

	log := logger.WithComponent("lock")

	content, readErr := afero.ReadFile(fsys, path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			// Released between our open and read.
			return nil, false, nil
		}
		return nil, true, errors.ErrStoreIO(path, readErr)
	}

	pidStr := strings.TrimSpace(string(content))
	pid, parseErr := strconv.Atoi(pidStr)
	if parseErr != nil {
		log.Debug("lock file contains invalid PID, removing stale lock", "path", path, "pid", pidStr, "attempt", attempt+1)
		_ = fsys.Remove(path)
		return nil, false, nil
	}

	if !IsProcessRunning(pid) {
		log.Debug("lock held by terminated process, removing stale lock", "path", path, "pid", pid, "attempt", attempt+1)
		_ = fsys.Remove(path)
		return nil, false, nil
	}

	return nil, true, errors.ErrLockHeld(path, pid)
}

// HolderPID returns the PID recorded in the lock file, or 0.
func HolderPID(fsys afero.Fs, path string) int {
	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0
	}
	return pid
}
