package flock

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mrz1836/sieve/internal/constants"
	"github.com/mrz1836/sieve/internal/errors"
)

// Lock is a held exclusive lock on a file.
type Lock struct {
	f *os.File
}

// Acquire blocks until it holds an exclusive lock on path or ctx is done.
// The lock file and its parent directory are created when missing.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.Wrap(err, "failed to create lock directory")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) //nolint:gosec // path is built from configured tmp dir
	if err != nil {
		return nil, errors.Wrap(err, "failed to open lock file")
	}

	ticker := time.NewTicker(constants.LockRetryInterval)
	defer ticker.Stop()

	for {
		if err := Exclusive(f.Fd()); err == nil {
			return &Lock{f: f}, nil
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Release unlocks and closes the lock file. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	unlockErr := Unlock(l.f.Fd())
	closeErr := l.f.Close()
	l.f = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
