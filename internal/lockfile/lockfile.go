// Package lockfile guards an output directory against concurrent
// streams. Two processes appending to the same digit file would corrupt
// it; an advisory file lock turns the second start into a clean error.
package lockfile

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	errs "pistream/pkg/errors"
)

// Lock is an exclusive advisory lock held for the life of a stream.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock, failing immediately when another process
// holds it. There is no waiting: the caller reports the conflict and
// exits.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeLock, "lockfile.acquire", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeLock, "lockfile.acquire", err)
	}
	if !ok {
		return nil, errs.Newf(errs.ErrorTypeLock, "lockfile.acquire",
			"another stream is writing to this directory (lock: %s)", path)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. The lock file itself stays behind; the lock
// lives in the kernel, not in the file's contents.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return errs.Wrap(errs.ErrorTypeLock, "lockfile.release", err)
	}
	return nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.fl.Path() }
