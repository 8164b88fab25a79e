package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	errs "pistream/pkg/errors"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pistream.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if lock.Path() != path {
		t.Errorf("Expected lock path %s, got %s", path, lock.Path())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected lock file to exist: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}

	// The directory is free again.
	again, err := Acquire(path)
	if err != nil {
		t.Fatalf("Failed to reacquire released lock: %v", err)
	}
	again.Release()
}

func TestAcquireBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pistream.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer lock.Release()

	// A second acquisition opens its own file description, so the
	// kernel sees a genuine conflict even within one process.
	_, err = Acquire(path)
	if err == nil {
		t.Fatal("Expected second acquisition to fail")
	}
	if !errs.IsType(err, errs.ErrorTypeLock) {
		t.Errorf("Expected lock error, got %v", err)
	}
}

func TestAcquireCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "pistream.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Failed to acquire lock in nested directory: %v", err)
	}
	lock.Release()
}

func TestReleaseNilSafety(t *testing.T) {
	var lock *Lock
	if err := lock.Release(); err != nil {
		t.Errorf("Expected nil lock release to be a no-op, got %v", err)
	}
}
