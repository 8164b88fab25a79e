package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"pistream/pkg/config"
	"pistream/pkg/stream"
)

// TestHelper provides common test utilities
type TestHelper struct {
	t   *testing.T
	dir string
}

// NewTestHelper creates a new test helper with its own output directory
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t, dir: t.TempDir()}
}

// Dir returns the output directory streams under test write into
func (h *TestHelper) Dir() string {
	return h.dir
}

// CreateTestConfig creates a configuration tuned for fast tests
func (h *TestHelper) CreateTestConfig() *config.Config {
	cfg := config.DefaultConfig()

	cfg.Output.Directory = h.dir
	cfg.Output.LineWidth = 25

	cfg.Checkpoint.IntervalDigits = 100
	cfg.Checkpoint.Interval = config.Duration(time.Hour)

	cfg.Disk.PollInterval = config.Duration(10 * time.Millisecond)

	cfg.Engine.BatchSize = 10

	cfg.Retry.MaxAttempts = 3
	cfg.Retry.BaseDelay = config.Duration(time.Millisecond)
	cfg.Retry.MaxDelay = config.Duration(5 * time.Millisecond)

	cfg.History.Enabled = false
	cfg.Notifications.Enabled = false

	return cfg
}

// StreamUntil runs one full session: start a streamer on cfg, wait for it
// to pass the digit mark, then stop it gracefully.
func (h *TestHelper) StreamUntil(cfg *config.Config, digits uint64) *stream.Streamer {
	h.t.Helper()

	s := stream.New(cfg)
	s.Start(context.Background())

	h.WaitForCondition(func() bool {
		return s.Progress().Digits >= digits
	}, 10*time.Second, "stream to reach digit mark")

	s.Stop()
	if err := s.Wait(); err != nil {
		h.t.Fatalf("stream session failed: %v", err)
	}
	return s
}

// ReadDigits returns the digit file content with the line breaks stripped
func (h *TestHelper) ReadDigits(path string) string {
	h.t.Helper()

	raw, err := os.ReadFile(path)
	if err != nil {
		h.t.Fatalf("Failed to read digit file %s: %v", path, err)
	}
	return strings.ReplaceAll(string(raw), "\n", "")
}

// WaitForCondition waits for a condition to be true with timeout
func (h *TestHelper) WaitForCondition(condition func() bool, timeout time.Duration, message string) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	h.t.Fatalf("Timeout waiting for condition: %s", message)
}

// AssertFileExists checks if a file exists
func (h *TestHelper) AssertFileExists(path string) {
	h.t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		h.t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertNoError fails the test if err is not nil
func (h *TestHelper) AssertNoError(err error) {
	h.t.Helper()

	if err != nil {
		h.t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(expected, actual interface{}) {
	h.t.Helper()

	if expected != actual {
		h.t.Errorf("Expected %v, got %v", expected, actual)
	}
}
