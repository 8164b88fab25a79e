package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateTrackerSmoothing(t *testing.T) {
	r := newRateTracker(0.5)
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	r.observe(base, 0) // anchor only
	assert.Zero(t, r.inst)

	r.observe(base.Add(500*time.Millisecond), 1000)
	assert.InDelta(t, 2000.0, r.inst, 0.001)
	assert.InDelta(t, 2000.0, r.avg, 0.001, "the first sample primes the average")

	r.observe(base.Add(1*time.Second), 3000)
	assert.InDelta(t, 4000.0, r.inst, 0.001)
	assert.InDelta(t, 3000.0, r.avg, 0.001)
}

func TestRateTrackerIgnoresShortWindows(t *testing.T) {
	r := newRateTracker(0.15)
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	r.observe(base, 0)
	r.observe(base.Add(time.Millisecond), 50)
	assert.Zero(t, r.inst, "a 1ms window must not produce a sample")

	// The short observation kept the anchor, so the next long window
	// measures from the start.
	r.observe(base.Add(time.Second), 500)
	assert.InDelta(t, 500.0, r.inst, 0.001)
}

func TestRateTrackerClampsBadAlpha(t *testing.T) {
	assert.InDelta(t, 0.15, newRateTracker(0).alpha, 0.001)
	assert.InDelta(t, 0.15, newRateTracker(1.5).alpha, 0.001)
	assert.InDelta(t, 0.3, newRateTracker(0.3).alpha, 0.001)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "shutting down", StateShuttingDown.String())
	assert.Equal(t, "unknown", State(99).String())
}
