package stream

import "time"

// Progress is a point-in-time snapshot of the stream, safe to hand to
// any goroutine.
type Progress struct {
	State     State
	RunID     string
	SessionID string

	// Digits counts every fractional digit produced so far, including
	// any still buffered; Durable counts those fsynced to disk.
	Digits  uint64
	Durable uint64

	// StartDigits is the count inherited from the checkpoint, zero on a
	// fresh run.
	StartDigits uint64

	Path  string
	Bytes int64

	InstRate float64 // digits per second over the last sample window
	AvgRate  float64 // exponential moving average of InstRate

	// FreeBytes is the free space seen at the last poll, not a live
	// reading.
	FreeBytes    uint64
	MinFreeBytes uint64

	StartedAt time.Time
	Uptime    time.Duration

	// PauseReason explains a Paused state; LastError holds the most
	// recent write failure while the stream is retrying or Fatal.
	PauseReason string
	LastError   string
}

// StatusSink receives a snapshot after every batch and on every state
// change. Sinks run on the stream goroutine and must not block.
type StatusSink interface {
	Update(Progress)
}

// minRateWindow is the shortest interval a rate sample may cover.
// Early batches finish in microseconds; sampling each one would make
// the instantaneous rate pure noise.
const minRateWindow = 250 * time.Millisecond

// rateTracker derives the displayed digit rates: an instantaneous rate
// over the most recent sample window and an exponential moving average
// smoothing it.
type rateTracker struct {
	alpha  float64
	anchor time.Time
	digits uint64
	inst   float64
	avg    float64
	primed bool
}

func newRateTracker(alpha float64) *rateTracker {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.15
	}
	return &rateTracker{alpha: alpha}
}

func (r *rateTracker) observe(now time.Time, digits uint64) {
	if r.anchor.IsZero() {
		r.anchor = now
		r.digits = digits
		return
	}

	dt := now.Sub(r.anchor)
	if dt < minRateWindow {
		return
	}

	r.inst = float64(digits-r.digits) / dt.Seconds()
	if r.primed {
		r.avg = r.alpha*r.inst + (1-r.alpha)*r.avg
	} else {
		r.avg = r.inst
		r.primed = true
	}
	r.anchor = now
	r.digits = digits
}
