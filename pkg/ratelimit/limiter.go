package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for throttling digit production
type Limiter interface {
	// AllowN reports whether n digits may be produced right now
	AllowN(n int) bool
	// WaitN blocks until n digits may be produced or the context ends
	WaitN(ctx context.Context, n int) error
	// Reset restores the limiter to a full bucket
	Reset()
}

// TokenBucket meters digit production to a steady per-second rate. Tokens
// accrue continuously; a full bucket holds one second of output, so a fresh
// stream may burst briefly before settling on the configured rate.
type TokenBucket struct {
	rate     float64 // tokens added per second
	capacity float64 // maximum stored tokens
	tokens   float64 // may go negative while a WaitN reservation drains
	last     time.Time
	mu       sync.Mutex
}

// NewTokenBucket creates a bucket producing ratePerSecond tokens. The
// capacity is one second of tokens, raised to burst when a single batch
// is larger than that. ratePerSecond must be positive; a stream with no
// rate cap should not construct a limiter at all.
func NewTokenBucket(ratePerSecond, burst int) *TokenBucket {
	capacity := float64(ratePerSecond)
	if float64(burst) > capacity {
		capacity = float64(burst)
	}
	return &TokenBucket{
		rate:     float64(ratePerSecond),
		capacity: capacity,
		tokens:   capacity,
		last:     time.Now(),
	}
}

// AllowN takes n tokens if they are available
func (tb *TokenBucket) AllowN(n int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())

	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}

	return false
}

// WaitN blocks until n tokens are available or the context is cancelled.
// The tokens are reserved up front; on cancellation they are returned.
func (tb *TokenBucket) WaitN(ctx context.Context, n int) error {
	tb.mu.Lock()
	tb.refill(time.Now())
	tb.tokens -= float64(n)
	deficit := -tb.tokens
	tb.mu.Unlock()

	if deficit <= 0 {
		return nil
	}

	wait := time.Duration(deficit / tb.rate * float64(time.Second))
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		tb.mu.Lock()
		tb.tokens += float64(n)
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.mu.Unlock()
		return ctx.Err()
	}
}

// Reset refills the bucket to capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.last = time.Now()
}

// refill accrues tokens for the time elapsed since the last refill.
// Callers must hold mu.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.last).Seconds()
	if elapsed <= 0 {
		return
	}

	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.last = now
}
