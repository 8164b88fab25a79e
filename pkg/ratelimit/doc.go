// Package ratelimit throttles digit production to a configured rate.
//
// Generating digits is CPU-bound and, near the start of a stream, far
// faster than most consumers want. The token bucket meters batches so
// the long-run rate matches max_digits_per_second while still letting a
// single batch pass whole.
//
// Interface:
//
// Rate limiters implement the Limiter interface:
//   - AllowN(n) bool - check whether n digits may be produced now
//   - WaitN(ctx, n) error - block until n digits are allowed
//   - Reset() - restore a full bucket
//
// Usage:
//
//	// 10,000 digits per second, batches of 100
//	limiter := ratelimit.NewTokenBucket(10000, 100)
//
//	// Before each batch
//	if err := limiter.WaitN(ctx, batchSize); err != nil {
//	    return err // context cancelled while throttled
//	}
//
// WaitN reserves its tokens immediately and sleeps out the deficit, so
// concurrent callers are paced fairly and cancellation never leaks
// tokens.
package ratelimit
