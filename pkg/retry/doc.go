// Package retry provides bounded retry with backoff for transient failures
// on the digit stream's write path.
//
// Features:
//   - Exponential and constant backoff strategies
//   - Jitter to spread out repeated attempts
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Structured logging of every attempt
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return writer.Append(digits)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
// The default predicate retries only errors classified as write I/O.
// Corrupt checkpoints and lock contention fail immediately, and context
// cancellation always wins over a pending backoff wait.
package retry
