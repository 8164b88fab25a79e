package retry_test

import (
	"context"
	"log"
	"time"

	"pistream/pkg/config"
	"pistream/pkg/retry"
)

func ExampleDo() {
	// Simple retry with default configuration
	err := retry.Do(func() error {
		return flushDigits()
	}, nil)

	if err != nil {
		log.Printf("Operation failed after retries: %v", err)
	}
}

func ExampleDo_customConfig() {
	// Custom retry configuration
	cfg := &retry.Config{
		MaxAttempts: 5,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    2 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Printf("Retry attempt %d after error: %v (waiting %v)", attempt, err, delay)
		},
		Context: context.Background(),
	}

	err := retry.Do(func() error {
		return flushDigits()
	}, cfg)

	if err != nil {
		log.Printf("Operation failed: %v", err)
	}
}

func ExampleDoWithResult() {
	// Retry an operation that returns a result
	n, err := retry.DoWithResult(func() (int, error) {
		return appendBatch()
	}, nil)

	if err != nil {
		log.Printf("Failed to write batch: %v", err)
	} else {
		log.Printf("Wrote %d bytes", n)
	}
}

func ExampleRetrier() {
	// Create a retrier with chained configuration
	retrier := retry.NewRetrier(nil).
		WithMaxAttempts(5).
		WithBackoff(&retry.ExponentialBackoff{
			BaseDelay:    1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   1.5,
			JitterFactor: 0.1,
		}).
		WithContext(context.Background())

	err := retrier.Do(func() error {
		return flushDigits()
	})

	if err != nil {
		log.Printf("Operation failed: %v", err)
	}
}

func ExampleConfig_fromStreamConfig() {
	// Build a retry config from the stream configuration
	cfg := config.DefaultConfig()

	retryConfig := &retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    time.Duration(cfg.Retry.BaseDelay),
			MaxDelay:     time.Duration(cfg.Retry.MaxDelay),
			Multiplier:   cfg.Retry.Multiplier,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: context.Background(),
	}

	retry.Do(flushDigits, retryConfig)
}

// Helper functions for examples
func flushDigits() error {
	return nil
}

func appendBatch() (int, error) {
	return 512, nil
}
