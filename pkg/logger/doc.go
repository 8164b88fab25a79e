// Package logger provides a structured logging interface for the digit
// streamer.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with
// support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors, written to stderr so the live
//   status line on stdout is never torn
// - Optional file output alongside the console
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "pistream/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File:  "/var/log/pistream.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("stream started")
//	logger.WithField("digits", 50000).Info("checkpoint written")
//	logger.WithError(err).Error("append failed")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "stream").
//	    WithField("run_id", runID)
//
//	// Use structured logging
//	log.InfoWithFields("flush complete", map[string]interface{}{
//	    "digits": 150000,
//	    "bytes":  153000,
//	})
//
// Tests use NewTestLogger, which records every call for assertions, or
// NewNopLogger when output is irrelevant.
package logger
