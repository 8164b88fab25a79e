package logger

// This file shows how to integrate the logger into the main application

/*
Example integration in cmd/pistream:

package main

import (
	"os"

	"pistream/pkg/config"
	"pistream/pkg/logger"
	"pistream/pkg/stream"
	"pistream/pkg/ui"
)

func runStream(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Configuration error", err)
		os.Exit(1)
	}

	// Initialize the logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err)
		os.Exit(1)
	}

	// Now you can use the logger throughout the application
	logger.Info("pistream starting")

	// Log configuration at debug level
	logger.WithFields(map[string]interface{}{
		"output":     cfg.DigitsPath(),
		"line_width": cfg.Output.LineWidth,
		"min_free":   cfg.Disk.MinFreeBytes,
		"log_level":  cfg.Logging.Level,
	}).Debug("Configuration loaded")

	// Create and run the streamer with logging
	streamer := stream.New(cfg)
	streamer.Start(context.Background())

	if err := streamer.Wait(); err != nil {
		logger.WithError(err).Error("Stream failed")
		os.Exit(1)
	}

	logger.Info("Stream stopped cleanly")
	return nil
}
*/

// Example integration in the stream package:
/*
func (s *Streamer) run(ctx context.Context) {
	log := logger.GetLogger().
		WithField("component", "stream").
		WithField("run_id", s.runID)

	log.Info("Starting digit stream")

	// Use helper functions for the standard lifecycle events
	logger.LogRunStart(s.runID, resumed, startDigits, s.cfg.DigitsPath())

	// ... batch loop ...

	log.WithFields(map[string]interface{}{
		"digits":  digits,
		"durable": durable,
	}).Info("Stream stopped")
}
*/

// Example integration in the checkpoint path:
/*
func (s *Streamer) checkpoint() error {
	start := time.Now()

	// ... flush output, collect engine state, write atomically ...

	logger.LogCheckpoint(s.digits, cursor.BytesWritten, time.Since(start))
	return nil
}
*/

// Example integration with the disk guard:
/*
func (s *Streamer) pauseLoop(ctx context.Context) {
	logger.LogPause("free space below threshold", free, min)
	pausedAt := time.Now()

	// ... poll until space recovers or ctx is cancelled ...

	logger.LogResume(time.Since(pausedAt))
}
*/
