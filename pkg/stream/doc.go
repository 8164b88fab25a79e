// Package stream provides the core loop that turns spigot digits into a
// durable, resumable file.
//
// The stream package orchestrates the whole pipeline, coordinating the
// digit engine, the formatted output file, the checkpoint store and the
// free-space guard.
//
// Architecture:
//
// The Streamer struct is the main component that:
//   - Generates digits in fixed-size batches
//   - Appends them to the line-wrapped digit file
//   - Checkpoints engine state and file cursor on a digit or time cadence
//   - Pauses generation while disk space is below the configured floor
//   - Retries failed writes with exponential backoff before going Fatal
//
// Usage:
//
//	cfg := config.DefaultConfig()
//	cfg.Output.Directory = "/var/lib/pistream"
//
//	streamer := stream.New(cfg)
//	streamer.Start(ctx)
//
//	// ... later, on SIGINT:
//	streamer.Stop()
//	if err := streamer.Wait(); err != nil {
//	    log.Fatal(err)
//	}
//
// Lifecycle:
//
// A stream moves Starting → Running, bounces between Running and Paused
// while disk space comes and goes, and ends Stopped after Stop or
// context cancellation. Fatal covers what the stream cannot recover
// from: a busy directory lock, an unusable output file, or a write that
// keeps failing after retries. Fatal is the only outcome Wait reports
// as an error.
//
// Recovery:
//
// On startup the Streamer takes an exclusive lock on the output
// directory, loads the checkpoint, truncates the digit file back to the
// checkpointed cursor and restores the engine mid-computation. A
// missing or corrupt checkpoint falls back to a clean start. Stopping
// and restarting a stream produces a file byte-identical to one written
// in a single run.
package stream
