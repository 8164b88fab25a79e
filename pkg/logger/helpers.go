package logger

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// LoggerWithCaller adds caller information to the logger
func LoggerWithCaller(skip int) Logger {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return GetLogger()
	}
	return GetLogger().WithFields(map[string]interface{}{
		"file": file,
		"line": line,
	})
}

// LogRunStart logs the beginning of a streaming run
func LogRunStart(runID string, resumed bool, digits uint64, output string) {
	GetLogger().InfoWithFields("run started", map[string]interface{}{
		"run_id":  runID,
		"resumed": resumed,
		"digits":  digits,
		"output":  output,
	})
}

// LogCheckpoint logs a successful flush-and-checkpoint cycle
func LogCheckpoint(digits uint64, bytes int64, took time.Duration) {
	GetLogger().DebugWithFields("checkpoint written", map[string]interface{}{
		"digits":   digits,
		"bytes":    bytes,
		"duration": took,
	})
}

// LogPause logs entry into the paused state
func LogPause(reason string, freeBytes, minFreeBytes uint64) {
	GetLogger().WarnWithFields("stream paused", map[string]interface{}{
		"reason":   reason,
		"free":     freeBytes,
		"min_free": minFreeBytes,
	})
}

// LogResume logs recovery from the paused state
func LogResume(pausedFor time.Duration) {
	GetLogger().InfoWithFields("stream resumed", map[string]interface{}{
		"paused_for": pausedFor,
	})
}

// LogWriteRetry logs a retried append on the digit file
func LogWriteRetry(attempt int, err error) {
	GetLogger().WarnWithFields("write retry", map[string]interface{}{
		"attempt": attempt,
		"error":   err,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	fields := map[string]interface{}{
		"component": component,
		"action":    "start",
	}
	for k, v := range config {
		fields["config_"+k] = v
	}
	GetLogger().InfoWithFields("component started", fields)
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().InfoWithFields("component stopped", map[string]interface{}{
		"component": component,
		"action":    "stop",
		"reason":    reason,
	})
}

// MustGetLogger gets the logger or panics if it fails
func MustGetLogger() Logger {
	logger := GetLogger()
	if logger == nil {
		panic("failed to get logger")
	}
	return logger
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
