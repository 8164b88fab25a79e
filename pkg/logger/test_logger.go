package logger

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log calls so tests can assert on them. With* methods
// return derived loggers that share the same capture buffer.
type TestLogger struct {
	core   *testLogCore
	fields map[string]interface{}
	err    error
}

type testLogCore struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   bytes.Buffer
	zl       zerolog.Logger
}

// LogMessage is a single captured log call.
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates a capturing logger for tests.
func NewTestLogger() *TestLogger {
	return &TestLogger{core: &testLogCore{zl: zerolog.Nop()}}
}

func (l *TestLogger) log(level, msg string, extra map[string]interface{}) {
	var fields map[string]interface{}
	if len(l.fields) > 0 || len(extra) > 0 {
		fields = make(map[string]interface{}, len(l.fields)+len(extra))
		for k, v := range l.fields {
			fields[k] = v
		}
		for k, v := range extra {
			fields[k] = v
		}
	}

	c := l.core
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, LogMessage{Level: level, Message: msg, Fields: fields, Error: l.err})
	fmt.Fprintf(&c.buffer, "[%s] %s", level, msg)
	if len(fields) > 0 {
		fmt.Fprintf(&c.buffer, " fields=%v", fields)
	}
	if l.err != nil {
		fmt.Fprintf(&c.buffer, " error=%v", l.err)
	}
	fmt.Fprintln(&c.buffer)
}

func (l *TestLogger) derive() *TestLogger {
	d := &TestLogger{core: l.core, err: l.err, fields: make(map[string]interface{}, len(l.fields)+1)}
	for k, v := range l.fields {
		d.fields[k] = v
	}
	return d
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	d := l.derive()
	d.fields[key] = value
	return d
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	d := l.derive()
	for k, v := range fields {
		d.fields[k] = v
	}
	return d
}

func (l *TestLogger) WithError(err error) Logger {
	d := l.derive()
	d.err = err
	return d
}

func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }

func (l *TestLogger) GetZerolog() *zerolog.Logger { return &l.core.zl }

// GetMessages returns a copy of all captured messages.
func (l *TestLogger) GetMessages() []LogMessage {
	c := l.core
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// GetMessagesByLevel returns captured messages of one level.
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, m := range l.GetMessages() {
		if m.Level == level {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// HasMessage reports whether a message with exactly this text was logged.
func (l *TestLogger) HasMessage(text string) bool {
	for _, m := range l.GetMessages() {
		if m.Message == text {
			return true
		}
	}
	return false
}

// HasError reports whether anything was logged at ERROR level.
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear drops all captured messages.
func (l *TestLogger) Clear() {
	c := l.core
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = c.messages[:0]
	c.buffer.Reset()
}

// String renders the captured log for debugging.
func (l *TestLogger) String() string {
	c := l.core
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.String()
}
