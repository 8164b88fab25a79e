package tui

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"pistream/pkg/stream"
)

// TUI wraps the bubbletea program behind the full-screen HUD and adapts
// stream status updates into program messages. It implements
// stream.StatusSink: snapshots are throttled to the refresh interval
// before they reach the program, state changes always go through.
type TUI struct {
	program *tea.Program
	model   *Model

	refresh time.Duration

	mu       sync.Mutex
	lastSend time.Time
	prev     stream.State
	primed   bool
}

// NewTUI creates a new TUI instance. checkpointDigits sizes the
// next-checkpoint gauge.
func NewTUI(refresh time.Duration, checkpointDigits uint64) *TUI {
	model := NewModel(checkpointDigits)
	program := tea.NewProgram(&model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   &model,
		refresh: refresh,
	}
}

// Start runs the TUI until the user quits or the stream reaches a
// terminal state; it blocks.
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Update implements stream.StatusSink.
func (t *TUI) Update(p stream.Progress) {
	t.mu.Lock()
	changed := !t.primed || p.State != t.prev
	now := time.Now()
	if !changed && now.Sub(t.lastSend) < t.refresh {
		t.mu.Unlock()
		return
	}
	t.primed = true
	t.prev = p.State
	t.lastSend = now
	t.mu.Unlock()

	t.Send(SendProgress(p))
}

// Log sends a log message to the events panel
func (t *TUI) Log(level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	t.Send(SendLog(level, message))
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}
