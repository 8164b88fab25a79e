package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"pistream/pkg/stream"
	"pistream/pkg/telemetry"
)

// LogMessage represents one entry in the events panel
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner       spinner.Model
	checkpointBar progress.Model

	// Latest stream snapshot
	latest       stream.Progress
	haveProgress bool
	prevState    stream.State

	// checkpointDigits sizes the next-checkpoint gauge
	checkpointDigits uint64

	// Process telemetry, refreshed at most once per second
	sampler    *telemetry.Sampler
	stats      telemetry.Stats
	haveStats  bool
	lastSample time.Time

	sessionStartTime time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// NewModel creates a new TUI model
func NewModel(checkpointDigits uint64) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	m := Model{
		spinner:          s,
		checkpointBar:    bar,
		checkpointDigits: checkpointDigits,
		sessionStartTime: time.Now(),
		logMessages:      []LogMessage{},
		maxLogMessages:   50,
	}
	if sampler, err := telemetry.NewSampler(); err == nil {
		m.sampler = sampler
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// applyProgress stores a snapshot and derives event entries from state
// transitions.
func (m *Model) applyProgress(p stream.Progress) {
	if m.haveProgress && p.State != m.prevState {
		m.noteTransition(m.prevState, p)
	}
	m.latest = p
	m.haveProgress = true
	m.prevState = p.State
}

func (m *Model) noteTransition(from stream.State, p stream.Progress) {
	switch p.State {
	case stream.StateRunning:
		if from == stream.StatePaused {
			m.AddLogMessage("INFO", "Resumed")
		} else {
			m.AddLogMessage("INFO", "Stream running")
		}
	case stream.StatePaused:
		m.AddLogMessage("WARN", "Paused: "+p.PauseReason)
	case stream.StateShuttingDown:
		m.AddLogMessage("INFO", "Shutting down...")
	case stream.StateStopped:
		m.AddLogMessage("SUCCESS", fmt.Sprintf("Stream stopped at %s digits", humanize.Comma(int64(p.Digits))))
	case stream.StateFatal:
		msg := "Stream halted"
		if p.LastError != "" {
			msg += ": " + p.LastError
		}
		m.AddLogMessage("ERROR", msg)
	}
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	color := dimWhite
	switch level {
	case "ERROR":
		color = neonRed
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// sample refreshes process telemetry at most once per second
func (m *Model) sample() {
	if m.sampler == nil || time.Since(m.lastSample) < time.Second {
		return
	}
	m.lastSample = time.Now()
	m.stats = m.sampler.Sample()
	m.haveStats = true
}

// checkpointFraction is how far the stream has moved into the current
// flush-and-checkpoint window.
func (m *Model) checkpointFraction() float64 {
	if m.checkpointDigits == 0 || !m.haveProgress {
		return 0
	}
	pending := m.latest.Digits - m.latest.Durable
	f := float64(pending) / float64(m.checkpointDigits)
	if f > 1 {
		f = 1
	}
	return f
}

// shortID trims a run ID down to its leading group for display
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
