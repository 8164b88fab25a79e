package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"pistream/pkg/stream"
	"pistream/pkg/ui"
)

// View renders the entire TUI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string

	// Logo
	sections = append(sections, m.renderLogo())

	// Main content area with two columns
	leftColumn := m.renderLeftColumn()
	rightColumn := m.renderRightColumn()

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftColumn,
		"  ", // spacing
		rightColumn,
	)
	sections = append(sections, mainContent)

	// Help
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	// Join all sections vertically
	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

// renderLogo renders the application banner
func (m Model) renderLogo() string {
	return logoStyle.Width(m.width).Render(ui.ASCIILogo)
}

// renderLeftColumn renders the left side of the UI
func (m Model) renderLeftColumn() string {
	width := (m.width - 4) / 2

	var sections []string

	sections = append(sections, m.renderStreamPanel(width))
	sections = append(sections, m.renderDiskPanel(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderRightColumn renders the right side of the UI
func (m Model) renderRightColumn() string {
	width := (m.width - 4) / 2

	var sections []string

	sections = append(sections, m.renderTelemetryPanel(width))
	sections = append(sections, m.renderEventsPanel(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStreamPanel renders digit progress and rates
func (m Model) renderStreamPanel(width int) string {
	title := titleStyle.Render(" STREAM ")

	var rows []string
	rows = append(rows, fmt.Sprintf("%s %s", statsLabelStyle.Render("State:"), m.renderState()))

	if m.haveProgress {
		p := m.latest
		session := p.Digits - p.StartDigits
		rows = append(rows,
			fmt.Sprintf("%s %s", statsLabelStyle.Render("Digits:"), digitStyle.Render(humanize.Comma(int64(p.Digits)))),
			fmt.Sprintf("%s %s", statsLabelStyle.Render("Session:"), statsValueStyle.Render(humanize.Comma(int64(session)))),
			fmt.Sprintf("%s %s", statsLabelStyle.Render("Rate:"), speedStyle.Render(humanize.Comma(int64(p.InstRate))+"/s")),
			fmt.Sprintf("%s %s", statsLabelStyle.Render("Average:"), speedStyle.Render(humanize.Comma(int64(p.AvgRate))+"/s")),
			fmt.Sprintf("%s %s", statsLabelStyle.Render("Uptime:"), statsValueStyle.Render(formatDuration(p.Uptime))),
			fmt.Sprintf("%s %s", statsLabelStyle.Render("Run:"), statsValueStyle.Render(shortID(p.RunID))),
			"",
			statsLabelStyle.Render("Next checkpoint:"),
			m.checkpointBar.ViewAs(m.checkpointFraction()),
		)
	} else {
		rows = append(rows, lipgloss.NewStyle().Foreground(dimWhite).Render("Waiting for first batch..."))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderState renders the stream state with its status color
func (m Model) renderState() string {
	if !m.haveProgress {
		return statsValueStyle.Render("starting")
	}

	p := m.latest
	label := strings.ToUpper(p.State.String())
	switch p.State {
	case stream.StateRunning:
		return successStyle.Render(m.spinner.View() + label)
	case stream.StatePaused:
		if p.PauseReason != "" {
			label += " (" + p.PauseReason + ")"
		}
		return warningStyle.Render("⏸ " + label)
	case stream.StateFatal:
		return errorStyle.Render("✗ " + label)
	case stream.StateStopped:
		return successStyle.Render("✓ " + label)
	default:
		return statsValueStyle.Render(label)
	}
}

// renderDiskPanel renders the digit file and free-space status
func (m Model) renderDiskPanel(width int) string {
	title := titleStyle.Render(" DISK ")

	if !m.haveProgress {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("No file yet")
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, content),
		)
	}

	p := m.latest
	rows := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("File:"), statsValueStyle.Render(p.Path)),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Size:"), statsValueStyle.Render(humanize.IBytes(uint64(p.Bytes)))),
	}

	if p.FreeBytes > 0 {
		free := GetDiskStyle(p.FreeBytes, p.MinFreeBytes).Render(humanize.IBytes(p.FreeBytes))
		rows = append(rows, fmt.Sprintf("%s %s", statsLabelStyle.Render("Free:"), free))
	}
	if p.MinFreeBytes > 0 {
		rows = append(rows, fmt.Sprintf("%s %s",
			statsLabelStyle.Render("Pause below:"),
			statsValueStyle.Render(humanize.IBytes(p.MinFreeBytes))))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderTelemetryPanel renders process CPU and memory usage
func (m Model) renderTelemetryPanel(width int) string {
	title := titleStyle.Render(" TELEMETRY ")

	if !m.haveStats {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("Sampling...")
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, content),
		)
	}

	rows := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Process CPU:"), statsValueStyle.Render(fmt.Sprintf("%.1f%%", m.stats.ProcCPUPercent))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Host CPU:"), statsValueStyle.Render(fmt.Sprintf("%.1f%%", m.stats.HostCPUPercent))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Memory:"), statsValueStyle.Render(humanize.IBytes(m.stats.RSSBytes))),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderEventsPanel renders recent state changes and log lines
func (m Model) renderEventsPanel(width int) string {
	title := titleStyle.Render(" EVENTS ")

	// Show the most recent entries
	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for i := start; i < len(m.logMessages); i++ {
		log := m.logMessages[i]
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := log.Message

		// Truncate message if too long
		maxMsgLen := width - 25
		if maxMsgLen > 3 && len(message) > maxMsgLen {
			message = message[:maxMsgLen-3] + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(message)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No events yet...")
	}

	// Fill the remaining vertical space
	logsHeight := m.height - 32
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m Model) renderHelp() string {
	help := `
  Navigation:
    q/Q      - Quit (the stream keeps its checkpoint)
    ctrl+l   - Clear the events panel
    ?        - Toggle this help

  Status Indicators:
    ` + successStyle.Render("Green") + `    - Running/Stopped cleanly
    ` + warningStyle.Render("Orange") + `   - Paused, waiting on disk space
    ` + errorStyle.Render("Red") + `      - Fatal, stream halted

  Icons:
    ⏸        - Paused
    ✓        - Stopped cleanly
    ✗        - Halted
`

	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
