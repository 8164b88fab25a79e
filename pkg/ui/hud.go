package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"pistream/pkg/stream"
	"pistream/pkg/telemetry"
)

const defaultWidth = 100

// HUD renders a single live status line for a running stream. It implements
// stream.StatusSink: the streamer pushes a Progress snapshot after every
// batch and the HUD throttles actual redraws to the configured refresh
// interval, so the stream goroutine never waits on the terminal.
//
// State transitions (pause, resume, stop, fatal) always render immediately
// and leave a full line in the scrollback.
type HUD struct {
	mu       sync.Mutex
	out      io.Writer
	refresh  time.Duration
	sampler  *telemetry.Sampler
	width    int
	plain    bool
	lastDraw time.Time
	prev     stream.State
	finished bool
}

// NewHUD creates a HUD writing to stdout. With plain set, every refresh
// prints a full line instead of rewriting in place; use it when log output
// goes to the same terminal and would mangle the carriage returns.
func NewHUD(refresh time.Duration, plain bool) *HUD {
	h := &HUD{
		out:     os.Stdout,
		refresh: refresh,
		plain:   plain,
		width:   defaultWidth,
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		h.width = w
	}
	if s, err := telemetry.NewSampler(); err == nil {
		h.sampler = s
	}
	return h
}

// Update implements stream.StatusSink.
func (h *HUD) Update(p stream.Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.finished {
		return
	}

	changed := p.State != h.prev
	now := time.Now()
	if !changed && now.Sub(h.lastDraw) < h.refresh {
		return
	}
	h.lastDraw = now

	if changed {
		h.announceLocked(h.prev, p)
		h.prev = p.State
	}

	switch p.State {
	case stream.StateStopped, stream.StateFatal:
		h.finishLocked(p)
	default:
		h.drawLocked(p)
	}
}

// announceLocked prints a persistent line for transitions worth keeping
// in the scrollback.
func (h *HUD) announceLocked(prev stream.State, p stream.Progress) {
	switch p.State {
	case stream.StatePaused:
		reason := p.PauseReason
		if reason == "" {
			reason = "waiting"
		}
		h.clearLocked()
		fmt.Fprintln(h.out, Yellow("⚠ Paused: "+reason))
	case stream.StateRunning:
		if prev == stream.StatePaused {
			h.clearLocked()
			fmt.Fprintln(h.out, Green("✓ Resumed"))
		}
	}
}

// drawLocked rewrites the status line in place.
func (h *HUD) drawLocked(p stream.Progress) {
	line := clip(h.statusLine(p), h.width-1)
	switch p.State {
	case stream.StatePaused:
		line = Yellow(line)
	case stream.StateShuttingDown:
		line = Dim(line)
	}
	if h.plain {
		fmt.Fprintln(h.out, line)
		return
	}
	fmt.Fprintf(h.out, "\r%s\r%s", strings.Repeat(" ", h.width-1), line)
}

// statusLine assembles the HUD segments for one snapshot.
func (h *HUD) statusLine(p stream.Progress) string {
	segs := make([]string, 0, 8)
	if p.State != stream.StateRunning {
		segs = append(segs, strings.ToUpper(p.State.String()))
	}
	segs = append(segs,
		"Digits: "+humanize.Comma(int64(p.Digits)),
		fmt.Sprintf("Rate: %s/s (avg %s/s)",
			humanize.Comma(int64(p.InstRate)),
			humanize.Comma(int64(p.AvgRate))),
		"File: "+humanize.IBytes(uint64(p.Bytes)),
	)
	if p.FreeBytes > 0 {
		segs = append(segs, "Free: "+humanize.IBytes(p.FreeBytes))
	}
	if h.sampler != nil {
		st := h.sampler.Sample()
		segs = append(segs,
			fmt.Sprintf("CPU: %.1f%%", st.ProcCPUPercent),
			"RSS: "+humanize.IBytes(st.RSSBytes))
	}
	segs = append(segs, "Up: "+formatDuration(p.Uptime))
	return strings.Join(segs, " | ")
}

// finishLocked clears the live line and prints the closing summary.
func (h *HUD) finishLocked(p stream.Progress) {
	h.clearLocked()

	if p.State == stream.StateFatal {
		msg := "Stream halted"
		if p.LastError != "" {
			msg += ": " + p.LastError
		}
		fmt.Fprintln(h.out, Red("✗ "+msg))
	} else {
		fmt.Fprintf(h.out, "%s Stream stopped at %s digits\n",
			Green("✓"), humanize.Comma(int64(p.Digits)))
	}

	session := p.Digits - p.StartDigits
	fmt.Fprintf(h.out, "  %s %s digits this session, %s in %s\n",
		Dim("•"),
		humanize.Comma(int64(session)),
		humanize.IBytes(uint64(p.Bytes)),
		p.Path,
	)
	fmt.Fprintf(h.out, "  %s %s elapsed", Dim("•"), formatDuration(p.Uptime))
	if p.AvgRate > 0 {
		fmt.Fprintf(h.out, " (%s digits/s avg)", humanize.Comma(int64(p.AvgRate)))
	}
	fmt.Fprintln(h.out)

	h.finished = true
}

// clearLocked wipes the current in-place line.
func (h *HUD) clearLocked() {
	if h.plain {
		return
	}
	fmt.Fprintf(h.out, "\r%s\r", strings.Repeat(" ", h.width-1))
}

// clip truncates a line to the given rune width so the in-place rewrite
// never wraps.
func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return string(r[:1])
	}
	return string(r[:width-1]) + "…"
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
