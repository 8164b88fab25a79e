package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"pistream/pkg/config"
	"pistream/pkg/stream"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send", title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("pistream").Show($toast)
	`, title, message)

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	return cmd.Run()
}

// platformSender picks the native sender for the current OS, nil when the
// platform has none.
func platformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	case "windows":
		return &WindowsNotificationSender{}
	default:
		return nil
	}
}

// Notifier delivers user-facing notifications according to the configured
// notification type: "terminal" prints to the console, "desktop" uses the
// native notification system, "none" drops everything.
type Notifier struct {
	out      io.Writer
	sender   NotificationSender
	terminal bool
	silent   bool
}

// NewNotifier creates a Notifier for the given preferences.
func NewNotifier(cfg config.NotificationConfig) *Notifier {
	kind := strings.ToLower(cfg.NotificationType)
	n := &Notifier{
		out:      os.Stdout,
		terminal: kind == "terminal",
		silent:   !cfg.Enabled || kind == "none",
	}
	if kind == "desktop" {
		n.sender = platformSender()
	}
	return n
}

// SendNotification delivers a neutral notification.
func (n *Notifier) SendNotification(title, message string) {
	n.deliver(fmt.Sprintf("\n%s: %s\n", Cyan(title), Yellow(message)), title, message)
}

// SendError delivers an error notification.
func (n *Notifier) SendError(title, message string) {
	n.deliver(fmt.Sprintf("\n%s: %s\n", Red(title), Red(message)), title, message)
}

// SendSuccess delivers a success notification.
func (n *Notifier) SendSuccess(title, message string) {
	n.deliver(fmt.Sprintf("\n%s: %s\n", Green(title), Green(message)), title, message)
}

func (n *Notifier) deliver(line, title, message string) {
	if n.silent {
		return
	}
	if n.terminal {
		fmt.Fprint(n.out, line)
	}
	if n.sender != nil {
		// Notifications are best effort.
		_ = n.sender.Send(title, message)
	}
}

// Watcher turns stream state transitions into notifications. It implements
// stream.StatusSink and fires at most one notification per transition,
// gated by the per-event preferences.
type Watcher struct {
	notifier *Notifier
	cfg      config.NotificationConfig

	mu     sync.Mutex
	prev   stream.State
	primed bool
}

// NewWatcher creates a Watcher; register it with Streamer.AddStatusSink.
func NewWatcher(cfg config.NotificationConfig) *Watcher {
	return &Watcher{notifier: NewNotifier(cfg), cfg: cfg}
}

// Update implements stream.StatusSink. Senders shell out to the OS, so
// deliveries run on their own goroutine to keep the stream goroutine free.
func (w *Watcher) Update(p stream.Progress) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.primed {
		w.primed = true
		w.prev = p.State
		return
	}
	if p.State == w.prev {
		return
	}
	from := w.prev
	w.prev = p.State

	digits := humanize.Comma(int64(p.Digits))
	switch p.State {
	case stream.StatePaused:
		if w.cfg.OnPause {
			go w.notifier.SendError("π stream paused", p.PauseReason)
		}
	case stream.StateRunning:
		if from == stream.StatePaused && w.cfg.OnPause {
			go w.notifier.SendSuccess("π stream resumed", digits+" digits written")
		}
	case stream.StateFatal:
		if w.cfg.OnError {
			go w.notifier.SendError("π stream failed", p.LastError)
		}
	case stream.StateStopped:
		if w.cfg.OnComplete {
			go w.notifier.SendSuccess("π stream stopped", digits+" digits on disk")
		}
	}
}
