package notify

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/digineo/go-netcheck/monitor"
)

// CommandTimeout bounds a single notification command.
const CommandTimeout = 10 * time.Second

// DesktopNotifier shows notifications on the desktop by running
// notify-send (Linux and BSD) or osascript (macOS). Commands run in the
// background; failures are logged.
type DesktopNotifier struct {
	GOOS string // defaults to runtime.GOOS
	Log  *slog.Logger

	run func(ctx context.Context, name string, args ...string) error
}

// NewDesktopNotifier returns a notifier for the current platform.
func NewDesktopNotifier(log *slog.Logger) *DesktopNotifier {
	return &DesktopNotifier{GOOS: runtime.GOOS, Log: log}
}

func (n *DesktopNotifier) Send(title, subtitle, message string, tone monitor.Tone) {
	name, args := n.command(title, subtitle, message, tone)

	run := n.run
	if run == nil {
		run = runCommand
	}
	log := n.Log
	if log == nil {
		log = slog.Default()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
		defer cancel()

		if err := run(ctx, name, args...); err != nil {
			log.Warn("desktop notification failed", "command", name, "error", err)
		}
	}()
}

func (n *DesktopNotifier) command(title, subtitle, message string, tone monitor.Tone) (string, []string) {
	goos := n.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	if goos == "darwin" {
		script := "display notification " + appleScriptString(message) +
			" with title " + appleScriptString(title) +
			" subtitle " + appleScriptString(subtitle)
		if sound := soundName(tone); sound != "" {
			script += " sound name " + appleScriptString(sound)
		}
		return "osascript", []string{"-e", script}
	}

	return "notify-send", []string{
		"--app-name", title,
		"--urgency", urgency(tone),
		subtitle,
		message,
	}
}

func soundName(tone monitor.Tone) string {
	switch tone {
	case monitor.ToneSuccess:
		return "Purr"
	case monitor.ToneFailure:
		return "Basso"
	default:
		return ""
	}
}

func urgency(tone monitor.Tone) string {
	switch tone {
	case monitor.ToneSuccess:
		return "normal"
	case monitor.ToneFailure:
		return "critical"
	default:
		return "low"
	}
}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func appleScriptString(s string) string {
	return `"` + appleScriptEscaper.Replace(s) + `"`
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
