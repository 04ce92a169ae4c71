// Package notify delivers the alerts of the connectivity monitor.
package notify

import (
	"context"
	"log/slog"

	"github.com/digineo/go-netcheck/monitor"
)

// LogNotifier writes notifications as log records.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Send(title, subtitle, message string, tone monitor.Tone) {
	log := n.Log
	if log == nil {
		log = slog.Default()
	}

	level := slog.LevelInfo
	if tone == monitor.ToneFailure {
		level = slog.LevelWarn
	}
	log.Log(context.Background(), level, subtitle,
		"title", title,
		"message", message,
		"tone", tone.String(),
	)
}

// Multi sends every notification to all of its notifiers.
type Multi []monitor.Notifier

func (m Multi) Send(title, subtitle, message string, tone monitor.Tone) {
	for _, n := range m {
		n.Send(title, subtitle, message, tone)
	}
}
