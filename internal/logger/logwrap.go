package logger

import (
	"context"
	"fmt"
	"log/slog"
)

// Bridge is a printf-style logger for packages that log through
// github.com/digineo/go-logwrap.
type Bridge struct {
	log *slog.Logger
}

// Logwrap returns a logger accepted by the SetLogger functions of the
// ICMP packages.
func Logwrap(component string) *Bridge {
	return &Bridge{log: WithComponent(component)}
}

func (b *Bridge) logf(level slog.Level, format string, args ...interface{}) {
	if !b.log.Enabled(context.Background(), level) {
		return
	}
	b.log.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func (b *Bridge) Debugf(format string, args ...interface{}) {
	b.logf(slog.LevelDebug, format, args...)
}

func (b *Bridge) Infof(format string, args ...interface{}) {
	b.logf(slog.LevelInfo, format, args...)
}

func (b *Bridge) Warnf(format string, args ...interface{}) {
	b.logf(slog.LevelWarn, format, args...)
}

func (b *Bridge) Errorf(format string, args ...interface{}) {
	b.logf(slog.LevelError, format, args...)
}

func (b *Bridge) Printf(format string, args ...interface{}) {
	b.logf(slog.LevelInfo, format, args...)
}
