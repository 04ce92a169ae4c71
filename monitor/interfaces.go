package monitor

import (
	"context"
	"time"

	"github.com/digineo/go-netcheck/probe"
)

// Tone selects the sound of a notification.
type Tone int

const (
	ToneNone Tone = iota
	ToneSuccess
	ToneFailure
)

func (t Tone) String() string {
	switch t {
	case ToneSuccess:
		return "success"
	case ToneFailure:
		return "failure"
	default:
		return "none"
	}
}

// PreferencesStore persists typed settings. Implementations handle their
// own persistence errors; the monitor never sees them.
type PreferencesStore interface {
	GetBool(key string, def bool) bool
	SetBool(key string, value bool)
	GetInt(key string, def int) int
	SetInt(key string, value int)
	GetStringList(key string) []string
	SetStringList(key string, value []string)
}

// Notifier delivers user alerts. Delivery is fire-and-forget.
type Notifier interface {
	Send(title, subtitle, message string, tone Tone)
}

// Sink receives the snapshot of every cycle.
type Sink interface {
	Publish(Snapshot)
}

// Prober probes all targets of a cycle, see probe.Prober.
type Prober interface {
	RunAll(ctx context.Context, targets []probe.Target, timeout time.Duration) []probe.Outcome
}

// GeoResolver resolves the public IP address and its country, see geo.Resolver.
type GeoResolver interface {
	PublicIP(ctx context.Context) (string, bool)
	Country(ctx context.Context, ip string) (string, bool)
}

type nopNotifier struct{}

func (nopNotifier) Send(title, subtitle, message string, tone Tone) {}

type nopSink struct{}

func (nopSink) Publish(Snapshot) {}
