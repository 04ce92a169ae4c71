// Package monitor periodically probes the internet connectivity of this
// machine, aggregates the results and notifies about state changes.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// ProbeTimeout bounds every single probe of a cycle.
const ProbeTimeout = 20 * time.Second

const notificationTitle = "netcheck"

// countries where a missing VPN is considered a risk
var vpnRiskCountries = map[string]bool{
	"ru": true,
	"kz": true,
	"cn": true,
}

// State of the polling loop.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Options wires the monitor to its collaborators. Prober, Geo and Store
// are required.
type Options struct {
	Prober   Prober
	Geo      GeoResolver
	Store    PreferencesStore
	Notifier Notifier
	Sink     Sink
	Log      *slog.Logger
}

// runState is carried from one cycle to the next.
type runState struct {
	firstCycle   bool
	failedCycles int
	lastUp       bool
}

// Monitor manages the goroutine responsible for the polling cycles.
type Monitor struct {
	*Preferences

	prober   Prober
	geo      GeoResolver
	notifier Notifier
	sink     Sink
	log      *slog.Logger

	mtx    sync.Mutex // guards state, cancel and done
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	cycleMtx  sync.Mutex // one cycle at a time, guards run and the fields below
	run       runState
	publicIP  string
	country   string
	vpnAtRisk bool

	latest atomic.Pointer[Snapshot]
}

// New creates a monitor in state Idle. The configuration is read from
// opts.Store. You need to call Start() to begin polling.
func New(opts Options) *Monitor {
	m := &Monitor{
		Preferences: NewPreferences(opts.Store),
		prober:      opts.Prober,
		geo:         opts.Geo,
		notifier:    opts.Notifier,
		sink:        opts.Sink,
		log:         opts.Log,
		run:         runState{firstCycle: true},
		country:     UnknownCountry,
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.sink == nil {
		m.sink = nopSink{}
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// Start launches the polling loop. Calling Start on a running monitor has
// no effect. After Stop, Start launches a new loop which begins once the
// previous one has finished its cycle.
func (m *Monitor) Start() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.state == Running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	prev := m.done
	done := make(chan struct{})

	m.cancel = cancel
	m.done = done
	m.state = Running

	go m.loop(ctx, prev, done)
}

// Stop cancels the polling loop. A cycle in progress is completed, the
// loop exits before the next sleep. Stop is safe to call multiple times.
func (m *Monitor) Stop() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.state != Running {
		return
	}
	m.cancel()
	m.state = Stopped
}

// State returns the state of the polling loop.
func (m *Monitor) State() State {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.state
}

// Done returns a channel which is closed when the current loop has
// exited. It is closed right away if the monitor was never started.
func (m *Monitor) Done() <-chan struct{} {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.done == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return m.done
}

// Latest returns the snapshot of the last completed cycle.
func (m *Monitor) Latest() (Snapshot, bool) {
	s := m.latest.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

// RunOnce runs a single cycle synchronously, outside of the loop.
func (m *Monitor) RunOnce(ctx context.Context) Snapshot {
	return m.cycle(ctx)
}

func (m *Monitor) loop(ctx context.Context, prev <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if prev != nil {
		<-prev
	}

	for {
		if ctx.Err() != nil {
			return
		}

		m.cycle(ctx)

		if ctx.Err() != nil {
			return
		}

		interval := time.Duration(max(1, m.Config().PingInterval)) * time.Second
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// cycle resolves the location, probes all targets, notifies and publishes
// the snapshot.
func (m *Monitor) cycle(ctx context.Context) Snapshot {
	m.cycleMtx.Lock()
	defer m.cycleMtx.Unlock()

	if m.run.firstCycle {
		m.notifier.Send(notificationTitle, "Please, wait...", "Check is running.", ToneNone)
	}

	// Stop must not abort probes in flight.
	ctx = context.WithoutCancel(ctx)
	cfg := m.Config()

	m.updateLocation(ctx, cfg)

	outcomes := m.prober.RunAll(ctx, cfg.Targets(), ProbeTimeout)
	verdict := Aggregate(outcomes, cfg.IgnoredTimeouts)

	m.notify(verdict)

	snap := Snapshot{
		Outcomes:  outcomes,
		PublicIP:  m.publicIP,
		Country:   m.country,
		VPNCheck:  cfg.IncludeVPNCheck,
		VPNAtRisk: cfg.IncludeVPNCheck && m.vpnAtRisk,
		OverallUp: verdict.OverallUp(),
		Failure:   verdict.Failure,
		CheckedAt: time.Now(),
	}
	m.latest.Store(&snap)
	m.sink.Publish(snap)

	m.run.firstCycle = false
	m.run.lastUp = verdict.OverallUp()

	m.log.Info("cycle finished",
		"up", verdict.Up,
		"total", verdict.Total,
		"failure", verdict.Failure.String(),
		"country", snap.Country,
		"vpn_at_risk", snap.VPNAtRisk,
	)
	return snap
}

// updateLocation refreshes public IP, country and VPN risk. Values which
// cannot be resolved keep their previous state.
func (m *Monitor) updateLocation(ctx context.Context, cfg Config) {
	ip, ok := m.geo.PublicIP(ctx)
	if !ok {
		m.log.Debug("public ip unresolved, keeping previous", "ip", m.publicIP)
		return
	}
	m.publicIP = ip

	country, ok := m.geo.Country(ctx, ip)
	if !ok || country == "" {
		m.log.Debug("country unresolved, keeping previous", "ip", ip, "country", m.country)
		return
	}

	m.country = displayCountry(country, m.country)
	m.vpnAtRisk = cfg.IncludeVPNCheck && vpnRiskCountries[strings.ToLower(country)]
}

// displayCountry upper-cases two letter codes. Anything else (e.g. "bogon")
// keeps the prefix of the previous value, marked as unresolved.
func displayCountry(found, prior string) string {
	if utf8.RuneCountInString(found) == 2 {
		return strings.ToUpper(found)
	}

	prefix := []rune(prior)
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return string(prefix) + "?"
}

// notify implements the notification policy: the first failed cycle of a
// streak is silent, recovery is announced once.
func (m *Monitor) notify(v Verdict) {
	if !v.OverallUp() {
		m.run.failedCycles++
		if m.run.failedCycles < 2 {
			return
		}

		subtitle := "Something is wrong!"
		if v.Failure == FailureSingleTimeout {
			subtitle = "Just one timeout, worry?"
		}
		m.notifier.Send(notificationTitle, subtitle,
			fmt.Sprintf("%d of %d targets are online.", v.Up, v.Total),
			ToneFailure,
		)
		return
	}

	if m.run.firstCycle || !m.run.lastUp {
		subtitle := "You are back online!"
		if m.run.firstCycle {
			subtitle = "You are online!"
		}
		m.notifier.Send(notificationTitle, subtitle,
			fmt.Sprintf("All %d targets are online.", v.Total),
			ToneSuccess,
		)
	}
	m.run.failedCycles = 0
}
