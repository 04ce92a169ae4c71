package monitor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digineo/go-netcheck/prefs"
	"github.com/digineo/go-netcheck/probe"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeProber returns the queued results, repeating the last one.
type fakeProber struct {
	mtx     sync.Mutex
	results [][]bool
	calls   int
	targets []probe.Target
}

func (f *fakeProber) RunAll(_ context.Context, targets []probe.Target, _ time.Duration) []probe.Outcome {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	ups := f.results[min(f.calls, len(f.results)-1)]
	f.calls++
	f.targets = targets

	outcomes := make([]probe.Outcome, len(ups))
	for i, up := range ups {
		outcomes[i] = probe.Outcome{Name: string(rune('a' + i)), Up: up}
	}
	return outcomes
}

type fakeGeo struct {
	mtx       sync.Mutex
	ip        string
	ipOK      bool
	country   string
	countryOK bool
}

func (f *fakeGeo) set(ip, country string, ok bool) {
	f.mtx.Lock()
	f.ip, f.ipOK, f.country, f.countryOK = ip, ok, country, ok
	f.mtx.Unlock()
}

func (f *fakeGeo) PublicIP(context.Context) (string, bool) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.ip, f.ipOK
}

func (f *fakeGeo) Country(context.Context, string) (string, bool) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.country, f.countryOK
}

type notification struct {
	subtitle string
	tone     Tone
}

type recorder struct {
	mtx       sync.Mutex
	sent      []notification
	snapshots chan Snapshot
}

func newRecorder() *recorder {
	return &recorder{snapshots: make(chan Snapshot, 16)}
}

func (r *recorder) Send(_, subtitle, _ string, tone Tone) {
	r.mtx.Lock()
	r.sent = append(r.sent, notification{subtitle, tone})
	r.mtx.Unlock()
}

func (r *recorder) Publish(s Snapshot) {
	r.snapshots <- s
}

func (r *recorder) count(tone Tone) (n int) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	for _, s := range r.sent {
		if s.tone == tone {
			n++
		}
	}
	return
}

func (r *recorder) subtitles() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	var res []string
	for _, s := range r.sent {
		res = append(res, s.subtitle)
	}
	return res
}

func newTestMonitor(results ...[]bool) (*Monitor, *fakeProber, *fakeGeo, *recorder) {
	pr := &fakeProber{results: results}
	geo := &fakeGeo{}
	rec := newRecorder()

	store := prefs.NewMemoryStore()
	store.SetInt(KeyPingInterval, 1)

	m := New(Options{
		Prober:   pr,
		Geo:      geo,
		Store:    store,
		Notifier: rec,
		Sink:     rec,
		Log:      discard,
	})
	return m, pr, geo, rec
}

var (
	allUp    = []bool{true, true, true, true}
	oneDown  = []bool{true, false, true, true}
	manyDown = []bool{false, false, true, true}
)

func TestFirstCycleNotifications(t *testing.T) {
	m, _, _, rec := newTestMonitor(allUp)

	snap := m.RunOnce(context.Background())
	assert.True(t, snap.OverallUp)
	assert.Equal(t, []string{"Please, wait...", "You are online!"}, rec.subtitles())

	m.RunOnce(context.Background())
	assert.Len(t, rec.subtitles(), 2, "no further notifications while up")
}

func TestDebounceFailures(t *testing.T) {
	m, _, _, rec := newTestMonitor(manyDown, manyDown, manyDown)
	ctx := context.Background()

	m.RunOnce(ctx)
	assert.Equal(t, 0, rec.count(ToneFailure), "first failed cycle is silent")

	m.RunOnce(ctx)
	assert.Equal(t, 1, rec.count(ToneFailure))

	m.RunOnce(ctx)
	assert.Equal(t, 2, rec.count(ToneFailure))
	assert.Equal(t, "Something is wrong!", rec.subtitles()[len(rec.subtitles())-1])
}

func TestDebounceSingleTimeout(t *testing.T) {
	m, _, _, rec := newTestMonitor(oneDown)
	ctx := context.Background()

	m.RunOnce(ctx)
	snap := m.RunOnce(ctx)
	assert.Equal(t, FailureSingleTimeout, snap.Failure)
	assert.False(t, snap.OverallUp)
	assert.Equal(t, []string{"Please, wait...", "Just one timeout, worry?"}, rec.subtitles())
}

func TestRecovery(t *testing.T) {
	m, _, _, rec := newTestMonitor(manyDown, allUp, allUp)
	ctx := context.Background()

	m.RunOnce(ctx)
	m.RunOnce(ctx)
	m.RunOnce(ctx)

	assert.Equal(t, 0, rec.count(ToneFailure))
	assert.Equal(t, 1, rec.count(ToneSuccess))
	assert.Equal(t, []string{"Please, wait...", "You are back online!"}, rec.subtitles())
}

func TestRecoveryResetsStreak(t *testing.T) {
	m, _, _, rec := newTestMonitor(manyDown, allUp, manyDown)
	ctx := context.Background()

	m.RunOnce(ctx)
	m.RunOnce(ctx)
	m.RunOnce(ctx)
	assert.Equal(t, 0, rec.count(ToneFailure), "streak restarts after recovery")
}

func TestLocation(t *testing.T) {
	assert := assert.New(t)
	m, _, geo, _ := newTestMonitor(allUp)
	ctx := context.Background()

	snap := m.RunOnce(ctx)
	assert.Equal(UnknownCountry, snap.Country)
	assert.Empty(snap.PublicIP)

	geo.set("203.0.113.7", "de", true)
	snap = m.RunOnce(ctx)
	assert.Equal("DE", snap.Country)
	assert.Equal("203.0.113.7", snap.PublicIP)
	assert.False(snap.VPNAtRisk)

	geo.set("203.0.113.8", "bogon", true)
	snap = m.RunOnce(ctx)
	assert.Equal("DE?", snap.Country)
	assert.False(snap.VPNAtRisk)

	// failures keep the previous values
	geo.set("", "", false)
	snap = m.RunOnce(ctx)
	assert.Equal("DE?", snap.Country)
	assert.Equal("203.0.113.8", snap.PublicIP)
}

func TestVPNRisk(t *testing.T) {
	m, _, geo, _ := newTestMonitor(allUp)
	ctx := context.Background()

	geo.set("198.51.100.1", "ru", true)
	snap := m.RunOnce(ctx)
	assert.Equal(t, "RU", snap.Country)
	assert.True(t, snap.VPNCheck)
	assert.True(t, snap.VPNAtRisk)
	assert.Contains(t, snap.Title(), "💀")

	m.SetIncludeVPNCheck(false)
	snap = m.RunOnce(ctx)
	assert.False(t, snap.VPNAtRisk)
	assert.NotContains(t, snap.Title(), "💀")
}

func TestVPNRiskFollowsSetting(t *testing.T) {
	m, _, geo, _ := newTestMonitor(allUp)
	ctx := context.Background()

	geo.set("198.51.100.1", "cn", true)
	assert.True(t, m.RunOnce(ctx).VPNAtRisk)

	// the lookup fails, the setting still applies
	m.SetIncludeVPNCheck(false)
	geo.set("", "", false)
	snap := m.RunOnce(ctx)
	assert.False(t, snap.VPNCheck)
	assert.False(t, snap.VPNAtRisk)
}

func TestDisplayCountry(t *testing.T) {
	tests := []struct {
		found, prior, want string
	}{
		{"de", UnknownCountry, "DE"},
		{"Us", "DE", "US"},
		{"bogon", UnknownCountry, "!??"},
		{"bogon", "DE", "DE?"},
		{"bogon", "DE?", "DE?"},
		{"x", "", "?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, displayCountry(tt.found, tt.prior), "%q after %q", tt.found, tt.prior)
	}
}

func TestStartIdempotent(t *testing.T) {
	require := require.New(t)
	m, pr, _, rec := newTestMonitor(allUp)

	assert.Equal(t, Idle, m.State())
	m.Start()
	m.Start()
	assert.Equal(t, Running, m.State())

	select {
	case <-rec.snapshots:
	case <-time.After(5 * time.Second):
		require.FailNow("no snapshot published")
	}

	m.Stop()
	m.Stop()
	assert.Equal(t, Stopped, m.State())

	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		require.FailNow("loop did not exit")
	}

	assert.Equal(t, 1, rec.count(ToneNone), "running notification is sent once")

	pr.mtx.Lock()
	calls := pr.calls
	pr.mtx.Unlock()
	assert.GreaterOrEqual(t, calls, 1)

	latest, ok := m.Latest()
	require.True(ok)
	assert.True(t, latest.OverallUp)
}

func TestRestart(t *testing.T) {
	m, _, _, rec := newTestMonitor(allUp)

	m.Start()
	<-rec.snapshots
	m.Stop()

	m.Start()
	select {
	case <-rec.snapshots:
	case <-time.After(5 * time.Second):
		t.Fatal("restarted loop published nothing")
	}
	m.Stop()
	<-m.Done()

	assert.Equal(t, 1, rec.count(ToneNone), "no running notification after restart")
}

func TestDoneBeforeStart(t *testing.T) {
	m, _, _, _ := newTestMonitor(allUp)

	select {
	case <-m.Done():
	default:
		t.Fatal("Done must be closed before Start")
	}
	_, ok := m.Latest()
	assert.False(t, ok)
}

func TestCycleTargets(t *testing.T) {
	m, pr, _, _ := newTestMonitor(allUp)
	m.AddCustomHost("example.com")
	m.SetIncludeMicrosoft(false)

	m.RunOnce(context.Background())

	var names []string
	for _, target := range pr.targets {
		names = append(names, target.Name())
	}
	assert.Equal(t, []string{"example.com", "8.8.8.8", "Apple"}, names)
}
