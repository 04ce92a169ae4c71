package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digineo/go-netcheck/prefs"
	"github.com/digineo/go-netcheck/probe"
)

func TestDefaultPreferences(t *testing.T) {
	p := NewPreferences(prefs.NewMemoryStore())
	assert.Equal(t, DefaultConfig(), p.Config())
}

func TestPreferencesSanitize(t *testing.T) {
	store := prefs.NewMemoryStore()
	store.SetInt(KeyPingInterval, 0)
	store.SetInt(KeyIgnoredTimeouts, -3)
	store.SetStringList(KeyCustomHosts, []string{"a.example", " a.example", "", "8.8.8.8", "b.example", "Apple"})

	cfg := NewPreferences(store).Config()
	assert.Equal(t, 1, cfg.PingInterval)
	assert.Equal(t, 0, cfg.IgnoredTimeouts)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.CustomHosts)
}

func TestPreferencesWriteThrough(t *testing.T) {
	assert := assert.New(t)
	store := prefs.NewMemoryStore()
	p := NewPreferences(store)

	p.SetIncludeRouter(true)
	p.SetIncludeApple(false)
	p.SetPingInterval(-5)
	p.SetIgnoredTimeouts(2)

	assert.True(store.GetBool(KeyIncludeRouter, false))
	assert.False(store.GetBool(KeyIncludeApple, true))
	assert.Equal(1, store.GetInt(KeyPingInterval, 10))
	assert.Equal(2, store.GetInt(KeyIgnoredTimeouts, 1))

	// a new instance sees the persisted values
	assert.Equal(p.Config(), NewPreferences(store).Config())
}

func TestCustomHosts(t *testing.T) {
	assert := assert.New(t)
	store := prefs.NewMemoryStore()
	p := NewPreferences(store)

	assert.True(p.AddCustomHost("a.example"))
	assert.True(p.AddCustomHost(" b.example "))
	assert.False(p.AddCustomHost("a.example"))
	assert.False(p.AddCustomHost("  "))
	for _, fixed := range []string{SentinelHost, RouterHost, "Apple", "microsoft"} {
		assert.False(p.AddCustomHost(fixed), fixed)
	}
	assert.True(p.AddCustomHost("c.example"))
	assert.Equal([]string{"a.example", "b.example", "c.example"}, store.GetStringList(KeyCustomHosts))

	assert.True(p.RemoveCustomHost("b.example"))
	assert.False(p.RemoveCustomHost("b.example"))
	assert.Equal([]string{"a.example", "c.example"}, p.Config().CustomHosts)

	p.RemoveCustomHostAt(0, 7)
	assert.Equal([]string{"c.example"}, store.GetStringList(KeyCustomHosts))
}

func TestConfigCopy(t *testing.T) {
	p := NewPreferences(prefs.NewMemoryStore())
	p.AddCustomHost("a.example")

	cfg := p.Config()
	cfg.CustomHosts[0] = "changed"
	assert.Equal(t, []string{"a.example"}, p.Config().CustomHosts)
}

func TestTargets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeRouter = true
	cfg.CustomHosts = []string{"example.com"}

	targets := cfg.Targets()
	assert.Equal(t, []probe.Target{
		probe.Host("example.com"),
		probe.Host(SentinelHost),
		probe.Host(RouterHost),
		probe.AppleCaptivePortal,
		probe.MicrosoftNCSI,
	}, targets)
}
