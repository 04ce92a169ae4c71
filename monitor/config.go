package monitor

import (
	"slices"
	"strings"
	"sync"

	"github.com/digineo/go-netcheck/probe"
)

// Preference keys.
const (
	KeyIncludeApple     = "includeAppleCheck"
	KeyIncludeMicrosoft = "includeMicrosoftCheck"
	KeyIncludeRouter    = "includeRouterCheck"
	KeyIncludeVPNCheck  = "includeVPNCheck"
	KeyPingInterval     = "pingInterval"
	KeyIgnoredTimeouts  = "ignoredTimeouts"
	KeyCustomHosts      = "customDomains"
)

// Fixed hosts probed every cycle.
const (
	SentinelHost = "8.8.8.8"
	RouterHost   = "192.168.1.1"
)

// Config is what the user can configure about the monitor.
type Config struct {
	IncludeApple     bool     `json:"include_apple"`
	IncludeMicrosoft bool     `json:"include_microsoft"`
	IncludeRouter    bool     `json:"include_router"`
	IncludeVPNCheck  bool     `json:"include_vpn_check"`
	PingInterval     int      `json:"ping_interval"` // seconds, >= 1
	IgnoredTimeouts  int      `json:"ignored_timeouts"`
	CustomHosts      []string `json:"custom_hosts"` // insertion order, no duplicates
}

// DefaultConfig is used for every key missing in the store.
func DefaultConfig() Config {
	return Config{
		IncludeApple:     true,
		IncludeMicrosoft: true,
		IncludeRouter:    false,
		IncludeVPNCheck:  true,
		PingInterval:     10,
		IgnoredTimeouts:  1,
	}
}

func (c Config) clone() Config {
	c.CustomHosts = slices.Clone(c.CustomHosts)
	return c
}

// Targets builds the target list of a cycle: custom hosts first, then the
// sentinel, then router, Apple and Microsoft if enabled.
func (c Config) Targets() []probe.Target {
	targets := make([]probe.Target, 0, len(c.CustomHosts)+4)
	for _, host := range c.CustomHosts {
		targets = append(targets, probe.Host(host))
	}
	targets = append(targets, probe.Host(SentinelHost))
	if c.IncludeRouter {
		targets = append(targets, probe.Host(RouterHost))
	}
	if c.IncludeApple {
		targets = append(targets, probe.AppleCaptivePortal)
	}
	if c.IncludeMicrosoft {
		targets = append(targets, probe.MicrosoftNCSI)
	}
	return targets
}

// reservedName reports whether name is taken by a fixed target.
func reservedName(name string) bool {
	switch {
	case name == SentinelHost, name == RouterHost:
		return true
	case strings.EqualFold(name, probe.AppleCaptivePortal.Name()),
		strings.EqualFold(name, probe.MicrosoftNCSI.Name()):
		return true
	}
	return false
}

// Preferences holds the Config and writes every change through to the
// store.
type Preferences struct {
	mtx   sync.RWMutex
	store PreferencesStore
	cfg   Config
}

// NewPreferences reads the configuration from store.
func NewPreferences(store PreferencesStore) *Preferences {
	def := DefaultConfig()
	cfg := Config{
		IncludeApple:     store.GetBool(KeyIncludeApple, def.IncludeApple),
		IncludeMicrosoft: store.GetBool(KeyIncludeMicrosoft, def.IncludeMicrosoft),
		IncludeRouter:    store.GetBool(KeyIncludeRouter, def.IncludeRouter),
		IncludeVPNCheck:  store.GetBool(KeyIncludeVPNCheck, def.IncludeVPNCheck),
		PingInterval:     max(1, store.GetInt(KeyPingInterval, def.PingInterval)),
		IgnoredTimeouts:  max(0, store.GetInt(KeyIgnoredTimeouts, def.IgnoredTimeouts)),
	}
	for _, host := range store.GetStringList(KeyCustomHosts) {
		host = strings.TrimSpace(host)
		if host != "" && !reservedName(host) && !slices.Contains(cfg.CustomHosts, host) {
			cfg.CustomHosts = append(cfg.CustomHosts, host)
		}
	}

	return &Preferences{store: store, cfg: cfg}
}

// Config returns a copy of the current configuration.
func (p *Preferences) Config() Config {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.cfg.clone()
}

func (p *Preferences) SetIncludeApple(v bool) {
	p.setBool(KeyIncludeApple, &p.cfg.IncludeApple, v)
}

func (p *Preferences) SetIncludeMicrosoft(v bool) {
	p.setBool(KeyIncludeMicrosoft, &p.cfg.IncludeMicrosoft, v)
}

func (p *Preferences) SetIncludeRouter(v bool) {
	p.setBool(KeyIncludeRouter, &p.cfg.IncludeRouter, v)
}

func (p *Preferences) SetIncludeVPNCheck(v bool) {
	p.setBool(KeyIncludeVPNCheck, &p.cfg.IncludeVPNCheck, v)
}

// SetPingInterval sets the pause between cycles in seconds, at least 1.
func (p *Preferences) SetPingInterval(seconds int) {
	p.setInt(KeyPingInterval, &p.cfg.PingInterval, max(1, seconds))
}

// SetIgnoredTimeouts sets how many failed targets still count as a single
// timeout instead of an outage.
func (p *Preferences) SetIgnoredTimeouts(n int) {
	p.setInt(KeyIgnoredTimeouts, &p.cfg.IgnoredTimeouts, max(0, n))
}

// AddCustomHost appends host to the custom hosts. Empty and duplicate
// values are ignored, as are the names of the fixed targets; the result
// reports whether the list changed.
func (p *Preferences) AddCustomHost(host string) bool {
	host = strings.TrimSpace(host)
	if host == "" || reservedName(host) {
		return false
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	if slices.Contains(p.cfg.CustomHosts, host) {
		return false
	}
	p.cfg.CustomHosts = append(p.cfg.CustomHosts, host)
	p.store.SetStringList(KeyCustomHosts, slices.Clone(p.cfg.CustomHosts))
	return true
}

// RemoveCustomHost removes host from the custom hosts.
func (p *Preferences) RemoveCustomHost(host string) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	i := slices.Index(p.cfg.CustomHosts, strings.TrimSpace(host))
	if i < 0 {
		return false
	}
	p.cfg.CustomHosts = slices.Delete(p.cfg.CustomHosts, i, i+1)
	p.store.SetStringList(KeyCustomHosts, slices.Clone(p.cfg.CustomHosts))
	return true
}

// RemoveCustomHostAt removes the custom hosts at the given positions.
// Positions out of range are ignored.
func (p *Preferences) RemoveCustomHostAt(indexes ...int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	drop := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		drop[i] = true
	}

	kept := make([]string, 0, len(p.cfg.CustomHosts))
	for i, host := range p.cfg.CustomHosts {
		if !drop[i] {
			kept = append(kept, host)
		}
	}
	if len(kept) == len(p.cfg.CustomHosts) {
		return
	}
	p.cfg.CustomHosts = kept
	p.store.SetStringList(KeyCustomHosts, slices.Clone(kept))
}

func (p *Preferences) setBool(key string, field *bool, v bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	*field = v
	p.store.SetBool(key, v)
}

func (p *Preferences) setInt(key string, field *int, v int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	*field = v
	p.store.SetInt(key, v)
}
