package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	netcheck "github.com/digineo/go-netcheck"
	"github.com/digineo/go-netcheck/geo"
	"github.com/digineo/go-netcheck/internal/config"
	"github.com/digineo/go-netcheck/internal/logger"
	"github.com/digineo/go-netcheck/monitor"
	"github.com/digineo/go-netcheck/notify"
	"github.com/digineo/go-netcheck/prefs"
	"github.com/digineo/go-netcheck/probe"
)

func nop() {}

// openStore opens the configured preferences backend.
func openStore(cfg *config.Config) (monitor.PreferencesStore, func(), error) {
	log := logger.WithComponent("prefs")

	switch cfg.Prefs.Backend {
	case config.BackendMemory:
		return prefs.NewMemoryStore(), nop, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := prefs.NewRedisStore(client, cfg.Redis.Key, log)

		ctx, cancel := context.WithTimeout(context.Background(), prefs.RedisTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return store, func() { client.Close() }, nil

	case config.BackendFile:
		store, err := prefs.OpenFile(os.ExpandEnv(cfg.Prefs.Path), log)
		if err != nil {
			return nil, nil, err
		}
		return store, nop, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Prefs.Backend)
}

// openHostProbe returns the configured HostProbe. The ICMP probe owns
// sockets which are released by the returned function.
func openHostProbe(cfg *config.Config) (probe.HostProbe, func(), error) {
	if cfg.Probe.Mode == config.ProbeModeExec {
		return &probe.CommandProbe{Path: cfg.Probe.ExecPath}, nop, nil
	}

	netcheck.SetLogger(logger.Logwrap("icmp"))

	var pinger *netcheck.Pinger
	var err error
	if cfg.Probe.Privileged && cfg.Probe.Mark != 0 {
		pinger, err = netcheck.NewWithMark(cfg.Probe.Bind4, cfg.Probe.Bind6, cfg.Probe.Mark)
	} else {
		pinger, err = netcheck.New(cfg.Probe.Bind4, cfg.Probe.Bind6, cfg.Probe.Privileged)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open icmp sockets (try probe.mode=exec or probe.privileged): %w", err)
	}

	return probe.NewEchoProbe(pinger, pinger.SupportsIPv6()), pinger.Close, nil
}

func newNotifier(cfg *config.Config) monitor.Notifier {
	log := logger.WithComponent("notify")
	if cfg.Notify.Desktop {
		return notify.Multi{
			notify.LogNotifier{Log: log},
			notify.NewDesktopNotifier(log),
		}
	}
	return notify.LogNotifier{Log: log}
}

// sinks fans a snapshot out to several sinks.
type sinks []monitor.Sink

func (s sinks) Publish(snap monitor.Snapshot) {
	for _, sink := range s {
		sink.Publish(snap)
	}
}

// resources bundles everything a monitor needs.
type resources struct {
	store  monitor.PreferencesStore
	prober *probe.Prober
	close  func()
}

func openResources(cfg *config.Config) (*resources, error) {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	hosts, closeHosts, err := openHostProbe(cfg)
	if err != nil {
		closeStore()
		return nil, err
	}

	return &resources{
		store:  store,
		prober: probe.NewProber(hosts, logger.WithComponent("probe")),
		close: func() {
			closeHosts()
			closeStore()
		},
	}, nil
}

func (r *resources) newMonitor(notifier monitor.Notifier, sink monitor.Sink) *monitor.Monitor {
	return monitor.New(monitor.Options{
		Prober:   r.prober,
		Geo:      geo.NewResolver(logger.WithComponent("geo")),
		Store:    r.store,
		Notifier: notifier,
		Sink:     sink,
		Log:      logger.WithComponent("monitor"),
	})
}
