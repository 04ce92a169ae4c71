package probe

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober probes a list of targets concurrently.
type Prober struct {
	Hosts HostProbe
	HTTP  BodyChecker
	Log   *slog.Logger
}

// NewProber returns a prober using hosts for host targets and a default
// HTTPChecker for HTTP targets.
func NewProber(hosts HostProbe, log *slog.Logger) *Prober {
	if log == nil {
		log = slog.Default()
	}
	return &Prober{
		Hosts: hosts,
		HTTP:  NewHTTPChecker(),
		Log:   log,
	}
}

// RunAll starts one goroutine per target and waits for all of them. The
// outcomes are in the order of targets, regardless of which probe
// finishes first.
func (p *Prober) RunAll(ctx context.Context, targets []Target, timeout time.Duration) []Outcome {
	outcomes := make([]Outcome, len(targets))

	var wg sync.WaitGroup
	wg.Add(len(targets))
	for i := range targets {
		go func(i int) {
			defer wg.Done()
			outcomes[i] = p.run(ctx, targets[i], timeout)
		}(i)
	}
	wg.Wait()

	return outcomes
}

func (p *Prober) run(ctx context.Context, t Target, timeout time.Duration) Outcome {
	out := Outcome{Name: t.Name()}
	start := time.Now()

	switch t.Kind() {
	case KindHost:
		res := p.Hosts.Probe(ctx, t.Address(), timeout)
		out.Up, out.IP = res.Up, res.IP
	case KindHTTP:
		hctx, cancel := context.WithTimeout(ctx, timeout)
		out.Up = Check(hctx, p.HTTP, t.URL(), t.Validator())
		cancel()
	}

	if p.Log != nil {
		p.Log.Debug("probe finished",
			"target", out.Name,
			"up", out.Up,
			"ip", out.IP,
			"took", time.Since(start),
		)
	}
	return out
}
