package probe

import (
	"context"
	"net"
	"time"
)

// HostResult is the result of a single reachability check.
type HostResult struct {
	Up bool
	IP string // address that answered, empty if unknown
}

// HostProbe checks whether a host answers within timeout. Implementations
// never fail: anything going wrong is reported as Up=false.
type HostProbe interface {
	Probe(ctx context.Context, host string, timeout time.Duration) HostResult
}

// Echoer sends a single ICMP echo request, see netcheck.Pinger.
type Echoer interface {
	Echo(ctx context.Context, remote *net.IPAddr) (net.IPAddr, time.Duration, error)
}

// Resolver looks up host names.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// EchoProbe is a HostProbe sending ICMP echo requests.
type EchoProbe struct {
	Pinger   Echoer
	Resolver Resolver // defaults to net.DefaultResolver
	IPv6     bool     // whether IPv6 destinations can be used
}

// NewEchoProbe returns a probe pinging through p.
func NewEchoProbe(p Echoer, ipv6 bool) *EchoProbe {
	return &EchoProbe{Pinger: p, IPv6: ipv6}
}

// Probe resolves host and pings the first usable address. The name lookup
// counts against the timeout.
func (e *EchoProbe) Probe(ctx context.Context, host string, timeout time.Duration) HostResult {
	if timeout < time.Second {
		timeout = time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	remote, ok := e.resolve(ctx, host)
	if !ok {
		return HostResult{}
	}

	from, _, err := e.Pinger.Echo(ctx, remote)
	if err != nil {
		return HostResult{}
	}

	res := HostResult{Up: true}
	if from.IP != nil {
		res.IP = from.IP.String()
	}
	return res
}

func (e *EchoProbe) resolve(ctx context.Context, host string) (*net.IPAddr, bool) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() == nil && !e.IPv6 {
			return nil, false
		}
		return &net.IPAddr{IP: ip}, true
	}

	resolver := e.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, false
	}

	// prefer IPv4
	for i := range addrs {
		if addrs[i].IP.To4() != nil {
			return &addrs[i], true
		}
	}
	if e.IPv6 && len(addrs) > 0 {
		return &addrs[0], true
	}
	return nil, false
}
