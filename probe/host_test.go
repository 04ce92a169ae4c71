package probe

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeEchoer struct {
	from   string
	err    error
	called []string
}

func (f *fakeEchoer) Echo(ctx context.Context, remote *net.IPAddr) (net.IPAddr, time.Duration, error) {
	f.called = append(f.called, remote.String())
	if f.err != nil {
		return net.IPAddr{}, 0, f.err
	}
	return net.IPAddr{IP: net.ParseIP(f.from)}, time.Millisecond, nil
}

type fakeResolver map[string][]string

func (r fakeResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	ips, ok := r[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	addrs := make([]net.IPAddr, len(ips))
	for i, ip := range ips {
		addrs[i] = net.IPAddr{IP: net.ParseIP(ip)}
	}
	return addrs, nil
}

func TestEchoProbe(t *testing.T) {
	assert := assert.New(t)

	echo := &fakeEchoer{from: "93.184.216.34"}
	p := &EchoProbe{
		Pinger:   echo,
		Resolver: fakeResolver{"example.com": {"2606:2800:220:1::", "93.184.216.34"}},
	}

	assert.Equal(HostResult{Up: true, IP: "93.184.216.34"}, p.Probe(context.Background(), "example.com", time.Second))
	assert.Equal([]string{"93.184.216.34"}, echo.called)

	// literal addresses skip the resolver
	assert.True(p.Probe(context.Background(), "8.8.8.8", time.Second).Up)
	assert.Equal("8.8.8.8", echo.called[1])
}

func TestEchoProbeFailures(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	p := &EchoProbe{
		Pinger:   &fakeEchoer{err: errors.New("i/o timeout")},
		Resolver: fakeResolver{"v6only.example": {"2001:db8::1"}},
	}
	assert.Equal(HostResult{}, p.Probe(ctx, "8.8.8.8", time.Second))
	assert.Equal(HostResult{}, p.Probe(ctx, "unknown.example", time.Second))

	p.Pinger = &fakeEchoer{from: "2001:db8::1"}
	assert.Equal(HostResult{}, p.Probe(ctx, "v6only.example", time.Second))
	assert.Equal(HostResult{}, p.Probe(ctx, "2001:db8::1", time.Second))

	p.IPv6 = true
	assert.Equal(HostResult{Up: true, IP: "2001:db8::1"}, p.Probe(ctx, "v6only.example", time.Second))
}
