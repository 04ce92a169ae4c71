package probe

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractIP(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("93.184.216.34", extractIP("PING example.com (93.184.216.34): 56 data bytes\n64 bytes from 93.184.216.34"))
	assert.Equal("8.8.8.8", extractIP("PING 8.8.8.8 (8.8.8.8) 56(84) bytes of data."))
	assert.Equal("", extractIP("ping: cannot resolve example.invalid: Unknown host"))
	assert.Equal("", extractIP("unterminated (token"))
}

func TestCommandProbe(t *testing.T) {
	echo, err := exec.LookPath("echo")
	if err != nil {
		t.Skip("echo not available")
	}
	assert := assert.New(t)

	c := &CommandProbe{
		Path: echo,
		Args: func(host string, timeoutSeconds int) []string {
			return []string{"PING", host, "(192.0.2.7)"}
		},
	}
	assert.Equal(HostResult{Up: true, IP: "192.0.2.7"}, c.Probe(context.Background(), "example.com", time.Second))

	// no address in the output does not affect the result
	c.Args = func(host string, timeoutSeconds int) []string { return []string{host} }
	assert.Equal(HostResult{Up: true}, c.Probe(context.Background(), "example.com", time.Second))
}

func TestCommandProbeFailures(t *testing.T) {
	assert := assert.New(t)

	missing := &CommandProbe{Path: "/nonexistent/ping"}
	assert.Equal(HostResult{}, missing.Probe(context.Background(), "example.com", time.Second))

	if f, err := exec.LookPath("false"); err == nil {
		failing := &CommandProbe{Path: f}
		assert.Equal(HostResult{}, failing.Probe(context.Background(), "example.com", time.Second))
	}
}

func TestDefaultPingArgs(t *testing.T) {
	args := defaultPingArgs("example.com", 20)
	assert.Equal(t, "example.com", args[len(args)-1])
	assert.Contains(t, args, "20")
	assert.Contains(t, args, "1")
}
