package probe

import (
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"
)

var parenthesizedToken = regexp.MustCompile(`[(]([^)]+)[)]`)

// CommandProbe is a HostProbe running the system ping utility. It
// needs no socket privileges.
type CommandProbe struct {
	Path string // executable, defaults to "ping"

	// Args builds the command line, defaults to one packet with a
	// timeout in seconds.
	Args func(host string, timeoutSeconds int) []string
}

// Probe runs the ping command. The host is up iff the command exits with
// status 0 in time; the answering address is taken from the first
// parenthesized token of the output.
func (c *CommandProbe) Probe(ctx context.Context, host string, timeout time.Duration) HostResult {
	seconds := int(timeout / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	path := c.Path
	if path == "" {
		path = "ping"
	}
	args := c.Args
	if args == nil {
		args = defaultPingArgs
	}

	// grace period for process startup on top of the ping timeout
	ctx, cancel := context.WithTimeout(ctx, time.Duration(seconds)*time.Second+time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, args(host, seconds)...).CombinedOutput()
	if err != nil {
		return HostResult{}
	}

	return HostResult{Up: true, IP: extractIP(string(out))}
}

func defaultPingArgs(host string, timeoutSeconds int) []string {
	t := strconv.Itoa(timeoutSeconds)
	switch runtime.GOOS {
	case "darwin", "freebsd", "openbsd", "netbsd":
		// -t is the overall timeout in seconds on BSD ping
		return []string{"-c", "1", "-t", t, host}
	default:
		return []string{"-c", "1", "-W", t, host}
	}
}

// extractIP returns the content of the first parenthesized token, e.g.
// "PING example.com (93.184.216.34): 56 data bytes".
func extractIP(output string) string {
	m := parenthesizedToken.FindStringSubmatch(output)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
