// Package netcheck sends ICMP echo requests. It is the reachability engine
// behind the host probes of the connectivity monitor.
package netcheck

import (
	"sync"
	"time"

	"github.com/digineo/go-netcheck/internal"
)

// sequence number for this process
var sequence uint32

// DefaultTimeout is used when neither the context nor Pinger.Timeout
// set a deadline.
const DefaultTimeout = 5 * time.Second

// Pinger is a instance for ICMP echo requests
type Pinger struct {
	Timeout time.Duration // timeout per request, if the context has no deadline

	conn      internal.Conn
	requests  map[uint16]*request // currently running requests
	mtx       sync.Mutex          // lock for the requests map
	payload   internal.Payload
	payloadMu sync.RWMutex
}

// New creates a new Pinger. This will open the sockets and start the
// receiving logic. Unprivileged pingers use datagram ICMP sockets
// (see net.ipv4.ping_group_range on Linux). You'll need to call Close()
// to cleanup.
func New(bind4, bind6 string, privileged bool) (*Pinger, error) {
	return open(bind4, bind6, privileged, 0)
}

// NewWithMark creates a privileged Pinger whose sockets carry the given
// SO_MARK (Linux only).
func NewWithMark(bind4, bind6 string, mark uint) (*Pinger, error) {
	return open(bind4, bind6, true, mark)
}

func open(bind4, bind6 string, privileged bool, mark uint) (*Pinger, error) {
	pinger := &Pinger{
		Timeout:  DefaultTimeout,
		requests: make(map[uint16]*request),
	}
	pinger.conn.Privileged = privileged
	pinger.conn.Mark = mark
	pinger.conn.Receiver = pinger.process

	if err := pinger.conn.Open(bind4, bind6); err != nil {
		return nil, err
	}

	return pinger, nil
}

// Close will close the ICMP sockets.
func (pinger *Pinger) Close() {
	pinger.conn.Close()
}

// SupportsIPv4 reports whether the pinger can reach IPv4 destinations.
func (pinger *Pinger) SupportsIPv4() bool {
	return pinger.conn.Has4()
}

// SupportsIPv6 reports whether the pinger can reach IPv6 destinations.
func (pinger *Pinger) SupportsIPv6() bool {
	return pinger.conn.Has6()
}
