package netcheck

import (
	"net"
	"time"

	"golang.org/x/net/icmp"
)

// process will finish a currently running Echo Request, if the body is
// an ICMP Echo reply to a request from us.
func (pinger *Pinger) process(body *icmp.Echo, icmpError error, addr net.IPAddr, tRecv time.Time) {
	seq := uint16(body.Seq)

	pinger.mtx.Lock()
	req := pinger.requests[seq]
	if req != nil {
		// a request is finished on the first reply
		delete(pinger.requests, seq)
	}
	pinger.mtx.Unlock()

	if req != nil {
		req.respond(icmpError, addr, tRecv)
	}
}
