package netcheck

import (
	"net"
	"time"
)

// A request is a currently running ICMP echo request waiting for an answer.
type request struct {
	wait   chan struct{}
	result error
	from   net.IPAddr // source of the reply

	tStart time.Time // when was this packet sent?
	tRecv  time.Time // when was the reply received?
}

// respond is responsible for finishing this request. It takes an error
// as failure reason.
func (req *request) respond(err error, from net.IPAddr, tRecv time.Time) {
	req.result = err
	req.from = from
	req.tRecv = tRecv
	close(req.wait)
}

func (req *request) roundTripTime() time.Duration {
	if req.tRecv.IsZero() {
		return 0
	}
	return req.tRecv.Sub(req.tStart)
}
