package netcheck

import (
	"context"
	"net"
	"sync/atomic"
	"time"
)

// Echo sends a single ICMP echo request and waits for the reply, the
// context deadline or Pinger.Timeout, whichever comes first. It returns
// the address the reply came from and the round trip time.
func (pinger *Pinger) Echo(ctx context.Context, remote *net.IPAddr) (net.IPAddr, time.Duration, error) {
	if _, ok := ctx.Deadline(); !ok {
		timeout := pinger.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return pinger.once(ctx, remote)
}

// PingAttempts sends ICMP echo requests with a timeout per request,
// retrying upto attempts times. Will finish early on success and return
// the round trip time of the last request.
func (pinger *Pinger) PingAttempts(remote *net.IPAddr, timeout time.Duration, attempts int) (rtt time.Duration, err error) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		_, rtt, err = pinger.once(ctx, remote)
		cancel()

		if err == nil {
			break // success
		}
	}
	return
}

// once sends a single Echo Request and waits for an answer.
func (pinger *Pinger) once(ctx context.Context, remote *net.IPAddr) (net.IPAddr, time.Duration, error) {
	seq := uint16(atomic.AddUint32(&sequence, 1))
	req := request{
		wait: make(chan struct{}),
	}

	pinger.payloadMu.RLock()
	payload := pinger.payload
	pinger.payloadMu.RUnlock()

	// enqueue in currently running requests
	pinger.mtx.Lock()
	pinger.requests[seq] = &req
	pinger.mtx.Unlock()

	// start measurement (tRecv is set in the receiving end)
	req.tStart = time.Now()

	var err error
	if e := pinger.conn.WriteTo(remote, int(seq), payload); e != nil {
		log.Infof("unable to write to %v: %v", remote, e)
		err = e
	} else {
		select {
		case <-req.wait:
			err = req.result
		case <-ctx.Done():
			err = &timeoutError{}
		}
	}

	// dequeue request
	pinger.mtx.Lock()
	delete(pinger.requests, seq)
	pinger.mtx.Unlock()

	if err != nil {
		return net.IPAddr{}, 0, err
	}
	return req.from, req.roundTripTime(), nil
}
