package netcheck

import (
	"github.com/digineo/go-netcheck/internal"
)

var (
	log = internal.Logger

	// SetLogger allows updating the Logger. For details, see
	// "github.com/digineo/go-logwrap".Instance.SetLogger.
	SetLogger = internal.SetLogger
)

// SetPayloadSize resizes additional payload data to the given size. The
// pinger will append this payload to each outgoing ICMP Echo Request.
func (pinger *Pinger) SetPayloadSize(size uint16) {
	pinger.payloadMu.Lock()
	pinger.payload.Resize(size)
	pinger.payloadMu.Unlock()
}
