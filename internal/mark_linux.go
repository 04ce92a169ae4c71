package internal

import (
	"os"
	"syscall"
)

// markControl sets SO_MARK on the socket before it is bound, so policy
// routing can send probes around (or through) a VPN tunnel.
func markControl(mark uint) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = os.NewSyscallError(
				"setsockopt",
				syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_MARK, int(mark)),
			)
		})
		if err != nil {
			return err
		}
		return sockErr
	}
}
