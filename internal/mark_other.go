//go:build !linux

package internal

import (
	"errors"
	"syscall"
)

func markControl(mark uint) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		return errors.New("setting SO_MARK socket option is not supported on this platform")
	}
}
