package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	// ProtocolICMP is the number of the Internet Control Message Protocol
	// (see golang.org/x/net/internal/iana.ProtocolICMP)
	ProtocolICMP = 1

	// ProtocolICMPv6 is the IPv6 Next Header value for ICMPv6
	// see golang.org/x/net/internal/iana.ProtocolIPv6ICMP
	ProtocolICMPv6 = 58
)

var (
	ErrNotBound      = errors.New("need at least one bind address")
	ErrSocketMissing = errors.New("socket missing")
	id               = os.Getpid() & 0xffff
)

// UnreachableError is handed to the Receiver when a destination
// unreachable message quotes one of our echo requests.
type UnreachableError struct {
	From net.IPAddr
	Type icmp.Type
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%v from %s", e.Type, e.From.String())
}

// Receiver is called for every echo reply (icmpError == nil) and for every
// error message quoting an echo request. tRecv is the time the packet was read.
type Receiver func(body *icmp.Echo, icmpError error, addr net.IPAddr, tRecv time.Time)

// Conn wraps the IPv4 and IPv6 ICMP sockets.
type Conn struct {
	Receiver   Receiver
	Privileged bool
	Mark       uint // SO_MARK for privileged sockets, 0 disables

	conn4 net.PacketConn
	conn6 net.PacketConn
	wg    sync.WaitGroup
}

// Open opens the sockets and starts the receiving goroutines. An empty
// bind address disables the corresponding address family. You'll need
// to call Close() to cleanup.
func (c *Conn) Open(bind4, bind6 string) error {
	var err error
	var network4, network6 string

	if c.Privileged {
		network4 = "ip4:icmp"
		network6 = "ip6:ipv6-icmp"
	} else {
		network4 = "udp4"
		network6 = "udp6"
	}

	c.conn4, err = c.listen(network4, bind4)
	if err != nil {
		return fmt.Errorf("open %s socket: %w", network4, err)
	}

	c.conn6, err = c.listen(network6, bind6)
	if err != nil {
		if c.conn4 != nil {
			c.conn4.Close()
		}
		return fmt.Errorf("open %s socket: %w", network6, err)
	}

	if c.conn4 == nil && c.conn6 == nil {
		return ErrNotBound
	}

	if c.conn4 != nil {
		c.wg.Add(1)
		go c.receiver(ProtocolICMP, c.conn4)
	}
	if c.conn6 != nil {
		c.wg.Add(1)
		go c.receiver(ProtocolICMPv6, c.conn6)
	}

	return nil
}

// Close closes the sockets and waits for the receivers to finish.
func (c *Conn) Close() {
	if c.conn4 != nil {
		c.conn4.Close()
	}
	if c.conn6 != nil {
		c.conn6.Close()
	}
	c.wg.Wait()
}

// Has4 reports whether an IPv4 socket is open.
func (c *Conn) Has4() bool { return c.conn4 != nil }

// Has6 reports whether an IPv6 socket is open.
func (c *Conn) Has6() bool { return c.conn6 != nil }

// receiver listens on the socket and hands ICMP Echo Replies to
// the Receiver.
func (c *Conn) receiver(proto int, conn net.PacketConn) {
	defer c.wg.Done()
	rb := make([]byte, 1500)

	for {
		n, source, err := conn.ReadFrom(rb)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if netErr, ok := err.(net.Error); !ok || !netErr.Timeout() {
				Logger.Errorf("icmp receiver stopped: %v", err)
				return
			}
			continue
		}

		var ipAddr net.IPAddr
		switch addr := source.(type) {
		case *net.UDPAddr:
			ipAddr.IP = addr.IP
			ipAddr.Zone = addr.Zone
		case *net.IPAddr:
			ipAddr = *addr
		}

		c.receive(proto, rb[:n], ipAddr, time.Now())
	}
}

// receive takes the raw message and tries to evaluate an ICMP response.
func (c *Conn) receive(proto int, bytes []byte, addr net.IPAddr, t time.Time) {
	m, err := icmp.ParseMessage(proto, bytes)
	if err != nil {
		return
	}

	switch m.Type {
	case ipv4.ICMPTypeEchoReply, ipv6.ICMPTypeEchoReply:
		if echo, ok := m.Body.(*icmp.Echo); ok && echo != nil {
			// raw sockets see the replies of every process
			if c.Privileged && echo.ID != id {
				return
			}
			c.Receiver(echo, nil, addr, t)
		}

	case ipv4.ICMPTypeDestinationUnreachable, ipv6.ICMPTypeDestinationUnreachable:
		body, ok := m.Body.(*icmp.DstUnreach)
		if !ok || body == nil {
			return
		}

		var bodyData []byte
		switch proto {
		case ProtocolICMP:
			hdr, err := ipv4.ParseHeader(body.Data)
			if err != nil {
				return
			}
			bodyData = body.Data[hdr.Len:]
		case ProtocolICMPv6:
			// we only want to detect parsing errors
			if _, err := ipv6.ParseHeader(body.Data); err != nil {
				return
			}
			bodyData = body.Data[ipv6.HeaderLen:]
		default:
			return
		}

		msg, err := icmp.ParseMessage(proto, bodyData)
		if err != nil {
			return
		}

		echo, ok := msg.Body.(*icmp.Echo)
		if !ok || echo == nil {
			Logger.Infof("expected *icmp.Echo, got %#v", msg)
			return
		}
		if c.Privileged && echo.ID != id {
			return
		}

		c.Receiver(echo, &UnreachableError{From: addr, Type: m.Type}, addr, t)
	}
}

// WriteTo marshals the echo request and sends it to addr.
func (c *Conn) WriteTo(addr *net.IPAddr, seq int, data []byte) error {
	echo := icmp.Echo{
		Seq:  seq,
		Data: data,
	}
	msg := icmp.Message{
		Code: 0,
		Body: &echo,
	}

	var conn net.PacketConn
	if addr.IP.To4() != nil {
		msg.Type = ipv4.ICMPTypeEcho
		conn = c.conn4
	} else {
		msg.Type = ipv6.ICMPTypeEchoRequest
		conn = c.conn6
	}

	if c.Privileged {
		echo.ID = id
	}

	if conn == nil {
		return ErrSocketMissing
	}

	wb, err := msg.Marshal(nil)
	if err != nil {
		return err
	}

	if c.Privileged {
		_, err = conn.WriteTo(wb, addr)
	} else {
		_, err = conn.WriteTo(wb, &net.UDPAddr{
			IP:   addr.IP,
			Zone: addr.Zone,
		})
	}

	return err
}

// listen opens a new ICMP socket, if network and address are not empty.
func (c *Conn) listen(network, address string) (net.PacketConn, error) {
	if network == "" || address == "" {
		return nil, nil
	}

	if c.Privileged && c.Mark != 0 {
		lc := net.ListenConfig{Control: markControl(c.Mark)}
		return lc.ListenPacket(context.Background(), network, address)
	}

	conn, err := icmp.ListenPacket(network, address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
