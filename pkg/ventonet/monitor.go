// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ventonet

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ventolink/ventoctl/pkg/vento"
)

// Datagram is one datagram seen by Monitor. Packet is nil when Err is set.
type Datagram struct {
	Time   time.Time
	From   *net.UDPAddr
	Data   []byte
	Packet *vento.Packet
	Err    error
}

// MonitorAddress returns the address Monitor binds: the listen host on the
// device port
func (c *Client) MonitorAddress() string {
	host, _, err := net.SplitHostPort(c.opts.listenAddress)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, strconv.Itoa(c.opts.port))
}

// Monitor binds the device port and hands every received datagram to
// handler, decoded or not, until ctx ends. handler runs on the receive
// goroutine and owns the Datagram.
//
// Ending ctx is the normal way to stop; Monitor then returns nil.
func (c *Client) Monitor(ctx context.Context, handler func(Datagram)) error {
	laddr, err := net.ResolveUDPAddr("udp4", c.MonitorAddress())
	if err != nil {
		return fmt.Errorf("resolve monitor address: %w", err)
	}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c.logger.Info().Str("addr", conn.LocalAddr().String()).Msg("monitoring")

	buf := make([]byte, readBufferSize)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		c.traceDatagram(vento.DirectionIn, from, data)

		d := Datagram{Time: time.Now(), From: from, Data: data}
		d.Packet, d.Err = vento.Decode(data)
		handler(d)
	}
}
