// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package ventonet implements the UDP transport for Vento units: broadcast
// discovery, unicast request/response and passive monitoring.
//
// Every operation opens its own socket, so a Client holds no connection
// state and is safe for concurrent use.
package ventonet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventolink/ventoctl/pkg/vento"
)

// readBufferSize bounds a single receive. Larger foreign datagrams are
// truncated and then fail to decode.
const readBufferSize = 2048

// Errors
var (
	ErrCancelled = errors.New("ventonet: operation cancelled")
	ErrNotFound  = errors.New("ventonet: device not found")
)

// DeviceAddress is one discovery sighting
type DeviceAddress struct {
	DeviceID string `yaml:"device_id"`
	IP       string `yaml:"ip"`
}

// Response is the first device reply to a Send. Data holds the datagram as
// received.
type Response struct {
	Packet *vento.Packet
	From   *net.UDPAddr
	Data   []byte
}

// Client sends requests to Vento units
type Client struct {
	opts   *clientOptions
	logger zerolog.Logger
}

// New creates a client
func New(opts ...Option) *Client {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &Client{
		opts:   options,
		logger: options.logger.With().Str("component", "ventonet").Logger(),
	}
}

// Timeout returns the configured receive timeout
func (c *Client) Timeout() time.Duration {
	return c.opts.timeout
}

// FindDevices broadcasts a SEARCH request and collects replies until no new
// reply has arrived for one timeout period. Every RESPONSE is recorded, so a
// unit answering twice appears twice; see Dedupe.
//
// A timeout is not an error: the list may be empty. When ctx ends first the
// addresses gathered so far are returned with ErrCancelled.
func (c *Client) FindDevices(ctx context.Context) ([]DeviceAddress, error) {
	data, err := vento.Encode(vento.NewSearchRequest())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	dst, err := c.resolve(c.opts.broadcastAddress)
	if err != nil {
		return nil, err
	}
	conn, err := c.listen()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := c.write(conn, data, dst); err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		return nil, err
	}
	c.logger.Debug().Str("to", dst.String()).Msg("search sent")

	devices := []DeviceAddress{}
	deadline := time.Now().Add(c.opts.timeout)
	buf := make([]byte, readBufferSize)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			if ctx.Err() != nil {
				return devices, cancelled(ctx.Err())
			}
			return devices, fmt.Errorf("set read deadline: %w", err)
		}
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return devices, cancelled(ctx.Err())
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				c.logger.Debug().Int("devices", len(devices)).Msg("discovery quiet")
				return devices, nil
			}
			return devices, fmt.Errorf("receive: %w", err)
		}

		p := c.accept(buf[:n], from)
		if p == nil {
			continue
		}
		devices = append(devices, DeviceAddress{DeviceID: p.DeviceID(), IP: from.IP.String()})
		deadline = time.Now().Add(c.opts.timeout)
		c.logger.Debug().Str("device", p.DeviceID()).Str("ip", from.IP.String()).Msg("device found")
	}
}

// Send transmits p to ip (the broadcast address when ip is empty) and waits
// for the first RESPONSE. Returns (nil, nil) when nothing answers within the
// timeout. Encoding errors are returned before any socket is opened.
func (c *Client) Send(ctx context.Context, p *vento.Packet, ip string) (*Response, error) {
	data, err := vento.Encode(p)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	host := ip
	if host == "" {
		host = c.opts.broadcastAddress
	}
	dst, err := c.resolve(host)
	if err != nil {
		return nil, err
	}
	conn, err := c.listen()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := c.write(conn, data, dst); err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		return nil, err
	}
	c.logger.Debug().
		Str("to", dst.String()).
		Str("function", p.FunctionType().String()).
		Int("entries", p.Len()).
		Msg("request sent")

	if err := conn.SetReadDeadline(time.Now().Add(c.opts.timeout)); err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	buf := make([]byte, readBufferSize)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, cancelled(ctx.Err())
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				c.logger.Debug().Str("to", dst.String()).Msg("no response")
				return nil, nil
			}
			return nil, fmt.Errorf("receive: %w", err)
		}

		if reply := c.accept(buf[:n], from); reply != nil {
			data := make([]byte, n)
			copy(data, buf[:n])
			return &Response{Packet: reply, From: from, Data: data}, nil
		}
	}
}

// Locate runs discovery and returns the IP of the last sighting of the unit
// with the given id
func (c *Client) Locate(ctx context.Context, deviceID string) (string, error) {
	devices, err := c.FindDevices(ctx)
	if err != nil {
		return "", err
	}
	for _, d := range Dedupe(devices) {
		if d.DeviceID == deviceID {
			return d.IP, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, deviceID)
}

// Dedupe collapses sightings by device id. The latest IP reported for an id
// wins; the result keeps the order in which each id was first seen.
func Dedupe(devices []DeviceAddress) []DeviceAddress {
	index := make(map[string]int, len(devices))
	out := make([]DeviceAddress, 0, len(devices))
	for _, d := range devices {
		if i, ok := index[d.DeviceID]; ok {
			out[i].IP = d.IP
			continue
		}
		index[d.DeviceID] = len(out)
		out = append(out, d)
	}
	return out
}

// accept decodes an inbound datagram and returns it if it is a RESPONSE
func (c *Client) accept(data []byte, from *net.UDPAddr) *vento.Packet {
	c.traceDatagram(vento.DirectionIn, from, data)

	p, err := vento.Decode(data)
	if err != nil {
		c.logger.Debug().Err(err).Str("from", from.String()).Int("bytes", len(data)).Msg("discarding datagram")
		return nil
	}
	if !p.IsResponse() {
		c.logger.Debug().Str("from", from.String()).Str("function", p.FunctionType().String()).Msg("ignoring non-response")
		return nil
	}
	return p
}

func (c *Client) listen() (*net.UDPConn, error) {
	laddr, err := net.ResolveUDPAddr("udp4", c.opts.listenAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address: %w", err)
	}
	// Datagram sockets are created with SO_BROADCAST enabled
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return conn, nil
}

func (c *Client) resolve(host string) (*net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(c.opts.port)))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	return addr, nil
}

func (c *Client) write(conn *net.UDPConn, data []byte, dst *net.UDPAddr) error {
	c.traceDatagram(vento.DirectionOut, dst, data)
	if _, err := conn.WriteToUDP(data, dst); err != nil {
		return fmt.Errorf("send to %s: %w", dst, err)
	}
	return nil
}

func (c *Client) traceDatagram(dir vento.Direction, peer *net.UDPAddr, data []byte) {
	if c.opts.trace != nil {
		c.opts.trace(dir, peer, data)
	}
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
