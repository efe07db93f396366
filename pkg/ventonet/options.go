// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ventonet

import (
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventolink/ventoctl/pkg/vento"
)

// Defaults
const (
	DefaultTimeout       = 1000 * time.Millisecond
	DefaultListenAddress = "0.0.0.0:0"
)

// TraceFunc observes every datagram the client sends or receives.
// data must not be retained after the call returns.
type TraceFunc func(dir vento.Direction, peer *net.UDPAddr, data []byte)

type clientOptions struct {
	timeout          time.Duration
	port             int
	broadcastAddress string
	listenAddress    string
	logger           zerolog.Logger
	trace            TraceFunc
}

func defaultOptions() *clientOptions {
	return &clientOptions{
		timeout:          DefaultTimeout,
		port:             vento.DefaultPort,
		broadcastAddress: vento.BroadcastAddress,
		listenAddress:    DefaultListenAddress,
		logger:           zerolog.Nop(),
	}
}

// Option configures a Client
type Option func(*clientOptions)

// WithTimeout sets the receive timeout. For discovery it is the quiescence
// window after the last reply; for Send it is the total wait.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithPort sets the device UDP port
func WithPort(port int) Option {
	return func(o *clientOptions) {
		if port > 0 && port <= 65535 {
			o.port = port
		}
	}
}

// WithBroadcastAddress sets the discovery destination
func WithBroadcastAddress(addr string) Option {
	return func(o *clientOptions) {
		if addr != "" {
			o.broadcastAddress = addr
		}
	}
}

// WithListenAddress sets the local host:port sockets bind to
func WithListenAddress(addr string) Option {
	return func(o *clientOptions) {
		if addr != "" {
			o.listenAddress = addr
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithTrace installs a datagram observer
func WithTrace(fn TraceFunc) Option {
	return func(o *clientOptions) {
		o.trace = fn
	}
}
