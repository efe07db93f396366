// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ventolink/ventoctl/pkg/vento"
	"github.com/ventolink/ventoctl/pkg/ventonet"
)

// Password environment variables
const (
	EnvDevicePassword = "VENTO_PASSWORD"
	EnvBridgePassword = "VENTOCTL_BRIDGE_PASSWORD"
)

// bridgeSlack is added to the receive timeout on the bridge side of a link,
// so the bridge reports its own timeout before the websocket read expires
const bridgeSlack = 2 * time.Second

// bridgeTimeoutMessage is the text frame a bridge sends when a unit is silent
const bridgeTimeoutMessage = "timeout"

var (
	errTimeout    = errors.New("no response within timeout")
	errLinkClosed = errors.New("link closed")
)

// deviceIP is the --ip flag shared by commands that address one unit
var deviceIP string

func addDeviceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&deviceIP, "ip", "", "Device IP address (skips discovery)")
}

// target is a unit resolved from the command line and config
type target struct {
	ID       string
	Password string
	IP       string
	Name     string
}

func (t target) String() string {
	label := t.ID
	if t.Name != "" {
		label = fmt.Sprintf("%s (%s)", t.Name, t.ID)
	}
	if t.IP == "" {
		return label
	}
	return fmt.Sprintf("%s @ %s", label, t.IP)
}

// resolveTarget looks key up in the config, applies --ip and the password
// sources. The IP stays empty when neither --ip nor the config name one.
func resolveTarget(key string) (target, error) {
	t := target{ID: key}
	if dev, ok := cfg.Device(key); ok {
		t = target{ID: dev.ID, Password: dev.Password, IP: dev.IP, Name: dev.Name}
	}
	if deviceIP != "" {
		t.IP = deviceIP
	}

	password, err := devicePassword(t.Password)
	if err != nil {
		return target{}, err
	}
	t.Password = password
	return t, nil
}

// devicePassword picks the prompt, the configured password, $VENTO_PASSWORD
// or the factory default, in that order
func devicePassword(configured string) (string, error) {
	if askPassword {
		return promptPassword("Device password: ")
	}
	if configured != "" {
		return configured, nil
	}
	if pw := os.Getenv(EnvDevicePassword); pw != "" {
		return pw, nil
	}
	return vento.DefaultPassword, nil
}

// GetPassword retrieves a password from the environment or prompts the user
func GetPassword(envVar, prompt string) (string, error) {
	if pw := os.Getenv(envVar); pw != "" {
		return pw, nil
	}
	return promptPassword(prompt)
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// Link exchanges request packets with a unit and returns its RESPONSE.
// Exchange returns errTimeout when the unit stays silent.
type Link interface {
	Exchange(ctx context.Context, p *vento.Packet) (*vento.Packet, error)
	Close() error
	String() string
}

// udpLink talks to the unit directly
type udpLink struct {
	client *ventonet.Client
	ip     string
}

func (l *udpLink) Exchange(ctx context.Context, p *vento.Packet) (*vento.Packet, error) {
	resp, err := l.client.Send(ctx, p, l.ip)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errTimeout
	}
	return resp.Packet, nil
}

func (l *udpLink) Close() error {
	return nil
}

func (l *udpLink) String() string {
	if l.ip == "" {
		return fmt.Sprintf("UDP: broadcast %s", cfg.BroadcastAddress)
	}
	return fmt.Sprintf("UDP: %s", l.ip)
}

// wsLink relays packets through a ventoctl bridge. Each request is one
// binary message; the bridge answers with the raw reply or a text frame.
type wsLink struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	url     string
	timeout time.Duration
	closed  bool
}

func (l *wsLink) Exchange(ctx context.Context, p *vento.Packet) (*vento.Packet, error) {
	data, err := vento.Encode(p)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errLinkClosed
	}

	stop := context.AfterFunc(ctx, func() { l.conn.Close() })
	defer stop()

	if err := l.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return nil, l.fail(ctx, err)
	}
	if err := l.conn.SetReadDeadline(time.Now().Add(l.timeout + bridgeSlack)); err != nil {
		return nil, l.fail(ctx, err)
	}

	for {
		messageType, msg, err := l.conn.ReadMessage()
		if err != nil {
			return nil, l.fail(ctx, err)
		}

		switch messageType {
		case websocket.BinaryMessage:
			reply, err := vento.Decode(msg)
			if err != nil {
				logger.Debug().Err(err).Msg("discarding bridge message")
				continue
			}
			if !reply.IsResponse() {
				continue
			}
			return reply, nil
		case websocket.TextMessage:
			text := string(msg)
			if text == bridgeTimeoutMessage {
				return nil, errTimeout
			}
			return nil, fmt.Errorf("bridge: %s", text)
		}
	}
}

// fail marks the link unusable; gorilla connections do not recover from a
// failed read or write
func (l *wsLink) fail(ctx context.Context, err error) error {
	l.closed = true
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ventonet.ErrCancelled, ctx.Err())
	}
	return err
}

func (l *wsLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return l.conn.Close()
}

func (l *wsLink) String() string {
	return fmt.Sprintf("WebSocket: %s", l.url)
}

// bridgeURL adds the unit IP to the bridge URL. Without one the bridge
// broadcasts.
func bridgeURL(raw, ip string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}
	if ip != "" {
		q := u.Query()
		q.Set("ip", ip)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// OpenWebSocketLink dials a bridge with optional HTTP Basic auth
func OpenWebSocketLink(ctx context.Context, wsURL, username, password string, skipSSLVerify bool, timeout time.Duration) (Link, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(dialCtx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return &wsLink{conn: conn, url: wsURL, timeout: timeout}, nil
}

// openLink connects to t through the bridge when --url is set and directly
// otherwise. A direct link without an IP locates the unit first.
func openLink(ctx context.Context, t *target) (Link, error) {
	if wsURL != "" {
		u, err := bridgeURL(wsURL, t.IP)
		if err != nil {
			return nil, err
		}
		password := ""
		if wsUsername != "" {
			password, err = GetPassword(EnvBridgePassword, "Bridge password: ")
			if err != nil {
				return nil, err
			}
		}
		return OpenWebSocketLink(ctx, u, wsUsername, password, wsNoSSLVerify, cfg.Timeout)
	}

	client := newClient()
	if t.IP == "" {
		logger.Debug().Str("device", t.ID).Msg("locating unit")
		ip, err := client.Locate(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.IP = ip
	}
	return &udpLink{client: client, ip: t.IP}, nil
}
