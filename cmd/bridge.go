// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ventolink/ventoctl/pkg/vento"
	"github.com/ventolink/ventoctl/pkg/ventonet"
)

var (
	bridgeAddr     string
	bridgeUsername string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve a WebSocket gateway to units on this network",
	Long: `Run an HTTP server that relays protocol packets between WebSocket clients
and units on the local network.

Clients connect to /ws, optionally with ?ip=<unit address>. Each binary
message must be one encoded request packet; the bridge sends it to the unit
(or the broadcast address when no ip is given) and answers with the raw
RESPONSE datagram as a binary message. A unit that stays silent produces a
"timeout" text message, other failures an "error: ..." text message.

With --auth-user, clients must present HTTP Basic credentials. The password
is read from the VENTOCTL_BRIDGE_PASSWORD environment variable, or prompted
interactively if not set.

Other ventoctl commands use a bridge with --url ws://host:port/ws.`,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().StringVar(&bridgeAddr, "addr", ":8040", "HTTP listen address")
	bridgeCmd.Flags().StringVar(&bridgeUsername, "auth-user", "", "Require HTTP Basic auth with this username")
}

// bridgeServer relays WebSocket binary messages to units over UDP
type bridgeServer struct {
	client   *ventonet.Client
	username string
	password string
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func newBridgeServer(client *ventonet.Client, username, password string, log zerolog.Logger) *bridgeServer {
	return &bridgeServer{
		client:   client,
		username: username,
		password: password,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  vento.MaxPacketSize,
			WriteBufferSize: vento.MaxPacketSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log.With().Str("component", "bridge").Logger(),
	}
}

// Handler returns the bridge HTTP routes
func (b *bridgeServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleWS)
	return mux
}

func (b *bridgeServer) authorized(r *http.Request) bool {
	if b.username == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(b.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(b.password)) == 1
	return userOK && passOK
}

func (b *bridgeServer) handleWS(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="ventoctl"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ip := r.URL.Query().Get("ip")
	if ip != "" && net.ParseIP(ip) == nil {
		http.Error(w, fmt.Sprintf("invalid ip %q", ip), http.StatusBadRequest)
		return
	}

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	log := b.logger.With().
		Str("session", uuid.NewString()).
		Str("remote", r.RemoteAddr).
		Str("ip", ip).
		Logger()
	log.Info().Msg("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	relayed := 0
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("read failed")
			}
			log.Info().Int("relayed", relayed).Msg("client disconnected")
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}

		reply, text := b.relay(ctx, log, data, ip)
		if reply != nil {
			err = conn.WriteMessage(websocket.BinaryMessage, reply)
			relayed++
		} else {
			err = conn.WriteMessage(websocket.TextMessage, []byte(text))
		}
		if err != nil {
			log.Warn().Err(err).Msg("write failed")
			return
		}
	}
}

// relay forwards one request. It returns the reply datagram, or a text
// frame describing why there is none.
func (b *bridgeServer) relay(ctx context.Context, log zerolog.Logger, data []byte, ip string) ([]byte, string) {
	p, err := vento.Decode(data)
	if err != nil {
		log.Debug().Err(err).Int("bytes", len(data)).Msg("rejecting undecodable message")
		return nil, fmt.Sprintf("error: %v", err)
	}
	if p.IsResponse() {
		return nil, "error: only requests can be relayed"
	}

	resp, err := b.client.Send(ctx, p, ip)
	if err != nil {
		log.Warn().Err(err).Str("device", p.DeviceID()).Msg("send failed")
		return nil, fmt.Sprintf("error: %v", err)
	}
	if resp == nil {
		log.Debug().Str("device", p.DeviceID()).Msg("no response")
		return nil, bridgeTimeoutMessage
	}
	log.Debug().
		Str("device", p.DeviceID()).
		Str("function", p.FunctionType().String()).
		Str("from", resp.From.String()).
		Msg("relayed")
	return resp.Data, ""
}

func runBridge(cmd *cobra.Command, args []string) error {
	password := ""
	if bridgeUsername != "" {
		var err error
		password, err = GetPassword(EnvBridgePassword, "Bridge password: ")
		if err != nil {
			return err
		}
		if password == "" {
			return fmt.Errorf("bridge password must not be empty")
		}
	}

	bridge := newBridgeServer(newClient(), bridgeUsername, password, logger)
	srv := &http.Server{
		Addr:              bridgeAddr,
		Handler:           bridge.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info().Str("addr", bridgeAddr).Bool("auth", bridgeUsername != "").Msg("bridge listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("bridge: %w", err)
	case <-cmd.Context().Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logger.Info().Msg("bridge stopped")
	return nil
}
