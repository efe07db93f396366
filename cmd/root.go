// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ventolink/ventoctl/internal/config"
	"github.com/ventolink/ventoctl/internal/logging"
	"github.com/ventolink/ventoctl/pkg/vento"
	"github.com/ventolink/ventoctl/pkg/ventonet"
)

var (
	// Config and transport flags
	configPath    string
	timeoutMS     int
	udpPort       int
	broadcastAddr string
	listenAddr    string

	// Bridge connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Output flags
	verbose      bool
	outputFormat string
	capturePath  string
	askPassword  bool
)

// Shared state set up by PersistentPreRunE
var (
	cfg       config.Config
	logger    zerolog.Logger
	traceFile *vento.CaptureWriter
	sessionID string
)

// ExitError carries a process exit code out of a command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitWith(code int, format string, args ...any) error {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

var rootCmd = &cobra.Command{
	Use:   "ventoctl",
	Short: "Vento ventilation unit controller",
	Long: `ventoctl - A CLI tool for discovering, controlling and monitoring Vento
ventilation units over their UDP protocol (port 4000).

Settings are read from a TOML config file (--config, $VENTOCTL_CONFIG or the
per-user config directory) and may be overridden by flags.

Device passwords come from the config file, the VENTO_PASSWORD environment
variable, or an interactive prompt with --ask-password. The factory password
is used when none is given. A --password flag is intentionally not provided
to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()

	// Config and transport flags
	flags.StringVarP(&configPath, "config", "c", "", "Config file (TOML)")
	flags.IntVarP(&timeoutMS, "timeout", "t", 0, "Receive timeout in milliseconds (default from config, 1000)")
	flags.IntVarP(&udpPort, "port", "p", 0, "Device UDP port (default from config, 4000)")
	flags.StringVar(&broadcastAddr, "broadcast", "", "Discovery broadcast address")
	flags.StringVar(&listenAddr, "listen", "", "Local address to bind (host:port)")

	// Bridge connection flags
	flags.StringVarP(&wsURL, "url", "u", "", "Reach units through a ventoctl bridge (ws:// or wss://)")
	flags.StringVar(&wsUsername, "username", "", "Username for bridge HTTP Basic auth")
	flags.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Output flags
	flags.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	flags.StringVarP(&outputFormat, "output", "o", "text", "Output format: text or yaml")
	flags.StringVar(&capturePath, "capture", "", "Append every datagram sent or received to a CBOR capture file")
	flags.BoolVar(&askPassword, "ask-password", false, "Prompt for the device password")
}

// setup initialises logging, loads config and applies flag overrides
func setup(cmd *cobra.Command, args []string) error {
	logger = logging.Init(logging.Options{Verbose: verbose})

	switch outputFormat {
	case "text", "yaml":
	default:
		return fmt.Errorf("unsupported output format %q (text, yaml)", outputFormat)
	}

	loaded, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	if timeoutMS != 0 {
		loaded.Timeout = time.Duration(timeoutMS) * time.Millisecond
	}
	if udpPort != 0 {
		loaded.Port = udpPort
	}
	if broadcastAddr != "" {
		loaded.BroadcastAddress = broadcastAddr
	}
	if listenAddr != "" {
		loaded.ListenAddress = listenAddr
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	sessionID = uuid.NewString()
	if capturePath != "" {
		w, err := vento.CreateCaptureFile(capturePath)
		if err != nil {
			return err
		}
		traceFile = w
	}

	logger.Debug().
		Str("config", cfg.Path).
		Dur("timeout", cfg.Timeout).
		Int("port", cfg.Port).
		Str("session", sessionID).
		Msg("configured")
	return nil
}

// newClient builds a transport client from the resolved config. traces are
// called after the --capture writer for every datagram.
func newClient(traces ...ventonet.TraceFunc) *ventonet.Client {
	opts := cfg.ClientOptions()
	opts = append(opts, ventonet.WithLogger(logger))
	if traceFile != nil {
		traces = append([]ventonet.TraceFunc{captureTrace(traceFile, sessionID)}, traces...)
	}
	switch len(traces) {
	case 0:
	case 1:
		opts = append(opts, ventonet.WithTrace(traces[0]))
	default:
		opts = append(opts, ventonet.WithTrace(func(dir vento.Direction, peer *net.UDPAddr, data []byte) {
			for _, fn := range traces {
				fn(dir, peer, data)
			}
		}))
	}
	return ventonet.New(opts...)
}

// captureTrace returns a trace hook that appends each datagram to w
func captureTrace(w *vento.CaptureWriter, session string) ventonet.TraceFunc {
	return func(dir vento.Direction, peer *net.UDPAddr, data []byte) {
		rec := vento.CaptureRecord{
			Time:      time.Now(),
			Direction: dir,
			Data:      append([]byte(nil), data...),
			Session:   session,
		}
		if peer != nil {
			rec.Peer = peer.String()
		}
		if err := w.Write(rec); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Warn().Err(err).Msg("capture write failed")
		}
	}
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if traceFile != nil {
		if cerr := traceFile.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
