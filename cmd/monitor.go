// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ventolink/ventoctl/pkg/vento"
	"github.com/ventolink/ventoctl/pkg/ventonet"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch protocol traffic and detect malformed packets",
	Long: `Bind the device port and decode every datagram that arrives.

This command validates each packet and detects:
  - Framing failures (bad header, protocol type, checksum, truncation)
  - Unknown parameters without a size override
  - Anomalous values (RPM > 5000, humidity > 100%, unknown speed or mode)
  - Statistics and trends (packet rate, error rate, success rate)

Units answer the address a request came from, so monitor sees replies to
broadcasts and requests sent from the device port. By default only errors
are displayed. Use --show-all to display valid packets too.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all packets (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", false, "Use terminal UI")
}

// observation is a received datagram with its validation result
type observation struct {
	ventonet.Datagram
	validationErrors []vento.ValidationError
}

func observe(d ventonet.Datagram) observation {
	obs := observation{Datagram: d}
	if d.Err == nil {
		obs.validationErrors = vento.ValidatePacket(d.Packet)
	}
	return obs
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if statsInterval < 1 {
		return fmt.Errorf("invalid --stats-interval %d", statsInterval)
	}
	client := newClient()
	if useTUI {
		return runTUIMode(cmd.Context(), client)
	}
	return runTextMode(cmd.Context(), cmd.OutOrStdout(), client)
}

// runTUIMode runs the monitor in a bubbletea program
func runTUIMode(ctx context.Context, client *ventonet.Client) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := initialModel(client.MonitorAddress(), showAll)
	p := tea.NewProgram(m, tea.WithContext(ctx))

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Monitor(ctx, func(d ventonet.Datagram) {
			p.Send(datagramMsg(observe(d)))
		})
	}()

	// Bind failures end the program before the user sees an empty screen
	go func() {
		if err := <-errCh; err != nil {
			p.Send(monitorErrMsg{err: err})
		}
	}()

	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if fm, ok := final.(model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

// runTextMode prints errors and periodic statistics
func runTextMode(ctx context.Context, out io.Writer, client *ventonet.Client) error {
	fmt.Fprintf(out, "ventoctl - Monitor\n")
	fmt.Fprintf(out, "Listening: %s\n", client.MonitorAddress())
	fmt.Fprintf(out, "Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Fprintf(out, "Mode: All packets\n")
	} else {
		fmt.Fprintf(out, "Mode: Errors only\n")
	}
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	stats := vento.NewStatistics()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	datagrams := make(chan observation, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Monitor(ctx, func(d ventonet.Datagram) {
			select {
			case datagrams <- observe(d):
			case <-ctx.Done():
			}
		})
	}()

	for {
		select {
		case obs := <-datagrams:
			stats.Update(obs.Packet, obs.Err, obs.validationErrors)
			printObservation(out, obs, showAll)

		case <-statsTicker.C:
			fmt.Fprintln(out)
			fmt.Fprint(out, stats.String())
			fmt.Fprintln(out)

		case err := <-errCh:
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, stats.String())
			return nil
		}
	}
}

// printObservation prints a datagram according to the display mode
func printObservation(w io.Writer, obs observation, all bool) {
	timestamp := obs.Time.Format("15:04:05.000")
	switch {
	case obs.Err != nil:
		fmt.Fprintf(w, "[%s] \033[1;31mDECODE ERROR:\033[0m %v (from %s, %d bytes)\n", timestamp, obs.Err, obs.From, len(obs.Data))
		fmt.Fprintf(w, "  >>> DECODE FAILED <<<\n\n")

	case len(obs.validationErrors) > 0:
		fn := vento.FormatFunctionType(obs.Packet.FunctionType())
		fmt.Fprintf(w, "[%s] \033[1;33mVALIDATION ERROR:\033[0m %s (0x%02X) id=%s from %s\n",
			timestamp, fn, uint8(obs.Packet.FunctionType()), obs.Packet.DeviceID(), obs.From)
		fmt.Fprintf(w, "  Checksum: \033[1;32mOK\033[0m\n")
		for i, err := range obs.validationErrors {
			fmt.Fprintf(w, "  Issue %d: %s\n", i+1, err.Message)
		}
		fmt.Fprintf(w, "  >>> PACKET REJECTED <<<\n\n")

	case all:
		fmt.Fprint(w, vento.FormatPacketAt(obs.Packet, obs.Time))
	}
}
