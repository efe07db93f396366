// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ventolink/ventoctl/pkg/vento"
	"github.com/ventolink/ventoctl/pkg/ventonet"
)

var captureQuiet bool

var captureCmd = &cobra.Command{
	Use:   "capture <file>",
	Short: "Record datagrams to a capture file",
	Long: `Bind the device port and append every received datagram to a CBOR
capture file, decodable or not. Records are appended, so one file can hold
several sessions; each run is tagged with its own session id.

Replay a capture with 'ventoctl replay <file>'.`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Decode and print a capture file",
	Long: `Read a CBOR capture file written by 'capture' or --capture and print
each datagram in the monitor format. Undecodable datagrams are reported with
their decode error.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var replaySession string

func init() {
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(replayCmd)
	captureCmd.Flags().BoolVarP(&captureQuiet, "quiet", "q", false, "Do not print a line per datagram")
	replayCmd.Flags().StringVar(&replaySession, "session", "", "Only replay records from this session id")
}

func runCapture(cmd *cobra.Command, args []string) error {
	w, err := vento.CreateCaptureFile(args[0])
	if err != nil {
		return err
	}
	defer w.Close()

	client := newClient()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "ventoctl - Capture\n")
	fmt.Fprintf(out, "Listening: %s\n", client.MonitorAddress())
	fmt.Fprintf(out, "File: %s\n", args[0])
	fmt.Fprintf(out, "Session: %s\n", sessionID)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	count := 0
	var writeErr error
	err = client.Monitor(cmd.Context(), func(d ventonet.Datagram) {
		if writeErr != nil {
			return
		}
		writeErr = w.Write(vento.CaptureRecord{
			Time:      d.Time,
			Direction: vento.DirectionIn,
			Peer:      d.From.String(),
			Data:      d.Data,
			Session:   sessionID,
		})
		count++
		if !captureQuiet {
			printCaptureLine(out, d)
		}
	})
	if err == nil {
		err = writeErr
	}

	fmt.Fprintf(out, "\n--- Capture summary ---\n")
	fmt.Fprintf(out, "Datagrams recorded: %d\n", count)
	if err != nil {
		return err
	}
	return w.Close()
}

func printCaptureLine(w io.Writer, d ventonet.Datagram) {
	timestamp := d.Time.Format("15:04:05.000")
	if d.Err != nil {
		fmt.Fprintf(w, "[%s] %s %d bytes (%v)\n", timestamp, d.From, len(d.Data), d.Err)
		return
	}
	fmt.Fprintf(w, "[%s] %s %d bytes %s id=%s\n",
		timestamp, d.From, len(d.Data), vento.FormatFunctionType(d.Packet.FunctionType()), d.Packet.DeviceID())
}

func runReplay(cmd *cobra.Command, args []string) error {
	r, err := vento.OpenCaptureFile(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	n, err := replayRecords(cmd.OutOrStdout(), r, replaySession)
	if err != nil {
		return err
	}
	logger.Debug().Int("records", n).Str("file", args[0]).Msg("replay finished")
	return nil
}

// replayRecords prints every record from r, optionally filtered by session.
// Returns the number of records printed.
func replayRecords(w io.Writer, r *vento.CaptureReader, session string) (int, error) {
	stats := vento.NewStatistics()
	printed := 0
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return printed, err
		}
		if session != "" && rec.Session != session {
			continue
		}
		printed++

		p, decodeErr := rec.Decode()
		var validationErrors []vento.ValidationError
		if decodeErr == nil {
			validationErrors = vento.ValidatePacket(p)
		}
		stats.Update(p, decodeErr, validationErrors)

		fmt.Fprintf(w, "%s %s %s\n", rec.Direction, rec.Peer, rec.Session)
		if decodeErr != nil {
			fmt.Fprintf(w, "[%s] DECODE ERROR: %v (%d bytes)\n\n", rec.Time.Format("15:04:05.000"), decodeErr, len(rec.Data))
			continue
		}
		fmt.Fprint(w, vento.FormatPacketAt(p, rec.Time))
		for _, v := range validationErrors {
			fmt.Fprintf(w, "  ! %s\n", v.Message)
		}
		fmt.Fprintln(w)
	}

	if printed > 0 {
		fmt.Fprint(w, stats.String())
	}
	return printed, nil
}
