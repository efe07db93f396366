// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ventolink/ventoctl/pkg/vento"
)

var (
	pingCount    int
	pingInterval int
)

var pingCmd = &cobra.Command{
	Use:   "ping <device>",
	Short: "Check that a unit answers",
	Long: `Send READ UNIT_TYPE requests to a unit and wait for each RESPONSE.

With --url the requests go through a ventoctl bridge, which tests the
WebSocket connection, HTTP Basic authentication and the bridge's UDP side
along the way.

Exit codes:
  0 - All pings answered
  1 - One or more pings timed out
  2 - Connection or socket error`,
	Args: cobra.ExactArgs(1),
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	addDeviceFlags(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().IntVar(&pingInterval, "interval", 100, "Delay between pings in milliseconds")
}

func runPing(cmd *cobra.Command, args []string) error {
	if pingCount < 1 {
		return fmt.Errorf("invalid --count %d", pingCount)
	}
	t, err := resolveTarget(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	link, err := openLink(ctx, &t)
	if err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("connection error: %w", err)}
	}
	defer link.Close()

	fmt.Fprintf(out, "ventoctl - Ping\n")
	fmt.Fprintf(out, "Device: %s\n", t)
	fmt.Fprintf(out, "Connection: %s\n", link)
	fmt.Fprintf(out, "Timeout: %s per ping\n\n", cfg.Timeout)

	successCount := 0
	failCount := 0
	for i := 1; i <= pingCount; i++ {
		fmt.Fprintf(out, "Ping %d/%d: ", i, pingCount)

		start := time.Now()
		reply, err := link.Exchange(ctx, vento.NewReadRequest(t.ID, t.Password, vento.ParamUnitType))
		switch {
		case err == nil:
			status := vento.StatusFromPacket(reply)
			fmt.Fprintf(out, "RESPONSE from %s, unit type=%d, rtt=%v\n",
				reply.DeviceID(), status.UnitType, time.Since(start).Round(time.Millisecond))
			successCount++
		case errors.Is(err, errTimeout):
			fmt.Fprintf(out, "TIMEOUT (no response in %s)\n", cfg.Timeout)
			failCount++
		default:
			fmt.Fprintf(out, "FAILED: %v\n", err)
			return &ExitError{Code: 2, Err: err}
		}

		if i < pingCount {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(pingInterval) * time.Millisecond):
			}
		}
	}

	fmt.Fprintf(out, "\n--- Ping statistics ---\n")
	fmt.Fprintf(out, "%d pings sent, %d responses received, %.0f%% packet loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		return &ExitError{Code: 1}
	}
	return nil
}
