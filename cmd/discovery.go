// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ventolink/ventoctl/pkg/ventonet"
)

var discoveryDedupe bool

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Discover units on the local network",
	Long: `Broadcast a SEARCH request and list every unit that answers.

Replies are collected until no new reply has arrived for one timeout period
(--timeout), so a busy network extends the search. A unit that answers more
than once is listed once per reply unless --dedupe is given.

Examples:
  # Search the default broadcast address
  ventoctl discovery

  # Search a directed broadcast with a longer quiet window
  ventoctl discovery --broadcast 192.168.1.255 --timeout 3000 --dedupe

Exit codes:
  0 - At least one unit answered
  1 - No units answered
  2 - Socket error`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().BoolVar(&discoveryDedupe, "dedupe", false, "List each unit once (last reply wins)")
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	client := newClient()
	out := cmd.OutOrStdout()

	if outputFormat == "text" {
		fmt.Fprintf(out, "ventoctl - Device Discovery\n")
		fmt.Fprintf(out, "Broadcast: %s:%d\n", cfg.BroadcastAddress, cfg.Port)
		fmt.Fprintf(out, "Timeout: %s\n\n", cfg.Timeout)
	}

	devices, err := client.FindDevices(cmd.Context())
	if err != nil && !errors.Is(err, ventonet.ErrCancelled) {
		return &ExitError{Code: 2, Err: err}
	}
	if discoveryDedupe {
		devices = ventonet.Dedupe(devices)
	}

	if perr := printDevices(out, devices); perr != nil {
		return perr
	}
	if err != nil {
		return nil
	}
	if len(devices) == 0 {
		fmt.Fprintln(os.Stderr, "No units discovered. Check the broadcast address and unit power.")
		return &ExitError{Code: 1}
	}
	return nil
}

// printDevices writes discovery results in the selected output format
func printDevices(w io.Writer, devices []ventonet.DeviceAddress) error {
	if outputFormat == "yaml" {
		return writeYAML(w, devices)
	}

	for _, d := range devices {
		fmt.Fprintf(w, "Device found:\n")
		fmt.Fprintf(w, "  ID: %s\n", d.DeviceID)
		fmt.Fprintf(w, "  IP: %s\n", d.IP)
	}
	fmt.Fprintf(w, "\n--- Discovery summary ---\n")
	fmt.Fprintf(w, "Devices found: %d\n", len(devices))
	return nil
}
