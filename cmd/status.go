// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ventolink/ventoctl/pkg/vento"
)

var statusRaw bool

var statusCmd = &cobra.Command{
	Use:   "status <device>",
	Short: "Read the current state of a unit",
	Long: `Read power, speed, mode, fan, humidity, filter and firmware state of a unit.

<device> is a unit id or a name from the config file. The unit is reached at
--ip, the IP from the config file, or located by discovery.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addDeviceFlags(statusCmd)
	statusCmd.Flags().BoolVar(&statusRaw, "raw", false, "Print every returned entry instead of the summary")
}

func runStatus(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(args[0])
	if err != nil {
		return err
	}
	link, err := openLink(cmd.Context(), &t)
	if err != nil {
		return err
	}
	defer link.Close()

	logger.Debug().Str("link", link.String()).Str("device", t.ID).Msg("reading status")
	reply, err := link.Exchange(cmd.Context(), vento.NewStatusRequest(t.ID, t.Password))
	if err != nil {
		return exchangeError(t, err)
	}

	if statusRaw {
		fmt.Fprint(cmd.OutOrStdout(), vento.FormatPacket(reply))
		return nil
	}
	return printStatus(cmd.OutOrStdout(), vento.StatusFromPacket(reply), t.IP)
}

// exchangeError maps a silent unit to exit code 1
func exchangeError(t target, err error) error {
	if errors.Is(err, errTimeout) {
		return &ExitError{Code: 1, Err: fmt.Errorf("%s: %w (wrong password or id?)", t, err)}
	}
	return err
}
