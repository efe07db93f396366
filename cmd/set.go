// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ventolink/ventoctl/pkg/vento"
)

var (
	setPower       string
	setSpeed       string
	setManualSpeed int
	setMode        string
)

var setCmd = &cobra.Command{
	Use:   "set <device>",
	Short: "Change power, speed or mode of a unit",
	Long: `Write one or more controls to a unit and print the state it reports back.

All given controls are sent in a single WRITEREAD packet.

Examples:
  ventoctl set kitchen --power on --speed high
  ventoctl set 003E00285742570F --manual-speed 180
  ventoctl set kitchen --mode twoway`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
	addDeviceFlags(setCmd)
	setCmd.Flags().StringVar(&setPower, "power", "", "on or off")
	setCmd.Flags().StringVar(&setSpeed, "speed", "", "off, low, medium, high or manual")
	setCmd.Flags().IntVar(&setManualSpeed, "manual-speed", -1, "Manual speed level 0-255 (selects manual speed)")
	setCmd.Flags().StringVar(&setMode, "mode", "", "oneway, twoway or in")
}

// setEntries builds the WRITEREAD entries from the set flags
func setEntries() ([]vento.DataEntry, error) {
	var entries []vento.DataEntry

	if setPower != "" {
		switch strings.ToLower(setPower) {
		case "on":
			entries = append(entries, vento.EntryValue(vento.ParamOnOff, 1))
		case "off":
			entries = append(entries, vento.EntryValue(vento.ParamOnOff, 0))
		default:
			return nil, fmt.Errorf("invalid --power %q (on, off)", setPower)
		}
	}

	if setManualSpeed >= 0 {
		if setManualSpeed > 255 {
			return nil, fmt.Errorf("invalid --manual-speed %d (0-255)", setManualSpeed)
		}
		if setSpeed != "" && !strings.EqualFold(setSpeed, vento.SpeedManual.String()) {
			return nil, fmt.Errorf("--manual-speed conflicts with --speed %s", setSpeed)
		}
		entries = append(entries,
			vento.EntryValue(vento.ParamSpeed, uint8(vento.SpeedManual)),
			vento.EntryValue(vento.ParamManualSpeed, uint8(setManualSpeed)),
		)
	} else if setSpeed != "" {
		speed, err := vento.ParseSpeed(setSpeed)
		if err != nil {
			return nil, err
		}
		entries = append(entries, vento.EntryValue(vento.ParamSpeed, uint8(speed)))
	}

	if setMode != "" {
		mode, err := vento.ParseMode(setMode)
		if err != nil {
			return nil, err
		}
		entries = append(entries, vento.EntryValue(vento.ParamVentilationMode, uint8(mode)))
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("nothing to set (use --power, --speed, --manual-speed or --mode)")
	}
	return entries, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	entries, err := setEntries()
	if err != nil {
		return err
	}
	t, err := resolveTarget(args[0])
	if err != nil {
		return err
	}
	link, err := openLink(cmd.Context(), &t)
	if err != nil {
		return err
	}
	defer link.Close()

	logger.Debug().Str("link", link.String()).Str("device", t.ID).Int("entries", len(entries)).Msg("writing controls")
	reply, err := link.Exchange(cmd.Context(), vento.NewWriteRead(t.ID, t.Password, entries...))
	if err != nil {
		return exchangeError(t, err)
	}
	return printStatus(cmd.OutOrStdout(), vento.StatusFromPacket(reply), t.IP)
}
