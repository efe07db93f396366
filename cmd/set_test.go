// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventolink/ventoctl/pkg/vento"
)

// withSetFlags sets the set command flags for one test
func withSetFlags(t *testing.T, power, speed string, manual int, mode string) {
	t.Helper()
	setPower, setSpeed, setManualSpeed, setMode = power, speed, manual, mode
	t.Cleanup(func() {
		setPower, setSpeed, setManualSpeed, setMode = "", "", -1, ""
	})
}

func TestSetEntries(t *testing.T) {
	tests := []struct {
		name   string
		power  string
		speed  string
		manual int
		mode   string
		want   []vento.DataEntry
	}{
		{
			name:   "power on",
			power:  "on",
			manual: -1,
			want:   []vento.DataEntry{vento.EntryValue(vento.ParamOnOff, 1)},
		},
		{
			name:   "power off and speed",
			power:  "OFF",
			speed:  "high",
			manual: -1,
			want: []vento.DataEntry{
				vento.EntryValue(vento.ParamOnOff, 0),
				vento.EntryValue(vento.ParamSpeed, 3),
			},
		},
		{
			name:   "manual speed",
			manual: 180,
			want: []vento.DataEntry{
				vento.EntryValue(vento.ParamSpeed, 255),
				vento.EntryValue(vento.ParamManualSpeed, 180),
			},
		},
		{
			name:   "manual speed with explicit manual preset",
			speed:  "manual",
			manual: 0,
			want: []vento.DataEntry{
				vento.EntryValue(vento.ParamSpeed, 255),
				vento.EntryValue(vento.ParamManualSpeed, 0),
			},
		},
		{
			name:   "mode",
			manual: -1,
			mode:   "twoway",
			want:   []vento.DataEntry{vento.EntryValue(vento.ParamVentilationMode, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withSetFlags(t, tt.power, tt.speed, tt.manual, tt.mode)
			got, err := setEntries()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetEntries_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		power  string
		speed  string
		manual int
		mode   string
		errMsg string
	}{
		{name: "nothing", manual: -1, errMsg: "nothing to set"},
		{name: "bad power", power: "maybe", manual: -1, errMsg: "invalid --power"},
		{name: "bad speed", speed: "turbo", manual: -1, errMsg: "unknown speed"},
		{name: "manual out of range", manual: 256, errMsg: "0-255"},
		{name: "manual conflicts with preset", speed: "low", manual: 100, errMsg: "conflicts"},
		{name: "bad mode", mode: "sideways", manual: -1, errMsg: "unknown mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withSetFlags(t, tt.power, tt.speed, tt.manual, tt.mode)
			_, err := setEntries()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestExchangeError(t *testing.T) {
	tgt := target{ID: "UNIT_A", IP: "192.168.1.50"}

	err := exchangeError(tgt, errTimeout)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.ErrorIs(t, err, errTimeout)
	assert.Contains(t, err.Error(), "UNIT_A @ 192.168.1.50")

	other := errors.New("boom")
	assert.Equal(t, other, exchangeError(tgt, other))
}

func TestExitError(t *testing.T) {
	err := exitWith(2, "discovery failed: %w", errLinkClosed)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.ErrorIs(t, err, errLinkClosed)

	assert.Equal(t, "exit status 1", (&ExitError{Code: 1}).Error())
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "UNIT_A", target{ID: "UNIT_A"}.String())
	assert.Equal(t, "kitchen (UNIT_A)", target{ID: "UNIT_A", Name: "kitchen"}.String())
	assert.Equal(t, "kitchen (UNIT_A) @ 10.0.0.2", target{ID: "UNIT_A", Name: "kitchen", IP: "10.0.0.2"}.String())
}
