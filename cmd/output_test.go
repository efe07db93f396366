// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ventolink/ventoctl/pkg/vento"
	"github.com/ventolink/ventoctl/pkg/ventonet"
)

func withOutputFormat(t *testing.T, format string) {
	t.Helper()
	outputFormat = format
	t.Cleanup(func() { outputFormat = "text" })
}

func sampleStatus() vento.Status {
	return vento.Status{
		DeviceID:    "003E00285742570F",
		On:          true,
		Speed:       vento.SpeedManual,
		ManualSpeed: 180,
		Humidity:    45,
		FilterTime:  (2*24*60 + 3*60 + 4) * time.Minute,
		Has: map[vento.Parameter]bool{
			vento.ParamOnOff:           true,
			vento.ParamSpeed:           true,
			vento.ParamManualSpeed:     true,
			vento.ParamCurrentHumidity: true,
			vento.ParamFilterTimer:     true,
		},
	}
}

func TestStatusFields_Order(t *testing.T) {
	fields := statusFields(sampleStatus(), "192.168.1.50")

	var keys []string
	for _, f := range fields {
		keys = append(keys, f.key)
	}
	assert.Equal(t, []string{"device_id", "ip", "power", "speed", "manual_speed", "humidity", "filter_time"}, keys)
	assert.Equal(t, "MANUAL", fields[3].value)
	assert.Equal(t, "45%", fields[5].value)
	assert.Equal(t, "2d 3h 4m", fields[6].value)
}

func TestStatusFields_OnlyPresent(t *testing.T) {
	fields := statusFields(vento.Status{DeviceID: "UNIT_A"}, "")
	require.Len(t, fields, 1)
	assert.Equal(t, "device_id", fields[0].key)
}

func TestPrintStatus_Text(t *testing.T) {
	withOutputFormat(t, "text")
	var buf bytes.Buffer
	require.NoError(t, printStatus(&buf, sampleStatus(), ""))

	out := buf.String()
	assert.Contains(t, out, "  Device:        003E00285742570F\n")
	assert.Contains(t, out, "  Power:         ON\n")
	assert.Contains(t, out, "  Manual speed:  180\n")
}

func TestPrintStatus_YAML(t *testing.T) {
	withOutputFormat(t, "yaml")
	var buf bytes.Buffer
	require.NoError(t, printStatus(&buf, sampleStatus(), "192.168.1.50"))

	var got map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "003E00285742570F", got["device_id"])
	assert.Equal(t, "192.168.1.50", got["ip"])
	assert.Equal(t, "ON", got["power"])
	assert.Equal(t, "180", got["manual_speed"])
	assert.NotContains(t, got, "mode")
}

func TestPrintDevices(t *testing.T) {
	devices := []ventonet.DeviceAddress{
		{DeviceID: "UNIT_A", IP: "192.168.1.50"},
		{DeviceID: "UNIT_B", IP: "192.168.1.51"},
	}

	t.Run("text", func(t *testing.T) {
		withOutputFormat(t, "text")
		var buf bytes.Buffer
		require.NoError(t, printDevices(&buf, devices))
		assert.Contains(t, buf.String(), "  ID: UNIT_B\n  IP: 192.168.1.51\n")
		assert.Contains(t, buf.String(), "Devices found: 2\n")
	})

	t.Run("yaml", func(t *testing.T) {
		withOutputFormat(t, "yaml")
		var buf bytes.Buffer
		require.NoError(t, printDevices(&buf, devices))

		var got []ventonet.DeviceAddress
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, devices, got)
	})
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0d 0h 0m", formatDuration(0))
	assert.Equal(t, "0d 1h 30m", formatDuration(90*time.Minute))
	assert.Equal(t, "1d 0h 0m", formatDuration(24*time.Hour+30*time.Second))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "0 seconds"},
		{time.Second, "1 second"},
		{61 * time.Second, "1 minute and 1 second"},
		{2 * time.Hour, "2 hours"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1 day, 2 hours, 3 minutes, and 4 seconds"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatElapsed(tt.in), tt.in.String())
	}
}
