// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ventolink/ventoctl/pkg/vento"
)

// statusField is one printable line of a device status
type statusField struct {
	key   string
	label string
	value string
}

// statusFields lists the fields present in s in a fixed order
func statusFields(s vento.Status, ip string) []statusField {
	fields := []statusField{{"device_id", "Device", s.DeviceID}}
	if ip != "" {
		fields = append(fields, statusField{"ip", "IP", ip})
	}

	add := func(present bool, key, label, value string) {
		if present {
			fields = append(fields, statusField{key, label, value})
		}
	}
	add(s.Has[vento.ParamOnOff], "power", "Power", onOff(s.On))
	add(s.Has[vento.ParamSpeed], "speed", "Speed", s.Speed.String())
	add(s.Has[vento.ParamManualSpeed], "manual_speed", "Manual speed", strconv.Itoa(int(s.ManualSpeed)))
	add(s.Has[vento.ParamVentilationMode], "mode", "Mode", s.Mode.String())
	add(s.Has[vento.ParamFan1RPM], "fan1_rpm", "Fan 1", fmt.Sprintf("%d RPM", s.Fan1RPM))
	add(s.Has[vento.ParamFan2RPM], "fan2_rpm", "Fan 2", fmt.Sprintf("%d RPM", s.Fan2RPM))
	add(s.Has[vento.ParamCurrentHumidity], "humidity", "Humidity", fmt.Sprintf("%d%%", s.Humidity))
	add(s.Has[vento.ParamFilterAlarm], "filter_alarm", "Filter alarm", onOff(s.FilterAlarm))
	add(s.Has[vento.ParamFilterTimer], "filter_time", "Filter time", formatDuration(s.FilterTime))
	add(s.Has[vento.ParamFirmwareVersion], "firmware", "Firmware",
		fmt.Sprintf("%s (%s)", s.FirmwareVersion, s.FirmwareDate.Format("2006-01-02")))
	add(s.Has[vento.ParamUnitType], "unit_type", "Unit type", strconv.Itoa(int(s.UnitType)))
	add(s.Has[vento.ParamCurrentIPAddress] || s.Has[vento.ParamIPAddress], "unit_ip", "Unit IP", s.IPAddress)
	return fields
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

// formatDuration renders whole minutes as "Xd Yh Zm"
func formatDuration(d time.Duration) string {
	total := int(d / time.Minute)
	days := total / (24 * 60)
	hours := (total / 60) % 24
	minutes := total % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

// printStatus writes a status in the selected output format
func printStatus(w io.Writer, s vento.Status, ip string) error {
	fields := statusFields(s, ip)
	if outputFormat == "yaml" {
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range fields {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: f.key},
				&yaml.Node{Kind: yaml.ScalarNode, Value: f.value},
			)
		}
		return writeYAML(w, node)
	}

	for _, f := range fields {
		fmt.Fprintf(w, "  %-14s %s\n", f.label+":", f.value)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
