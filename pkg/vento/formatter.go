// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import (
	"fmt"
	"strings"
	"time"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	return FormatPacketAt(p, time.Now())
}

// FormatPacketAt formats a packet with the given receive timestamp
func FormatPacketAt(p *Packet, ts time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s (0x%02X) id=%s entries=%d\n",
		ts.Format("15:04:05.000"), FormatFunctionType(p.functionType), uint8(p.functionType), p.deviceID, len(p.entries))

	if len(p.entries) == 0 {
		b.WriteString("  (no entries)\n")
		return b.String()
	}
	for _, e := range p.entries {
		b.WriteString(FormatEntry(e))
	}
	return b.String()
}

// FormatFunctionType returns the human-readable name for a function type
func FormatFunctionType(f FunctionType) string {
	switch f {
	case FuncRead:
		return "READ"
	case FuncWrite:
		return "WRITE"
	case FuncWriteRead:
		return "WRITEREAD"
	case FuncIncRead:
		return "INCREAD"
	case FuncDecRead:
		return "DECREAD"
	case FuncResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// FormatEntry formats a single data entry, decoding well-known values
func FormatEntry(e DataEntry) string {
	name := fmt.Sprintf("%s (0x%02X)", e.Parameter, uint8(e.Parameter))
	if e.Value == nil {
		return fmt.Sprintf("  %s\n", name)
	}
	if value := formatValue(e); value != "" {
		return fmt.Sprintf("  %s: %s\n", name, value)
	}
	return fmt.Sprintf("  %s: %s\n", name, formatHex(e.Value))
}

func formatValue(e DataEntry) string {
	s := Status{Has: map[Parameter]bool{}}
	if !s.apply(e) {
		return ""
	}
	switch e.Parameter {
	case ParamOnOff:
		return formatBool(s.On, "ON", "OFF")
	case ParamSpeed:
		return fmt.Sprintf("%s (%d)", s.Speed, uint8(s.Speed))
	case ParamManualSpeed:
		return fmt.Sprintf("%d", s.ManualSpeed)
	case ParamVentilationMode:
		return fmt.Sprintf("%s (%d)", s.Mode, uint8(s.Mode))
	case ParamFan1RPM:
		return fmt.Sprintf("%d RPM", s.Fan1RPM)
	case ParamFan2RPM:
		return fmt.Sprintf("%d RPM", s.Fan2RPM)
	case ParamCurrentHumidity:
		return fmt.Sprintf("%d%%", s.Humidity)
	case ParamFilterAlarm:
		return formatBool(s.FilterAlarm, "ALARM", "OK")
	case ParamFilterTimer:
		return formatMinutes(s.FilterTime)
	case ParamFirmwareVersion:
		return fmt.Sprintf("%s (%s)", s.FirmwareVersion, s.FirmwareDate.Format("2006-01-02"))
	case ParamUnitType:
		return fmt.Sprintf("%d", s.UnitType)
	case ParamCurrentIPAddress, ParamIPAddress:
		return s.IPAddress
	}
	return ""
}

func formatBool(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

// formatMinutes renders a duration as days, hours and minutes
func formatMinutes(d time.Duration) string {
	total := int(d / time.Minute)
	days := total / (24 * 60)
	hours := (total / 60) % 24
	minutes := total % 60
	return fmt.Sprintf("%dd %02dh %02dm", days, hours, minutes)
}

func formatHex(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for i, c := range data {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n           ")
		} else if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", c)
	}
	return b.String()
}
