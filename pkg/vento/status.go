// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Speed represents the preset speed selection
type Speed uint8

// Speed values
const (
	SpeedOff    Speed = 0
	SpeedLow    Speed = 1
	SpeedMedium Speed = 2
	SpeedHigh   Speed = 3
	SpeedManual Speed = 255
)

// String returns the speed name
func (s Speed) String() string {
	switch s {
	case SpeedOff:
		return "OFF"
	case SpeedLow:
		return "LOW"
	case SpeedMedium:
		return "MEDIUM"
	case SpeedHigh:
		return "HIGH"
	case SpeedManual:
		return "MANUAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSpeed parses a speed name (case-insensitive)
func ParseSpeed(s string) (Speed, error) {
	for _, v := range []Speed{SpeedOff, SpeedLow, SpeedMedium, SpeedHigh, SpeedManual} {
		if strings.EqualFold(s, v.String()) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown speed %q (off, low, medium, high, manual)", s)
}

// Mode represents the ventilation direction. ModeOneWay is fixed by the
// unit's dip switch.
type Mode uint8

// Mode values
const (
	ModeOneWay Mode = 0
	ModeTwoWay Mode = 1
	ModeIn     Mode = 2
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeOneWay:
		return "ONEWAY"
	case ModeTwoWay:
		return "TWOWAY"
	case ModeIn:
		return "IN"
	default:
		return "UNKNOWN"
	}
}

// ParseMode parses a mode name (case-insensitive)
func ParseMode(s string) (Mode, error) {
	for _, v := range []Mode{ModeOneWay, ModeTwoWay, ModeIn} {
		if strings.EqualFold(s, v.String()) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q (oneway, twoway, in)", s)
}

// Status is the device state reported in a response packet. Fields for
// parameters absent from the packet keep their zero value; Has records which
// parameters were present.
type Status struct {
	DeviceID        string
	On              bool
	Speed           Speed
	ManualSpeed     uint8
	Mode            Mode
	Fan1RPM         uint16
	Fan2RPM         uint16
	Humidity        uint8
	FilterAlarm     bool
	FilterTime      time.Duration
	FirmwareVersion string
	FirmwareDate    time.Time
	UnitType        uint16
	IPAddress       string

	Has map[Parameter]bool
}

// StatusFromPacket extracts device state from a packet's entries.
// Entries with a value shorter than the field needs are skipped.
func StatusFromPacket(p *Packet) Status {
	s := Status{
		DeviceID: p.DeviceID(),
		Has:      make(map[Parameter]bool),
	}
	for _, e := range p.entries {
		if s.apply(e) {
			s.Has[e.Parameter] = true
		}
	}
	return s
}

func (s *Status) apply(e DataEntry) bool {
	v := e.Value
	switch e.Parameter {
	case ParamOnOff:
		if len(v) < 1 {
			return false
		}
		s.On = v[0] == 1
	case ParamSpeed:
		if len(v) < 1 {
			return false
		}
		s.Speed = Speed(v[0])
	case ParamManualSpeed:
		if len(v) < 1 {
			return false
		}
		s.ManualSpeed = v[0]
	case ParamVentilationMode:
		if len(v) < 1 {
			return false
		}
		s.Mode = Mode(v[0])
	case ParamFan1RPM:
		if len(v) < 2 {
			return false
		}
		s.Fan1RPM = uint16(v[0]) | uint16(v[1])<<8
	case ParamFan2RPM:
		if len(v) < 2 {
			return false
		}
		s.Fan2RPM = uint16(v[0]) | uint16(v[1])<<8
	case ParamCurrentHumidity:
		if len(v) < 1 {
			return false
		}
		s.Humidity = v[0]
	case ParamFilterAlarm:
		if len(v) < 1 {
			return false
		}
		s.FilterAlarm = v[0] == 1
	case ParamFilterTimer:
		// minutes, hours, days
		if len(v) < 3 {
			return false
		}
		minutes := int(v[0]) + (int(v[2])*24+int(v[1]))*60
		s.FilterTime = time.Duration(minutes) * time.Minute
	case ParamFirmwareVersion:
		// major, minor, day, month, year (2 bytes)
		if len(v) < 6 {
			return false
		}
		s.FirmwareVersion = fmt.Sprintf("%d.%d", v[0], v[1])
		year := int(v[4]) | int(v[5])<<8
		s.FirmwareDate = time.Date(year, time.Month(v[3]), int(v[2]), 0, 0, 0, 0, time.UTC)
	case ParamUnitType:
		if len(v) < 1 {
			return false
		}
		s.UnitType = uint16(v[0])
		if len(v) > 1 {
			s.UnitType |= uint16(v[1]) << 8
		}
	case ParamCurrentIPAddress, ParamIPAddress:
		if len(v) < 4 {
			return false
		}
		s.IPAddress = net.IPv4(v[0], v[1], v[2], v[3]).String()
	default:
		return false
	}
	return true
}

// Merge copies the fields present in other into s
func (s *Status) Merge(other Status) {
	if s.Has == nil {
		s.Has = make(map[Parameter]bool)
	}
	if other.DeviceID != "" {
		s.DeviceID = other.DeviceID
	}
	for param := range other.Has {
		switch param {
		case ParamOnOff:
			s.On = other.On
		case ParamSpeed:
			s.Speed = other.Speed
		case ParamManualSpeed:
			s.ManualSpeed = other.ManualSpeed
		case ParamVentilationMode:
			s.Mode = other.Mode
		case ParamFan1RPM:
			s.Fan1RPM = other.Fan1RPM
		case ParamFan2RPM:
			s.Fan2RPM = other.Fan2RPM
		case ParamCurrentHumidity:
			s.Humidity = other.Humidity
		case ParamFilterAlarm:
			s.FilterAlarm = other.FilterAlarm
		case ParamFilterTimer:
			s.FilterTime = other.FilterTime
		case ParamFirmwareVersion:
			s.FirmwareVersion = other.FirmwareVersion
			s.FirmwareDate = other.FirmwareDate
		case ParamUnitType:
			s.UnitType = other.UnitType
		case ParamCurrentIPAddress, ParamIPAddress:
			s.IPAddress = other.IPAddress
		default:
			continue
		}
		s.Has[param] = true
	}
}

// Packet builds a WRITEREAD packet that applies the controllable fields
// (speed, mode, manual speed, power) to a unit.
func (s Status) Packet(deviceID, password string) *Packet {
	var on uint8
	if s.On {
		on = 1
	}
	return NewWriteRead(deviceID, password,
		EntryValue(ParamSpeed, uint8(s.Speed)),
		EntryValue(ParamVentilationMode, uint8(s.Mode)),
		EntryValue(ParamManualSpeed, s.ManualSpeed),
		EntryValue(ParamOnOff, on),
	)
}
