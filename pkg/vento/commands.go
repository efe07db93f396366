// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

// Command builder functions create Packet structs ready for encoding.
// Write commands use WRITEREAD so the unit answers with its new state.

// StatusParameters is the parameter set read by NewStatusRequest
var StatusParameters = []Parameter{
	ParamOnOff,
	ParamSpeed,
	ParamManualSpeed,
	ParamVentilationMode,
	ParamFan1RPM,
	ParamCurrentHumidity,
	ParamFilterAlarm,
	ParamFilterTimer,
	ParamFirmwareVersion,
	ParamUnitType,
}

// NewSearchRequest creates the discovery broadcast packet (READ SEARCH).
// Every unit on the segment answers with a RESPONSE carrying its id.
func NewSearchRequest() *Packet {
	return NewPacket(DefaultSearchDeviceID, "", FuncRead, []DataEntry{Entry(ParamSearch)})
}

// NewReadRequest creates a READ packet for the given parameters
func NewReadRequest(deviceID, password string, params ...Parameter) *Packet {
	entries := make([]DataEntry, len(params))
	for i, p := range params {
		entries[i] = Entry(p)
	}
	return NewPacket(deviceID, password, FuncRead, entries)
}

// NewStatusRequest reads the parameters needed to build a Status
func NewStatusRequest(deviceID, password string) *Packet {
	return NewReadRequest(deviceID, password, StatusParameters...)
}

// NewFirmwareRequest reads firmware version and unit type
func NewFirmwareRequest(deviceID, password string) *Packet {
	return NewReadRequest(deviceID, password, ParamFirmwareVersion, ParamUnitType)
}

// NewWriteRead creates a WRITEREAD packet for arbitrary entries
func NewWriteRead(deviceID, password string, entries ...DataEntry) *Packet {
	return NewPacket(deviceID, password, FuncWriteRead, entries)
}

// NewPowerCommand switches the unit on or off
func NewPowerCommand(deviceID, password string, on bool) *Packet {
	var v uint8
	if on {
		v = 1
	}
	return NewWriteRead(deviceID, password, EntryValue(ParamOnOff, v))
}

// NewSpeedCommand selects a preset speed (or SpeedManual)
func NewSpeedCommand(deviceID, password string, speed Speed) *Packet {
	return NewWriteRead(deviceID, password, EntryValue(ParamSpeed, uint8(speed)))
}

// NewManualSpeedCommand sets the manual speed level and switches to manual speed
func NewManualSpeedCommand(deviceID, password string, level uint8) *Packet {
	return NewWriteRead(deviceID, password,
		EntryValue(ParamSpeed, uint8(SpeedManual)),
		EntryValue(ParamManualSpeed, level),
	)
}

// NewModeCommand selects the ventilation direction
func NewModeCommand(deviceID, password string, mode Mode) *Packet {
	return NewWriteRead(deviceID, password, EntryValue(ParamVentilationMode, uint8(mode)))
}

// NewStepCommand increments (up) or decrements a single-byte parameter and reads it back
func NewStepCommand(deviceID, password string, param Parameter, up bool) *Packet {
	fn := FuncDecRead
	if up {
		fn = FuncIncRead
	}
	return NewPacket(deviceID, password, fn, []DataEntry{Entry(param)})
}
