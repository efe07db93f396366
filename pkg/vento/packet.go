// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

// Packet represents a Vento protocol packet. Packets are immutable: the
// constructor and Entries both copy the entry list.
type Packet struct {
	deviceID     string
	password     string
	functionType FunctionType
	entries      []DataEntry
}

// NewPacket creates a new packet with the given fields
func NewPacket(deviceID, password string, functionType FunctionType, entries []DataEntry) *Packet {
	return &Packet{
		deviceID:     deviceID,
		password:     password,
		functionType: functionType,
		entries:      cloneEntries(entries),
	}
}

// DeviceID returns the device id credential
func (p *Packet) DeviceID() string {
	return p.deviceID
}

// Password returns the password credential (may be empty)
func (p *Packet) Password() string {
	return p.password
}

// FunctionType returns the packet's function code
func (p *Packet) FunctionType() FunctionType {
	return p.functionType
}

// Entries returns a copy of the packet's data entries in wire order
func (p *Packet) Entries() []DataEntry {
	return cloneEntries(p.entries)
}

// Len returns the number of data entries
func (p *Packet) Len() int {
	return len(p.entries)
}

// Entry returns the first entry for the given parameter
func (p *Packet) Entry(param Parameter) (DataEntry, bool) {
	for _, e := range p.entries {
		if e.Parameter == param {
			return e.clone(), true
		}
	}
	return DataEntry{}, false
}

// IsResponse returns true if the packet is a device reply
func (p *Packet) IsResponse() bool {
	return p.functionType == FuncResponse
}

func cloneEntries(entries []DataEntry) []DataEntry {
	if entries == nil {
		return nil
	}
	out := make([]DataEntry, len(entries))
	for i, e := range entries {
		out[i] = e.clone()
	}
	return out
}
