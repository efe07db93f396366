// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package vento provides a Go implementation of the Vento ventilation unit UDP protocol.
//
// Vento units exchange single-datagram packets on UDP port 4000. A packet carries
// a device id and password credential, a function code and an ordered list of
// parameter entries, protected by a 16-bit additive checksum. This package
// provides packet encoding/decoding, the parameter size registry, command
// builders, device status parsing and payload formatting.
package vento

// Framing
const (
	HeaderByte   = 0xFD
	ProtocolType = 0x02
)

// Packet size limits
const (
	MaxPacketSize = 256
	ChecksumSize  = 2

	// header (2) + protocol type (1) + two credential length bytes (2) + function (1)
	minPacketOverhead = 6
	maxCredentialSize = 255
)

// Network defaults
const (
	DefaultPort             = 4000
	BroadcastAddress        = "255.255.255.255"
	DefaultSearchDeviceID   = "DEFAULT_DEVICEID"
	DefaultPassword         = "1111"
	ParamSizeOverride  byte = 0xFE
)

// FunctionType is the one-byte opcode of a packet.
type FunctionType uint8

// Function types
const (
	FuncRead      FunctionType = 0x01
	FuncWrite     FunctionType = 0x02
	FuncWriteRead FunctionType = 0x03
	FuncIncRead   FunctionType = 0x04
	FuncDecRead   FunctionType = 0x05
	FuncResponse  FunctionType = 0x06
)

// CarriesValues reports whether entries of this function type are followed by
// value bytes on the wire. Read-style requests carry parameter ids only.
func (f FunctionType) CarriesValues() bool {
	switch f {
	case FuncRead, FuncIncRead, FuncDecRead:
		return false
	}
	return true
}

// writesValues reports whether the encoder emits value bytes for this function type.
func (f FunctionType) writesValues() bool {
	return f == FuncWrite || f == FuncWriteRead
}

// String returns the protocol name of the function type
func (f FunctionType) String() string {
	return FormatFunctionType(f)
}
