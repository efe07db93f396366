// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import (
	"fmt"
)

// Decode parses a complete datagram into a Packet.
//
// The header, protocol type and checksum are verified before any field is
// read, so a corrupted credential length cannot move the cursor. Entry values
// are read for write and response packets only; read-style requests carry
// parameter ids alone.
func Decode(data []byte) (*Packet, error) {
	if len(data) < 3 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if data[0] != HeaderByte || data[1] != HeaderByte {
		return nil, fmt.Errorf("%w: 0x%02X 0x%02X", ErrInvalidHeader, data[0], data[1])
	}
	if data[2] != ProtocolType {
		return nil, fmt.Errorf("%w: 0x%02X", ErrInvalidProtocolType, data[2])
	}
	if len(data) < minPacketOverhead+ChecksumSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}

	// Checksum
	end := len(data) - ChecksumSize
	calculated := Checksum(data[2:end])
	received := uint16(data[end]) | uint16(data[end+1])<<8
	if calculated != received {
		return nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrInvalidChecksum, calculated, received)
	}

	// The cursor is bounded by the checksum
	body := data[:end]
	off := 3

	deviceID, off, err := readCredential(body, off)
	if err != nil {
		return nil, fmt.Errorf("device id: %w", err)
	}
	password, off, err := readCredential(body, off)
	if err != nil {
		return nil, fmt.Errorf("password: %w", err)
	}

	fn, off, err := readByte(body, off)
	if err != nil {
		return nil, fmt.Errorf("function type: %w", err)
	}
	functionType := FunctionType(fn)

	var entries []DataEntry
	for off < len(body) {
		var entry DataEntry
		entry, off, err = readEntry(body, off, functionType.CarriesValues())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return &Packet{
		deviceID:     deviceID,
		password:     password,
		functionType: functionType,
		entries:      entries,
	}, nil
}

// readEntry reads one parameter entry starting at off
func readEntry(b []byte, off int, withValue bool) (DataEntry, int, error) {
	id, off, err := readByte(b, off)
	if err != nil {
		return DataEntry{}, off, err
	}

	var size int
	escaped := id == ParamSizeOverride
	if escaped {
		// Escape: explicit size, then the real parameter id
		var n byte
		if n, off, err = readByte(b, off); err != nil {
			return DataEntry{}, off, fmt.Errorf("size override: %w", err)
		}
		if id, off, err = readByte(b, off); err != nil {
			return DataEntry{}, off, fmt.Errorf("size override: %w", err)
		}
		size = int(n)
	} else {
		size = SizeOf(Parameter(id))
		if size == SizeUnknown {
			return DataEntry{}, off, fmt.Errorf("%w: 0x%02X at offset %d", ErrInvalidParameter, id, off-1)
		}
	}

	// An escaped entry carries its value whatever the function type
	entry := DataEntry{Parameter: Parameter(id)}
	if size > 0 && (withValue || escaped) {
		if entry.Value, off, err = readBytes(b, off, size); err != nil {
			return DataEntry{}, off, fmt.Errorf("%s value: %w", entry.Parameter, err)
		}
	}
	return entry, off, nil
}

// readCredential reads a length-prefixed Latin-1 string
func readCredential(b []byte, off int) (string, int, error) {
	n, off, err := readByte(b, off)
	if err != nil {
		return "", off, err
	}
	raw, off, err := readBytes(b, off, int(n))
	if err != nil {
		return "", off, err
	}
	runes := make([]rune, len(raw))
	for i, c := range raw {
		runes[i] = rune(c)
	}
	return string(runes), off, nil
}

func readByte(b []byte, off int) (byte, int, error) {
	if off >= len(b) {
		return 0, off, fmt.Errorf("%w: need 1 byte at offset %d", ErrTruncated, off)
	}
	return b[off], off + 1, nil
}

func readBytes(b []byte, off, n int) ([]byte, int, error) {
	if off+n > len(b) {
		return nil, off, fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, n, off)
	}
	out := make([]byte, n)
	copy(out, b[off:off+n])
	return out, off + n, nil
}
