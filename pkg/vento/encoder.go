// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import (
	"fmt"
)

// Encode encodes a Packet to wire format.
// Returns the datagram bytes ready for transmission, including header and checksum.
func Encode(p *Packet) ([]byte, error) {
	data := make([]byte, 0, MaxPacketSize)

	// Header and protocol type
	data = append(data, HeaderByte, HeaderByte, ProtocolType)

	// Credentials
	var err error
	if data, err = appendCredential(data, p.deviceID); err != nil {
		return nil, fmt.Errorf("device id: %w", err)
	}
	if data, err = appendCredential(data, p.password); err != nil {
		return nil, fmt.Errorf("password: %w", err)
	}

	data = append(data, byte(p.functionType))

	// Values are only sent for write requests; read-style requests carry ids only
	withValues := p.functionType.writesValues()
	for _, e := range p.entries {
		data = append(data, byte(e.Parameter))
		if !withValues || e.Value == nil {
			continue
		}
		size := SizeOf(e.Parameter)
		if size == SizeUnknown {
			return nil, fmt.Errorf("%w: %s has no registry size", ErrInvalidValue, e.Parameter)
		}
		if len(e.Value) < size {
			return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidValue, e.Parameter, size, len(e.Value))
		}
		data = append(data, e.Value[:size]...)
	}

	if len(data)+ChecksumSize > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, len(data)+ChecksumSize, MaxPacketSize)
	}

	// Checksum covers protocol type through the end of the data section (little-endian)
	sum := Checksum(data[2:])
	data = append(data, byte(sum&0xFF), byte(sum>>8))

	return data, nil
}

// MustEncode encodes a packet and panics on error.
// Use Encode for packets built from untrusted input.
func MustEncode(p *Packet) []byte {
	data, err := Encode(p)
	if err != nil {
		panic(fmt.Sprintf("vento: encode error: %v", err))
	}
	return data
}

// appendCredential writes a length-prefixed Latin-1 string
func appendCredential(data []byte, s string) ([]byte, error) {
	runes := []rune(s)
	if len(runes) > maxCredentialSize {
		return nil, fmt.Errorf("%w: %d characters (max %d)", ErrInvalidCredential, len(runes), maxCredentialSize)
	}
	data = append(data, byte(len(runes)))
	for _, r := range runes {
		if r > 0xFF {
			return nil, fmt.Errorf("%w: character %q is outside Latin-1", ErrInvalidCredential, r)
		}
		data = append(data, byte(r))
	}
	return data, nil
}
