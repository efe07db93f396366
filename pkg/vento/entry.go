// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

// DataEntry is one parameter of a packet payload. Value is nil for read
// requests and holds the raw little-endian bytes otherwise.
type DataEntry struct {
	Parameter Parameter
	Value     []byte
}

// Entry creates a data entry without a value (a read request for p)
func Entry(p Parameter) DataEntry {
	return DataEntry{Parameter: p}
}

// EntryValue creates a data entry carrying a single-byte value.
// The width is not checked against the registry here; Encode does that.
func EntryValue(p Parameter, v uint8) DataEntry {
	return DataEntry{Parameter: p, Value: []byte{v}}
}

// HasValue reports whether the entry carries a value
func (e DataEntry) HasValue() bool {
	return e.Value != nil
}

// Uint returns the value as a little-endian unsigned integer.
// Returns false when the entry has no value or the value is wider than 8 bytes.
func (e DataEntry) Uint() (uint64, bool) {
	if e.Value == nil || len(e.Value) > 8 {
		return 0, false
	}
	var v uint64
	for i, b := range e.Value {
		v |= uint64(b) << (8 * i)
	}
	return v, true
}

func (e DataEntry) clone() DataEntry {
	if e.Value == nil {
		return e
	}
	v := make([]byte, len(e.Value))
	copy(v, e.Value)
	return DataEntry{Parameter: e.Parameter, Value: v}
}
