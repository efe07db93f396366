// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import (
	"strings"
	"testing"
)

func TestStatistics_Update(t *testing.T) {
	stats := NewStatistics()

	feed := func(data []byte) {
		p, err := Decode(data)
		var validation []ValidationError
		if err == nil {
			validation = ValidatePacket(p)
		}
		stats.Update(p, err, validation)
	}

	feed(statusResponse)
	feed(sampleResponse())
	feed(MustEncode(NewSearchRequest()))

	corrupt := append([]byte{}, statusResponse...)
	corrupt[len(corrupt)-1] ^= 0xFF
	feed(corrupt)
	feed([]byte{0x00, 0x01, 0x02})
	feed([]byte{0xFD, 0xFD})

	anomalous := NewPacket("dev", "", FuncResponse, []DataEntry{EntryValue(ParamCurrentHumidity, 120)})
	feed(frameFromPacket(t, anomalous))

	if stats.TotalPackets != 7 {
		t.Errorf("TotalPackets = %d, want 7", stats.TotalPackets)
	}
	if stats.ValidPackets != 3 {
		t.Errorf("ValidPackets = %d, want 3", stats.ValidPackets)
	}
	if stats.ResponsePackets != 3 {
		t.Errorf("ResponsePackets = %d, want 3", stats.ResponsePackets)
	}
	if stats.ChecksumErrors != 1 || stats.HeaderErrors != 1 || stats.TruncatedPackets != 1 {
		t.Errorf("decode errors = checksum %d header %d truncated %d, want 1 each",
			stats.ChecksumErrors, stats.HeaderErrors, stats.TruncatedPackets)
	}
	if stats.DecodeErrors() != 3 {
		t.Errorf("DecodeErrors() = %d, want 3", stats.DecodeErrors())
	}
	if stats.AnomalousPackets != 1 || stats.InvalidHumidities != 1 {
		t.Errorf("anomalies = %d (humidity %d), want 1", stats.AnomalousPackets, stats.InvalidHumidities)
	}

	out := stats.String()
	for _, want := range []string{"Total Datagrams:", "Checksum:", "Invalid Humidity:", "Packet Rate:"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}

	stats.Reset()
	if stats.TotalPackets != 0 || stats.DecodeErrors() != 0 {
		t.Errorf("Reset did not clear counters: %+v", stats)
	}
}

// frameFromPacket encodes a response packet including its values, which
// Encode only writes for write requests
func frameFromPacket(t *testing.T, p *Packet) []byte {
	t.Helper()
	body := []byte{HeaderByte, HeaderByte, ProtocolType}
	body = append(body, credentials(p.DeviceID(), p.Password())...)
	body = append(body, byte(p.FunctionType()))
	for _, e := range p.Entries() {
		body = append(body, byte(e.Parameter))
		body = append(body, e.Value...)
	}
	return frame(body...)
}
