// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import (
	"strings"
	"testing"
	"time"
)

func TestFormatPacketAt(t *testing.T) {
	p, err := Decode(statusResponse)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	ts := time.Date(2025, time.March, 1, 14, 5, 9, 123000000, time.UTC)
	out := FormatPacketAt(p, ts)

	expected := []string{
		"[14:05:09.123] RESPONSE (0x06) id=003E00285742570F entries=10",
		"ON_OFF (0x01): ON",
		"VENTILATION_MODE (0xB7): IN (2)",
		"SPEED (0x02): HIGH (3)",
		"MANUAL_SPEED (0x44): 9",
		"FAN1RPM (0x4A): 2220 RPM",
		"FILTER_ALARM (0x88): ALARM",
		"FILTER_TIMER (0x64): 0d 00h 00m",
		"CURRENT_HUMIDITY (0x25): 63%",
		"READ_FIRMWARE_VERSION (0x86): 0.4 (2019-12-20)",
		"IP_ADDRESS (0x9C): 192.168.4.1",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatPacket_NoEntries(t *testing.T) {
	out := FormatPacket(NewPacket("dev", "", FuncRead, nil))
	if !strings.Contains(out, "READ (0x01) id=dev entries=0") {
		t.Errorf("Unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "(no entries)") {
		t.Errorf("Expected empty marker:\n%s", out)
	}
}

func TestFormatEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    DataEntry
		expected string
	}{
		{"read request", Entry(ParamSpeed), "  SPEED (0x02)\n"},
		{"power off", EntryValue(ParamOnOff, 0), "  ON_OFF (0x01): OFF\n"},
		{"unknown speed", EntryValue(ParamSpeed, 9), "  SPEED (0x02): UNKNOWN (9)\n"},
		{"raw value", DataEntry{Parameter: ParamRTCTime, Value: []byte{0x01, 0xAB, 0x10}}, "  RTC_TIME (0x6F): 01 AB 10\n"},
		{"empty value", DataEntry{Parameter: ParamWifiName, Value: []byte{}}, "  WIFI_NAME (0x95): (empty)\n"},
		{"unregistered", DataEntry{Parameter: 0xC1, Value: []byte{0x05}}, "  PARAM_0xC1 (0xC1): 05\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatEntry(tt.entry); got != tt.expected {
				t.Errorf("FormatEntry() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormatHex_Wraps(t *testing.T) {
	out := formatHex(make([]byte, 20))
	if strings.Count(out, "\n") != 1 {
		t.Errorf("Expected one line break for 20 bytes, got:\n%s", out)
	}
}
