// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import "testing"

func TestValidatePacket_StatusResponse_Valid(t *testing.T) {
	p, err := Decode(statusResponse)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if errors := ValidatePacket(p); len(errors) != 0 {
		t.Errorf("Expected no validation errors, got %d: %v", len(errors), errors)
	}
}

func TestValidatePacket_ReadRequest_Skipped(t *testing.T) {
	// Read requests carry no values, so nothing to check
	p := NewPacket("dev", "", FuncRead, []DataEntry{EntryValue(ParamCurrentHumidity, 200)})
	if errors := ValidatePacket(p); len(errors) != 0 {
		t.Errorf("Expected no validation errors, got %v", errors)
	}
}

func TestValidatePacket_Anomalies(t *testing.T) {
	tests := []struct {
		name     string
		entry    DataEntry
		expected AnomalyType
	}{
		{"on off out of range", EntryValue(ParamOnOff, 3), AnomalyInvalidValue},
		{"unknown speed", EntryValue(ParamSpeed, 4), AnomalyInvalidValue},
		{"unknown mode", EntryValue(ParamVentilationMode, 3), AnomalyInvalidValue},
		{"humidity over 100", EntryValue(ParamCurrentHumidity, 101), AnomalyInvalidHumidity},
		{"threshold over 100", EntryValue(ParamHumidityThreshold, 150), AnomalyInvalidHumidity},
		{"fan1 too fast", DataEntry{Parameter: ParamFan1RPM, Value: []byte{0x89, 0x13}}, AnomalyHighRPM},
		{"fan2 too fast", DataEntry{Parameter: ParamFan2RPM, Value: []byte{0xFF, 0xFF}}, AnomalyHighRPM},
		{"width mismatch", DataEntry{Parameter: ParamSearch, Value: []byte{1, 2}}, AnomalySizeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPacket("dev", "", FuncResponse, []DataEntry{tt.entry})
			errors := ValidatePacket(p)
			if len(errors) != 1 {
				t.Fatalf("Expected 1 validation error, got %d: %v", len(errors), errors)
			}
			if errors[0].Type != tt.expected {
				t.Errorf("Expected anomaly %d, got %d (%s)", tt.expected, errors[0].Type, errors[0].Message)
			}
			if errors[0].Parameter != tt.entry.Parameter {
				t.Errorf("Expected parameter %s, got %s", tt.entry.Parameter, errors[0].Parameter)
			}
		})
	}
}

func TestValidatePacket_ToggleAllowed(t *testing.T) {
	p := NewPacket("dev", "", FuncWriteRead, []DataEntry{EntryValue(ParamOnOff, 2)})
	if errors := ValidatePacket(p); len(errors) != 0 {
		t.Errorf("ON_OFF=2 should be valid, got %v", errors)
	}
}
