// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import "fmt"

// AnomalyType represents different types of packet anomalies
type AnomalyType int

const (
	AnomalySizeMismatch AnomalyType = iota
	AnomalyInvalidValue
	AnomalyHighRPM
	AnomalyInvalidHumidity
)

// Plausibility limits
const (
	maxFanRPM   = 5000
	maxHumidity = 100
)

// ValidationError represents a packet validation failure
type ValidationError struct {
	Type      AnomalyType
	Parameter Parameter
	Message   string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidatePacket checks decoded entry values for plausibility.
// Returns a slice of validation errors (empty if the packet looks valid).
func ValidatePacket(p *Packet) []ValidationError {
	errors := []ValidationError{}
	if !p.functionType.CarriesValues() {
		return errors
	}

	for _, e := range p.entries {
		if e.Value == nil {
			continue
		}
		if size := SizeOf(e.Parameter); size != SizeUnknown && len(e.Value) != size {
			errors = append(errors, ValidationError{
				Type:      AnomalySizeMismatch,
				Parameter: e.Parameter,
				Message:   fmt.Sprintf("%s value is %d bytes (registry %d)", e.Parameter, len(e.Value), size),
			})
		}
		errors = append(errors, validateValue(e)...)
	}

	return errors
}

func validateValue(e DataEntry) []ValidationError {
	v, ok := e.Uint()
	if !ok {
		return nil
	}

	invalid := func(t AnomalyType, format string, args ...interface{}) []ValidationError {
		return []ValidationError{{Type: t, Parameter: e.Parameter, Message: fmt.Sprintf(format, args...)}}
	}

	switch e.Parameter {
	case ParamOnOff:
		// 2 toggles the unit
		if v > 2 {
			return invalid(AnomalyInvalidValue, "Invalid ON_OFF value=%d (valid 0-2)", v)
		}
	case ParamSpeed:
		if Speed(v).String() == "UNKNOWN" {
			return invalid(AnomalyInvalidValue, "Invalid SPEED value=%d", v)
		}
	case ParamVentilationMode:
		if Mode(v).String() == "UNKNOWN" {
			return invalid(AnomalyInvalidValue, "Invalid VENTILATION_MODE value=%d (valid 0-2)", v)
		}
	case ParamCurrentHumidity, ParamHumidityThreshold:
		if v > maxHumidity {
			return invalid(AnomalyInvalidHumidity, "Invalid humidity=%d%% (max %d)", v, maxHumidity)
		}
	case ParamFan1RPM, ParamFan2RPM:
		if v > maxFanRPM {
			return invalid(AnomalyHighRPM, "High RPM (%s=%d, max %d)", e.Parameter, v, maxFanRPM)
		}
	}
	return nil
}
