// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Statistics tracks datagram statistics and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalPackets      uint64
	ValidPackets      uint64
	ResponsePackets   uint64
	HeaderErrors      uint64
	ProtocolErrors    uint64
	ChecksumErrors    uint64
	ParameterErrors   uint64
	TruncatedPackets  uint64
	AnomalousPackets  uint64
	SizeMismatches    uint64
	InvalidValues     uint64
	HighRPM           uint64
	InvalidHumidities uint64

	// Rates (calculated)
	PacketRate float64 // packets/sec
	ErrorRate  float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics based on a decoded packet or its decode error
func (s *Statistics) Update(packet *Packet, decodeErr error, validationErrors []ValidationError) {
	s.TotalPackets++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		switch {
		case errors.Is(decodeErr, ErrInvalidHeader):
			s.HeaderErrors++
		case errors.Is(decodeErr, ErrInvalidProtocolType):
			s.ProtocolErrors++
		case errors.Is(decodeErr, ErrInvalidChecksum):
			s.ChecksumErrors++
		case errors.Is(decodeErr, ErrInvalidParameter):
			s.ParameterErrors++
		default:
			s.TruncatedPackets++
		}
		return
	}

	if packet != nil && packet.IsResponse() {
		s.ResponsePackets++
	}

	if len(validationErrors) == 0 {
		s.ValidPackets++
		return
	}

	s.AnomalousPackets++
	for _, err := range validationErrors {
		switch err.Type {
		case AnomalySizeMismatch:
			s.SizeMismatches++
		case AnomalyInvalidValue:
			s.InvalidValues++
		case AnomalyHighRPM:
			s.HighRPM++
		case AnomalyInvalidHumidity:
			s.InvalidHumidities++
		}
	}
}

// DecodeErrors returns the number of datagrams that failed to decode
func (s *Statistics) DecodeErrors() uint64 {
	return s.HeaderErrors + s.ProtocolErrors + s.ChecksumErrors + s.ParameterErrors + s.TruncatedPackets
}

// CalculateRates calculates packet and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.PacketRate = float64(s.TotalPackets) / elapsed
		s.ErrorRate = float64(s.DecodeErrors()+s.AnomalousPackets) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	percent := func(n uint64) float64 {
		if s.TotalPackets == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalPackets)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", time.Since(s.StartTime).Seconds())
	fmt.Fprintf(&b, "Total Datagrams:  %8d\n", s.TotalPackets)
	fmt.Fprintf(&b, "Valid Packets:    %8d (%.1f%%)\n", s.ValidPackets, percent(s.ValidPackets))
	fmt.Fprintf(&b, "Responses:        %8d\n", s.ResponsePackets)

	if decodeErrors := s.DecodeErrors(); decodeErrors > 0 {
		fmt.Fprintf(&b, "Decode Errors:    %8d (%.1f%%)\n", decodeErrors, percent(decodeErrors))
		if s.HeaderErrors > 0 {
			fmt.Fprintf(&b, "  Header:           %5d\n", s.HeaderErrors)
		}
		if s.ProtocolErrors > 0 {
			fmt.Fprintf(&b, "  Protocol Type:    %5d\n", s.ProtocolErrors)
		}
		if s.ChecksumErrors > 0 {
			fmt.Fprintf(&b, "  Checksum:         %5d\n", s.ChecksumErrors)
		}
		if s.ParameterErrors > 0 {
			fmt.Fprintf(&b, "  Parameter:        %5d\n", s.ParameterErrors)
		}
		if s.TruncatedPackets > 0 {
			fmt.Fprintf(&b, "  Truncated:        %5d\n", s.TruncatedPackets)
		}
	}
	if s.AnomalousPackets > 0 {
		fmt.Fprintf(&b, "Anomalous Pkts:   %8d (%.1f%%)\n", s.AnomalousPackets, percent(s.AnomalousPackets))
		if s.SizeMismatches > 0 {
			fmt.Fprintf(&b, "  Size Mismatch:    %5d\n", s.SizeMismatches)
		}
		if s.InvalidValues > 0 {
			fmt.Fprintf(&b, "  Invalid Value:    %5d\n", s.InvalidValues)
		}
		if s.HighRPM > 0 {
			fmt.Fprintf(&b, "  High RPM:         %5d\n", s.HighRPM)
		}
		if s.InvalidHumidities > 0 {
			fmt.Fprintf(&b, "  Invalid Humidity: %5d\n", s.InvalidHumidities)
		}
	}

	fmt.Fprintf(&b, "Packet Rate:      %8.1f pkts/sec\n", s.PacketRate)
	fmt.Fprintf(&b, "Error Rate:       %8.1f errors/sec\n", s.ErrorRate)
	b.WriteString("================================\n")

	return b.String()
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
