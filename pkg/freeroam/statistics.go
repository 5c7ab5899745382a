// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package freeroam

import (
	"fmt"
	"time"
)

// Statistics tracks line, registration and command counters
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Ingress counters
	TotalLines         uint64
	InitBursts         uint64
	Beacons            uint64
	TelemetryPackets   uint64
	Acks               uint64
	Unrecognized       uint64
	ChecksumMismatches uint64
	IdentityMismatches uint64
	FramesTooLong      uint64

	// Host actions
	Registrations      uint64
	RegistrationErrors uint64
	CommandsSent       uint64

	// Rates (calculated)
	LineRate  float64 // lines/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update counts a classified packet and its validation errors
func (s *Statistics) Update(p Packet, validationErrors []ValidationError) {
	s.TotalLines++

	switch p.Kind {
	case KindInit:
		s.InitBursts++
	case KindHandshake:
		s.Beacons++
	case KindTelemetry:
		s.TelemetryPackets++
	case KindAck:
		s.Acks++
	}

	for _, err := range validationErrors {
		switch err.Type {
		case AnomalyUnrecognized:
			s.Unrecognized++
		case AnomalyChecksumMismatch:
			s.ChecksumMismatches++
		case AnomalyIdentityMismatch:
			s.IdentityMismatches++
		}
	}

	s.LastUpdateTime = time.Now()
}

// errorCount sums every counter that represents a fault
func (s *Statistics) errorCount() uint64 {
	return s.Unrecognized + s.ChecksumMismatches + s.IdentityMismatches +
		s.FramesTooLong + s.RegistrationErrors
}

// CalculateRates calculates line and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.LineRate = float64(s.TotalLines) / elapsed
		s.ErrorRate = float64(s.errorCount()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	percent := func(n uint64) float64 {
		if s.TotalLines == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalLines)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Lines:     %8d\n", s.TotalLines)
	result += fmt.Sprintf("Telemetry:       %8d (%.1f%%)\n", s.TelemetryPackets, percent(s.TelemetryPackets))
	result += fmt.Sprintf("Init Bursts:     %8d\n", s.InitBursts)
	result += fmt.Sprintf("Beacons:         %8d\n", s.Beacons)
	result += fmt.Sprintf("Acks:            %8d\n", s.Acks)

	if s.Unrecognized > 0 {
		result += fmt.Sprintf("Unrecognized:    %8d (%.1f%%)\n", s.Unrecognized, percent(s.Unrecognized))
	}
	if s.ChecksumMismatches > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d\n", s.ChecksumMismatches)
	}
	if s.IdentityMismatches > 0 {
		result += fmt.Sprintf("Bad Init Bursts: %8d\n", s.IdentityMismatches)
	}
	if s.FramesTooLong > 0 {
		result += fmt.Sprintf("Frames Too Long: %8d\n", s.FramesTooLong)
	}

	result += fmt.Sprintf("Registrations:   %8d\n", s.Registrations)
	if s.RegistrationErrors > 0 {
		result += fmt.Sprintf("  Failed:           %5d\n", s.RegistrationErrors)
	}
	result += fmt.Sprintf("Commands Sent:   %8d\n", s.CommandsSent)

	result += fmt.Sprintf("Line Rate:       %8.1f lines/sec\n", s.LineRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
