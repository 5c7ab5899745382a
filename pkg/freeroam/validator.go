// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package freeroam

import "fmt"

// AnomalyType represents different types of packet anomalies
type AnomalyType int

const (
	AnomalyUnrecognized AnomalyType = iota
	AnomalyChecksumMismatch
	AnomalyIdentityMismatch
)

// ValidationError represents a packet validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// Unwrap maps the anomaly onto the package sentinel errors
func (v *ValidationError) Unwrap() error {
	switch v.Type {
	case AnomalyChecksumMismatch:
		return ErrChecksumMismatch
	case AnomalyIdentityMismatch:
		return ErrIdentityMismatch
	default:
		return ErrUnrecognized
	}
}

// ValidatePacket checks a classified packet for anomalies.
// Returns a slice of validation errors (empty if packet is valid)
func ValidatePacket(p Packet) []ValidationError {
	errors := []ValidationError{}

	switch p.Kind {
	case KindUnrecognized:
		errors = append(errors, ValidationError{
			Type:    AnomalyUnrecognized,
			Message: fmt.Sprintf("Unrecognized line %q", p.Raw),
			Details: map[string]interface{}{"length": len(p.Raw)},
		})
	case KindInit:
		errors = append(errors, validateInit(p.Init)...)
	case KindTelemetry:
		errors = append(errors, validateTelemetry(p.Telemetry)...)
	}

	return errors
}

func validateInit(b InitBurst) []ValidationError {
	if _, ok := b.Confirmed(); ok {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyIdentityMismatch,
		Message: fmt.Sprintf("Init burst identities disagree: %s, %s, %s", b.MACs[0], b.MACs[1], b.MACs[2]),
		Details: map[string]interface{}{"macs": b.MACs},
	}}
}

func validateTelemetry(t Telemetry) []ValidationError {
	if t.ChecksumValid() {
		return nil
	}
	return []ValidationError{{
		Type: AnomalyChecksumMismatch,
		Message: fmt.Sprintf("Telemetry checksum mismatch for platform %d: expected %s, got %s",
			t.PlatformID, formatNumber(t.ExpectedChecksum()), formatNumber(t.Checksum)),
		Details: map[string]interface{}{"expected": t.ExpectedChecksum(), "received": t.Checksum},
	}}
}
