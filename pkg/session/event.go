// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"fmt"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/freeroam/roamctl/pkg/registry"
)

// EventType identifies what a session observed
type EventType int

const (
	EventRegistered EventType = iota
	EventRecognized
	EventIdentityMismatch
	EventRegistrationFailed
	EventBeacon
	EventTelemetry
	EventChecksumMismatch
	EventFrameTooLong
)

// Event describes one thing a session did or observed
type Event struct {
	Type   EventType
	Packet freeroam.Packet
	Record registry.Record
	Err    error
}

// IsError reports whether the event represents a fault
func (e Event) IsError() bool {
	switch e.Type {
	case EventIdentityMismatch, EventRegistrationFailed, EventChecksumMismatch, EventFrameTooLong:
		return true
	}
	return false
}

// String returns a one-line description suitable for an event log
func (e Event) String() string {
	switch e.Type {
	case EventRegistered:
		return fmt.Sprintf("Registered %s as platform %d", e.Record.MAC, e.Record.ID)
	case EventRecognized:
		return fmt.Sprintf("Platform %d (%s) announced again", e.Record.ID, e.Record.MAC)
	case EventIdentityMismatch:
		m := e.Packet.Init.MACs
		return fmt.Sprintf("Dropped init burst: %s / %s / %s disagree", m[0], m[1], m[2])
	case EventRegistrationFailed:
		return fmt.Sprintf("Registration failed: %v", e.Err)
	case EventBeacon:
		return fmt.Sprintf("Beacon from %s (seq %d)", e.Packet.Beacon.MAC, e.Packet.Beacon.Sequence)
	case EventTelemetry:
		t := e.Packet.Telemetry
		return fmt.Sprintf("Platform %d at (%g, %g) θ=%g", t.PlatformID, t.X, t.Y, t.Theta)
	case EventChecksumMismatch:
		return fmt.Sprintf("Checksum mismatch: %v", e.Err)
	case EventFrameTooLong:
		return fmt.Sprintf("Frame too long: %v", e.Err)
	default:
		return "unknown event"
	}
}
