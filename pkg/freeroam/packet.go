// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package freeroam

import (
	"math"
	"time"
)

// Kind identifies the shape of a received line
type Kind int

const (
	KindUnrecognized Kind = iota
	KindInit
	KindHandshake
	KindTelemetry
	KindAck
)

// String returns the human-readable name for a packet kind
func (k Kind) String() string {
	switch k {
	case KindInit:
		return "INIT"
	case KindHandshake:
		return "HANDSHAKE"
	case KindTelemetry:
		return "TELEMETRY"
	case KindAck:
		return "ACK"
	default:
		return "UNRECOGNIZED"
	}
}

// InitBurst is a device announcing its identity three times.
type InitBurst struct {
	MACs [3]string
}

// Confirmed returns the announced MAC when all three reports agree.
func (b InitBurst) Confirmed() (string, bool) {
	if b.MACs[0] == b.MACs[1] && b.MACs[0] == b.MACs[2] {
		return b.MACs[0], true
	}
	return "", false
}

// Beacon is the liveness packet a registered platform sends.
type Beacon struct {
	MAC      string
	Sequence uint64
}

// Telemetry is a position and orientation report from a platform.
type Telemetry struct {
	Key        uint64
	PlatformID uint64
	X          float64
	Y          float64
	Theta      float64
	Checksum   float64

	// ChecksumOmitted is set when the checksum field was empty
	ChecksumOmitted bool
}

// ExpectedChecksum returns the additive checksum the platform computes over
// the position fields.
func (t Telemetry) ExpectedChecksum() float64 {
	return t.X + t.Y + t.Theta
}

// ChecksumValid reports whether the carried checksum matches the fields.
// A report without a checksum has nothing to contradict and is valid.
func (t Telemetry) ChecksumValid() bool {
	if t.ChecksumOmitted {
		return true
	}
	expected := t.ExpectedChecksum()
	return math.Abs(expected-t.Checksum) <= checksumTolerance*math.Max(1, math.Abs(expected))
}

// Ack is a minimal liveness acknowledgment carrying an opaque counter.
type Ack struct {
	Counter uint64
}

// Packet is a classified line. Only the field matching Kind is populated.
type Packet struct {
	Kind      Kind
	Raw       string
	Init      InitBurst
	Beacon    Beacon
	Telemetry Telemetry
	Ack       Ack
	Timestamp time.Time
}

// Actionable reports whether the packet drives any host behavior
func (p Packet) Actionable() bool {
	return p.Kind == KindInit || p.Kind == KindTelemetry
}
