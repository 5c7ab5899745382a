// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package freeroam implements the host side of the Freeroam serial protocol.
//
// Freeroam is a line-oriented ASCII protocol spoken between a host and a
// wheeled robot platform over a serial link. Every packet is a sequence of
// pipe-delimited fields terminated by a newline. This package provides line
// reassembly, packet classification, command encoding, checksum helpers,
// ingress validation and human-readable formatting.
package freeroam

// Link settings
const (
	DefaultBaudRate = 57600
	LineTerminator  = '\n'
	FieldSeparator  = "|"
)

// MaxFrameLength bounds the unterminated tail held by a Reassembler.
const MaxFrameLength = 1024

// Protocol literals
const (
	DeviceClass     = 353 // Device-class tag carried by init replies and motor commands
	CommandKey      = 1234
	InitKeyword     = "init"
	FreeroamKeyword = "freeroam"
	AckPrefix       = "good:"
	EStopKeyword    = "E_STOP"
)

// FeetToMeters converts calibration constants to the units expected by the
// platform firmware.
const FeetToMeters = 0.3048

// checksumTolerance absorbs float formatting noise when comparing checksums
const checksumTolerance = 1e-6
