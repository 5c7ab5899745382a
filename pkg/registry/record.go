// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package registry maps platform MAC addresses to stable platform records
// persisted in a document store.
package registry

// Defaults applied to newly registered platforms
const (
	DefaultName  = "Charles"
	DefaultColor = "#fff"
)

// Calibration holds the physical constants of a platform's drive train.
// Distances are in feet.
type Calibration struct {
	EncoderDistance  float64 `cbor:"encoderDistance" toml:"encoder_distance"`
	EncoderRadius    float64 `cbor:"encoderRadius" toml:"encoder_radius"`
	TicksPerRotation int     `cbor:"ticksPerRotation" toml:"ticks_per_rotation"`
	MaxSpeed         int     `cbor:"maxSpeed" toml:"max_speed"`
}

// DefaultCalibration returns the constants assigned to unseen platforms
func DefaultCalibration() Calibration {
	return Calibration{
		EncoderDistance:  1,
		EncoderRadius:    2,
		TicksPerRotation: 20,
		MaxSpeed:         100,
	}
}

// Profile is the template a new record is created from.
type Profile struct {
	Name        string      `toml:"name"`
	Color       string      `toml:"color"`
	Calibration Calibration `toml:"calibration"`
}

// DefaultProfile returns the default name, color and calibration
func DefaultProfile() Profile {
	return Profile{
		Name:        DefaultName,
		Color:       DefaultColor,
		Calibration: DefaultCalibration(),
	}
}

// Record is a registered platform. Records are never mutated after creation.
type Record struct {
	MAC   string `cbor:"mac"`
	ID    uint64 `cbor:"id"`
	Name  string `cbor:"name"`
	Color string `cbor:"color"`
	Calibration
}
