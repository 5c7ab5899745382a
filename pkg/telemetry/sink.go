// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package telemetry delivers decoded platform position reports to
// consumers outside the protocol engine.
package telemetry

import (
	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/rs/zerolog"
)

// Sink receives one call per valid telemetry packet.
type Sink interface {
	Telemetry(t freeroam.Telemetry)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(t freeroam.Telemetry)

// Telemetry calls f(t)
func (f SinkFunc) Telemetry(t freeroam.Telemetry) { f(t) }

// Multi fans a report out to every sink in order
type Multi []Sink

// Telemetry implements Sink
func (m Multi) Telemetry(t freeroam.Telemetry) {
	for _, s := range m {
		if s != nil {
			s.Telemetry(t)
		}
	}
}

// LogSink writes each report as a debug-level log event
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink that logs to logger
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Telemetry implements Sink
func (l *LogSink) Telemetry(t freeroam.Telemetry) {
	l.logger.Debug().
		Uint64("platform", t.PlatformID).
		Uint64("key", t.Key).
		Float64("x", t.X).
		Float64("y", t.Y).
		Float64("theta", t.Theta).
		Float64("checksum", t.Checksum).
		Msg("telemetry")
}

// Latest keeps the most recent report per platform
type Latest struct {
	reports map[uint64]freeroam.Telemetry
	order   []uint64
}

// NewLatest creates an empty tracker
func NewLatest() *Latest {
	return &Latest{reports: make(map[uint64]freeroam.Telemetry)}
}

// Telemetry implements Sink
func (l *Latest) Telemetry(t freeroam.Telemetry) {
	if _, ok := l.reports[t.PlatformID]; !ok {
		l.order = append(l.order, t.PlatformID)
	}
	l.reports[t.PlatformID] = t
}

// Snapshot returns the latest report of every platform in first-seen order
func (l *Latest) Snapshot() []freeroam.Telemetry {
	out := make([]freeroam.Telemetry, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.reports[id])
	}
	return out
}
