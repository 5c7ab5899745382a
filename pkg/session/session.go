// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package session holds the per-process state of a host talking to
// Freeroam platforms: the session key, line reassembly, the handshake with
// announcing devices and telemetry routing.
//
// A Session is driven from a single goroutine. Feed is called for every
// chunk read from the link; nothing inside blocks on the link itself.
package session

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/freeroam/roamctl/pkg/registry"
	"github.com/freeroam/roamctl/pkg/telemetry"
	"github.com/rs/zerolog"
)

// maxSessionKey bounds the random session key
const maxSessionKey = 1_000_000_000

// Session routes classified packets to the handshake, the registry and
// the telemetry sink.
type Session struct {
	key         int64
	reassembler *freeroam.Reassembler
	registry    *registry.Registry
	profile     registry.Profile
	sender      freeroam.Sender
	sink        telemetry.Sink
	stats       *freeroam.Statistics
	logger      zerolog.Logger
	observer    func(Event)
	strict      bool
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger used for session diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithKey fixes the session key instead of drawing a random one
func WithKey(key int64) Option {
	return func(s *Session) {
		s.key = key
	}
}

// WithProfile sets the name, color and calibration given to new platforms
func WithProfile(p registry.Profile) Option {
	return func(s *Session) {
		s.profile = p
	}
}

// WithReassembler replaces the default line reassembler
func WithReassembler(r *freeroam.Reassembler) Option {
	return func(s *Session) {
		s.reassembler = r
	}
}

// WithStrictChecksums drops telemetry whose checksum does not match
// instead of forwarding it with a diagnostic.
func WithStrictChecksums() Option {
	return func(s *Session) {
		s.strict = true
	}
}

// WithObserver registers a callback invoked for every session event
func WithObserver(fn func(Event)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// WithStatistics shares a statistics tracker with the session
func WithStatistics(stats *freeroam.Statistics) Option {
	return func(s *Session) {
		s.stats = stats
	}
}

// New creates a session. sender carries init replies back to the
// platform; sink receives telemetry and may be nil.
func New(reg *registry.Registry, sender freeroam.Sender, sink telemetry.Sink, opts ...Option) *Session {
	s := &Session{
		key:         rand.Int64N(maxSessionKey + 1),
		reassembler: freeroam.NewReassembler(),
		registry:    reg,
		profile:     registry.DefaultProfile(),
		sender:      sender,
		sink:        sink,
		stats:       freeroam.NewStatistics(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the session key sent in every init reply
func (s *Session) Key() int64 {
	return s.key
}

// Stats returns the session's statistics tracker
func (s *Session) Stats() *freeroam.Statistics {
	return s.stats
}

// Feed reassembles a chunk read from the link and handles every line it
// completes. An ErrFrameTooLong error is returned after those lines have
// been handled; it ends the session.
func (s *Session) Feed(ctx context.Context, chunk []byte) error {
	lines, err := s.reassembler.Feed(chunk)
	for _, line := range lines {
		s.HandleLine(ctx, line)
	}
	if err != nil {
		if errors.Is(err, freeroam.ErrFrameTooLong) {
			s.stats.FramesTooLong++
		}
		s.emit(Event{Type: EventFrameTooLong, Err: err})
		return err
	}
	return nil
}

// HandleLine classifies one line and acts on it. Unrecognized lines are
// dropped silently.
func (s *Session) HandleLine(ctx context.Context, line string) freeroam.Packet {
	p := freeroam.Classify(line)
	validationErrors := freeroam.ValidatePacket(p)
	s.stats.Update(p, validationErrors)

	switch p.Kind {
	case freeroam.KindInit:
		s.handleInit(ctx, p)
	case freeroam.KindHandshake:
		s.handleBeacon(p)
	case freeroam.KindTelemetry:
		s.handleTelemetry(p, validationErrors)
	case freeroam.KindAck:
		// nothing to do
	default:
		s.logger.Trace().Str("line", p.Raw).Msg("dropping unrecognized line")
	}

	return p
}

func (s *Session) handleTelemetry(p freeroam.Packet, validationErrors []freeroam.ValidationError) {
	if len(validationErrors) > 0 {
		s.logger.Warn().
			Uint64("platform", p.Telemetry.PlatformID).
			Float64("expected", p.Telemetry.ExpectedChecksum()).
			Float64("received", p.Telemetry.Checksum).
			Msg("telemetry checksum mismatch")
		s.emit(Event{Type: EventChecksumMismatch, Packet: p, Err: &validationErrors[0]})
		if s.strict {
			return
		}
	}

	if s.sink != nil {
		s.sink.Telemetry(p.Telemetry)
	}
	s.emit(Event{Type: EventTelemetry, Packet: p})
}

func (s *Session) emit(e Event) {
	if s.observer != nil {
		s.observer(e)
	}
}
