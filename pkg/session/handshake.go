// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"context"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/freeroam/roamctl/pkg/registry"
)

// handleInit registers the MAC of a confirmed init burst and answers with
// an init reply. Bursts whose three identities disagree are dropped.
// A storage failure aborts this registration only; no reply is sent.
func (s *Session) handleInit(ctx context.Context, p freeroam.Packet) {
	mac, ok := p.Init.Confirmed()
	if !ok {
		s.logger.Debug().Strs("macs", p.Init.MACs[:]).Msg("dropping init burst with disagreeing identities")
		s.emit(Event{Type: EventIdentityMismatch, Packet: p})
		return
	}

	rec, created, err := s.registry.RegisterIfAbsent(ctx, mac, s.profile)
	if err != nil {
		s.stats.RegistrationErrors++
		s.logger.Error().Err(err).Str("mac", mac).Msg("platform registration failed")
		s.emit(Event{Type: EventRegistrationFailed, Packet: p, Err: err})
		return
	}

	if created {
		s.stats.Registrations++
		s.emit(Event{Type: EventRegistered, Packet: p, Record: rec})
	} else {
		s.logger.Info().Str("mac", mac).Uint64("id", rec.ID).Msg("platform detected")
		s.emit(Event{Type: EventRecognized, Packet: p, Record: rec})
	}

	ack := InitAckFor(rec, s.key)
	s.sender.Send(ack)
	s.stats.CommandsSent++
	s.logger.Info().Str("mac", mac).Uint64("id", rec.ID).Msg("sent init response")
}

// InitAckFor builds the init reply for a record under sessionKey.
// Calibration distances are converted from feet to meters.
func InitAckFor(rec registry.Record, sessionKey int64) freeroam.InitAck {
	return freeroam.InitAck{
		MAC:              rec.MAC,
		SessionKey:       sessionKey,
		PlatformID:       rec.ID,
		Distance:         rec.EncoderDistance * freeroam.FeetToMeters,
		Radius:           rec.EncoderRadius * freeroam.FeetToMeters,
		TicksPerRotation: rec.TicksPerRotation,
	}
}

// handleBeacon only observes: the platform confirms host liveness from its
// own link, so nothing is sent back.
func (s *Session) handleBeacon(p freeroam.Packet) {
	s.logger.Debug().Str("mac", p.Beacon.MAC).Uint64("sequence", p.Beacon.Sequence).Msg("handshake beacon")
	s.emit(Event{Type: EventBeacon, Packet: p})
}
