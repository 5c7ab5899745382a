// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package registry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Registry assigns sequential ids to platforms and persists them.
// It is not safe for concurrent use; callers drive it from one goroutine.
type Registry struct {
	store  Store
	logger zerolog.Logger
	nextID uint64
	seeded bool
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for registry diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a registry over store
func New(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NextID returns the id the next new platform will receive
func (r *Registry) NextID() uint64 {
	return r.nextID
}

// RegisterIfAbsent looks mac up in the stored list. A known MAC returns its
// record with created=false and leaves the store untouched. An unknown MAC
// is appended under the next id and the whole list is written back.
//
// The id counter only advances once the write succeeds.
func (r *Registry) RegisterIfAbsent(ctx context.Context, mac string, profile Profile) (rec Record, created bool, err error) {
	records, found, err := r.store.Load(ctx)
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to load registry: %w", err)
	}
	if !found {
		records = []Record{}
	}
	r.seed(records)

	for _, existing := range records {
		if existing.MAC == mac {
			r.logger.Debug().Str("mac", mac).Uint64("id", existing.ID).Msg("platform already registered")
			return existing, false, nil
		}
	}

	rec = Record{
		MAC:         mac,
		ID:          r.nextID,
		Name:        profile.Name,
		Color:       profile.Color,
		Calibration: profile.Calibration,
	}
	records = append(records, rec)

	if err := r.store.Save(ctx, records); err != nil {
		return Record{}, false, fmt.Errorf("failed to save registry: %w", err)
	}
	r.nextID++

	r.logger.Info().Str("mac", mac).Uint64("id", rec.ID).Msg("platform registered")
	return rec, true, nil
}

// List returns the stored platforms in registration order
func (r *Registry) List(ctx context.Context) ([]Record, error) {
	records, _, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	r.seed(records)
	return records, nil
}

// seed raises the counter past every persisted id the first time the store
// is read, so ids stay unique across restarts.
func (r *Registry) seed(records []Record) {
	if r.seeded {
		return
	}
	r.seeded = true
	for _, rec := range records {
		if rec.ID >= r.nextID {
			r.nextID = rec.ID + 1
		}
	}
}
