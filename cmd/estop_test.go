// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/stretchr/testify/assert"
)

func TestSendEStops_RepeatsWithInterval(t *testing.T) {
	var sent []time.Time
	sender := freeroam.SenderFunc(func(cmd freeroam.Command) {
		assert.Equal(t, freeroam.CommandEmergencyStop, cmd.Kind())
		sent = append(sent, time.Now())
	})

	n := sendEStops(context.Background(), sender, 3, 10*time.Millisecond)

	assert.Equal(t, 3, n)
	assert.Len(t, sent, 3)
	assert.GreaterOrEqual(t, sent[2].Sub(sent[0]), 20*time.Millisecond)
}

func TestSendEStops_AlwaysSendsOnce(t *testing.T) {
	count := 0
	sender := freeroam.SenderFunc(func(freeroam.Command) { count++ })

	assert.Equal(t, 1, sendEStops(context.Background(), sender, 0, time.Hour))
	assert.Equal(t, 1, count)
}

func TestSendEStops_CancelStopsRepeats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count := 0
	sender := freeroam.SenderFunc(func(freeroam.Command) { count++ })

	assert.Equal(t, 1, sendEStops(ctx, sender, 5, time.Hour))
	assert.Equal(t, 1, count)
}
