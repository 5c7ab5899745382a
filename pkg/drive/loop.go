// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package drive turns human input device state into motor commands.
package drive

import (
	"context"
	"math"
	"time"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/rs/zerolog"
)

// Config tunes the control loop
type Config struct {
	Deadzone    float64       `toml:"deadzone"`
	MaxSpeed    int           `toml:"max_speed"`
	LeftAxis    int           `toml:"left_axis"`
	RightAxis   int           `toml:"right_axis"`
	EStopButton int           `toml:"estop_button"`
	Interval    time.Duration `toml:"interval"`
}

// DefaultConfig matches a standard gamepad: left stick vertical on axis 1,
// right stick vertical on axis 3, e-stop on button 1, ~60 ticks per second.
func DefaultConfig() Config {
	return Config{
		Deadzone:    0.1,
		MaxSpeed:    60,
		LeftAxis:    1,
		RightAxis:   3,
		EStopButton: 1,
		Interval:    16 * time.Millisecond,
	}
}

// Loop samples an input source once per tick and dispatches motor
// commands. Commands are only sent when the rates change by at least one
// unit, so holding a stick still does not flood the link.
type Loop struct {
	cfg    Config
	input  InputSource
	sender freeroam.Sender
	logger zerolog.Logger

	lastX int
	lastY int
}

// Option configures a Loop
type Option func(*Loop)

// WithLogger sets the logger used for loop diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a loop at rest
func NewLoop(input InputSource, sender freeroam.Sender, cfg Config, opts ...Option) *Loop {
	l := &Loop{
		cfg:    cfg,
		input:  input,
		sender: sender,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Last returns the most recently dispatched motor rates
func (l *Loop) Last() (x, y int) {
	return l.lastX, l.lastY
}

// Tick runs one control step. It returns the dispatched command, if any.
func (l *Loop) Tick() (freeroam.Command, bool) {
	state, ok := l.input.Poll()
	if !ok {
		return nil, false
	}

	left := state.Axis(l.cfg.LeftAxis)
	right := state.Axis(l.cfg.RightAxis)

	switch {
	case math.Abs(left) > l.cfg.Deadzone || math.Abs(right) > l.cfg.Deadzone:
		x := -roundHalfUp(left * float64(l.cfg.MaxSpeed))
		y := -roundHalfUp(right * float64(l.cfg.MaxSpeed))
		if abs(x-l.lastX) >= 1 || abs(y-l.lastY) >= 1 {
			return l.dispatchMotor(x, y), true
		}

	case state.Pressed(l.cfg.EStopButton):
		// Repeats every tick while held
		cmd := freeroam.EmergencyStop{}
		l.sender.Send(cmd)
		return cmd, true

	case l.lastX != 0 || l.lastY != 0:
		return l.dispatchMotor(0, 0), true
	}

	return nil, false
}

// Run ticks at the configured interval until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	interval := l.cfg.Interval
	if interval <= 0 {
		interval = DefaultConfig().Interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick()
		}
	}
}

func (l *Loop) dispatchMotor(x, y int) freeroam.Command {
	l.lastX, l.lastY = x, y
	cmd := freeroam.NewMotorCommand(x, y)
	l.sender.Send(cmd)
	l.logger.Debug().Int("x", x).Int("y", y).Msg("motor command")
	return cmd
}

// roundHalfUp rounds halves toward positive infinity, the way gamepad
// firmware and browsers round axis readings.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
