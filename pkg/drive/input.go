// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drive

import "math"

// InputState is a snapshot of a human input device
type InputState struct {
	Axes    []float64
	Buttons []bool
}

// Axis returns axis i, or 0 when the device has no such axis
func (s InputState) Axis(i int) float64 {
	if i < 0 || i >= len(s.Axes) {
		return 0
	}
	return s.Axes[i]
}

// Pressed reports whether button i is held
func (s InputState) Pressed(i int) bool {
	if i < 0 || i >= len(s.Buttons) {
		return false
	}
	return s.Buttons[i]
}

// InputSource is polled once per control tick for the first connected
// device. ok is false when no device is connected.
type InputSource interface {
	Poll() (state InputState, ok bool)
}

// InputFunc adapts a function to the InputSource interface
type InputFunc func() (InputState, bool)

// Poll calls f()
func (f InputFunc) Poll() (InputState, bool) { return f() }

// Keypad is a virtual gamepad driven by discrete key presses. Terminals
// report presses but not releases, so axes hold their value until moved
// again and buttons stay pressed for exactly one poll.
type Keypad struct {
	axes    []float64
	buttons []bool
}

// NewKeypad creates a keypad with the given number of axes and buttons
func NewKeypad(axes, buttons int) *Keypad {
	return &Keypad{
		axes:    make([]float64, axes),
		buttons: make([]bool, buttons),
	}
}

// Nudge moves axis i by delta, clamped to [-1, 1]
func (k *Keypad) Nudge(i int, delta float64) {
	if i < 0 || i >= len(k.axes) {
		return
	}
	v := k.axes[i] + delta
	v = math.Max(-1, math.Min(1, v))
	// Snap accumulated float noise back to rest
	if math.Abs(v) < 1e-9 {
		v = 0
	}
	k.axes[i] = v
}

// SetAxis sets axis i to v, clamped to [-1, 1]
func (k *Keypad) SetAxis(i int, v float64) {
	if i < 0 || i >= len(k.axes) {
		return
	}
	k.axes[i] = math.Max(-1, math.Min(1, v))
}

// Center returns every axis to rest
func (k *Keypad) Center() {
	for i := range k.axes {
		k.axes[i] = 0
	}
}

// Press latches button i until the next poll
func (k *Keypad) Press(i int) {
	if i >= 0 && i < len(k.buttons) {
		k.buttons[i] = true
	}
}

// Peek returns the current state without releasing latched buttons
func (k *Keypad) Peek() InputState {
	return InputState{
		Axes:    append([]float64(nil), k.axes...),
		Buttons: append([]bool(nil), k.buttons...),
	}
}

// Poll implements InputSource
func (k *Keypad) Poll() (InputState, bool) {
	state := k.Peek()
	for i := range k.buttons {
		k.buttons[i] = false
	}
	return state, true
}
