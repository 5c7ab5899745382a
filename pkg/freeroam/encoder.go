// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package freeroam

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind identifies an outgoing message
type CommandKind int

const (
	CommandInitAck CommandKind = iota
	CommandMotor
	CommandEmergencyStop
)

// String returns the human-readable name for a command kind
func (k CommandKind) String() string {
	switch k {
	case CommandInitAck:
		return "INIT_ACK"
	case CommandMotor:
		return "MOTOR"
	case CommandEmergencyStop:
		return "E_STOP"
	default:
		return "UNKNOWN"
	}
}

// Command is an outgoing message that knows its own wire text
type Command interface {
	Kind() CommandKind
	Encode() []byte
}

// Sender accepts commands for fire-and-forget delivery over the link.
type Sender interface {
	Send(cmd Command)
}

// SenderFunc adapts a function to the Sender interface
type SenderFunc func(cmd Command)

// Send calls f(cmd)
func (f SenderFunc) Send(cmd Command) { f(cmd) }

// InitAck answers a confirmed init burst with the platform's assignment.
type InitAck struct {
	MAC              string
	SessionKey       int64
	PlatformID       uint64
	Distance         float64 // meters
	Radius           float64 // meters
	TicksPerRotation int
}

// Kind implements Command
func (a InitAck) Kind() CommandKind { return CommandInitAck }

// Checksum is distance + radius + ticks per rotation
func (a InitAck) Checksum() float64 {
	return a.Distance + a.Radius + float64(a.TicksPerRotation)
}

// Encode implements Command
func (a InitAck) Encode() []byte {
	return joinFields(
		InitKeyword,
		strconv.Itoa(DeviceClass),
		a.MAC,
		strconv.FormatInt(a.SessionKey, 10),
		strconv.FormatUint(a.PlatformID, 10),
		formatNumber(a.Distance),
		formatNumber(a.Radius),
		strconv.Itoa(a.TicksPerRotation),
		formatNumber(a.Checksum()),
	)
}

// MotorCommand sets the left and right motor rates.
type MotorCommand struct {
	X int
	Y int
}

// NewMotorCommand creates a motor command. Use (0, 0) to bring the platform
// to rest.
func NewMotorCommand(x, y int) MotorCommand {
	return MotorCommand{X: x, Y: y}
}

// Kind implements Command
func (c MotorCommand) Kind() CommandKind { return CommandMotor }

// Checksum is x + y + 1
func (c MotorCommand) Checksum() int {
	return c.X + c.Y + 1
}

// Encode implements Command
func (c MotorCommand) Encode() []byte {
	return joinFields(
		strconv.Itoa(CommandKey),
		"0",
		"0",
		strconv.Itoa(DeviceClass),
		"0",
		strconv.Itoa(c.X),
		strconv.Itoa(c.Y),
		"1",
		strconv.Itoa(c.Checksum()),
	)
}

// EmergencyStop halts the platform immediately.
type EmergencyStop struct{}

// Kind implements Command
func (EmergencyStop) Kind() CommandKind { return CommandEmergencyStop }

// Encode implements Command. The trailing empty field is part of the literal.
func (EmergencyStop) Encode() []byte {
	return joinFields(strconv.Itoa(CommandKey), EStopKeyword, "")
}

// FormatCommand returns a one-line description of an outgoing command
func FormatCommand(cmd Command) string {
	switch c := cmd.(type) {
	case InitAck:
		return fmt.Sprintf("%s mac=%s key=%d id=%d distance=%s radius=%s ticks=%d",
			c.Kind(), c.MAC, c.SessionKey, c.PlatformID, formatNumber(c.Distance), formatNumber(c.Radius), c.TicksPerRotation)
	case MotorCommand:
		return fmt.Sprintf("%s x=%d y=%d", c.Kind(), c.X, c.Y)
	case EmergencyStop:
		return c.Kind().String()
	default:
		return strings.TrimSpace(string(cmd.Encode()))
	}
}

func joinFields(fields ...string) []byte {
	return []byte(strings.Join(fields, FieldSeparator) + string(LineTerminator))
}

// formatNumber renders the shortest decimal that round-trips
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
