// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/freeroam/roamctl/pkg/drive"
	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commandLog struct {
	commands []freeroam.Command
}

func (c *commandLog) Send(cmd freeroam.Command) { c.commands = append(c.commands, cmd) }

func newTestDriveModel(sender freeroam.Sender) driveModel {
	cfg := drive.DefaultConfig()
	keypad := drive.NewKeypad(4, 2)
	return driveModel{
		loop:   drive.NewLoop(keypad, sender, cfg),
		keypad: keypad,
		cfg:    cfg,
		keys:   newDriveKeyMap(),
		logs:   newLogBuffer(maxLogEntries),
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func frame(t *testing.T, m driveModel) driveModel {
	t.Helper()
	next, cmd := m.Update(driveFrameMsg(time.Now()))
	require.NotNil(t, cmd, "frames reschedule themselves")
	return next.(driveModel)
}

func TestDriveModel_KeysDriveTheLoop(t *testing.T) {
	sent := &commandLog{}
	m := newTestDriveModel(sent)

	next, _ := m.Update(runes("w"))
	m = next.(driveModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(driveModel)

	m = frame(t, m)
	require.Len(t, sent.commands, 1)
	assert.Equal(t, freeroam.NewMotorCommand(15, -15), sent.commands[0])
	assert.Equal(t, "1234|0|0|353|0|15|-15|1|1", m.lastCommand)

	// Unchanged input sends nothing
	m = frame(t, m)
	assert.Len(t, sent.commands, 1)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(driveModel)
	m = frame(t, m)
	require.Len(t, sent.commands, 2)
	assert.Equal(t, freeroam.NewMotorCommand(0, 0), sent.commands[1])
}

func TestDriveModel_EmergencyStop(t *testing.T) {
	sent := &commandLog{}
	m := newTestDriveModel(sent)

	next, _ := m.Update(runes("w"))
	m = frame(t, next.(driveModel))

	next, _ = m.Update(runes("e"))
	m = frame(t, next.(driveModel))
	require.Len(t, sent.commands, 2)
	assert.Equal(t, freeroam.EmergencyStop{}, sent.commands[1])

	// Releasing the key zeroes the motors once
	m = frame(t, m)
	m = frame(t, m)
	require.Len(t, sent.commands, 3)
	assert.Equal(t, freeroam.NewMotorCommand(0, 0), sent.commands[2])
}

func TestRenderGauge(t *testing.T) {
	tests := []struct {
		axis float64
		want string
	}{
		{0, "[....|....]"},
		{-1, "[....|####]"},
		{1, "[####|....]"},
		{-0.5, "[....|##..]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, renderGauge(tt.axis), "axis %v", tt.axis)
	}
}
