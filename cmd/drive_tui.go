// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/freeroam/roamctl/pkg/drive"
	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/freeroam/roamctl/pkg/registry"
	"github.com/freeroam/roamctl/pkg/session"
	"github.com/freeroam/roamctl/pkg/telemetry"
	"github.com/rs/zerolog"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	maxLogEntries = 100
	eventLogLines = 8
	axisStep      = 0.25 // Keypad stick movement per key press
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

type driveKeyMap struct {
	LeftForward   key.Binding
	LeftBack      key.Binding
	RightForward  key.Binding
	RightBack     key.Binding
	Center        key.Binding
	EmergencyStop key.Binding
	Quit          key.Binding
}

func (k driveKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.LeftForward, k.LeftBack, k.RightForward, k.RightBack, k.Center, k.EmergencyStop, k.Quit}
}

func (k driveKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newDriveKeyMap() driveKeyMap {
	return driveKeyMap{
		LeftForward:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "left fwd")),
		LeftBack:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "left back")),
		RightForward:  key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "right fwd")),
		RightBack:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "right back")),
		Center:        key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "stop")),
		EmergencyStop: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "e-stop")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// driveModel is the Bubble Tea model for the drive TUI. The session and
// control loop are only touched from Update, which keeps the host single
// threaded.
type driveModel struct {
	connMgr  *connectionManager
	connInfo string

	host   *host
	loop   *drive.Loop
	keypad *drive.Keypad
	cfg    drive.Config

	latest    *telemetry.Latest
	platforms map[uint64]registry.Record
	logs      *logBuffer

	keys driveKeyMap
	help help.Model

	width          int
	height         int
	quitting       bool
	connectionLost bool
	sessionErr     error
	lastCommand    string
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type driveTickMsg time.Time

type driveFrameMsg time.Time

type linkBatchMsg struct {
	chunks [][]byte
}

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialDriveModel(connMgr *connectionManager, connInfo string, logs *logBuffer, log zerolog.Logger) (driveModel, error) {
	cfg := settings.Control
	if cfg.Interval <= 0 {
		cfg.Interval = drive.DefaultConfig().Interval
	}

	platforms := make(map[uint64]registry.Record)
	observer := func(e session.Event) {
		switch e.Type {
		case session.EventRegistered, session.EventRecognized:
			platforms[e.Record.ID] = e.Record
		}
	}

	latest := telemetry.NewLatest()
	h, err := newHost(connMgr, log, observer, latest)
	if err != nil {
		return driveModel{}, err
	}

	// Seed the table with platforms registered in earlier sessions
	if records, err := h.registry.List(context.Background()); err == nil {
		for _, rec := range records {
			platforms[rec.ID] = rec
		}
	} else {
		log.Warn().Err(err).Msg("failed to load registry")
	}

	axes := max(cfg.LeftAxis, cfg.RightAxis) + 1
	keypad := drive.NewKeypad(axes, cfg.EStopButton+1)

	log.Info().Int64("key", h.session.Key()).Msg("session started")

	return driveModel{
		connMgr:   connMgr,
		connInfo:  connInfo,
		host:      h,
		loop:      drive.NewLoop(keypad, h.writer, cfg, drive.WithLogger(log)),
		keypad:    keypad,
		cfg:       cfg,
		latest:    latest,
		platforms: platforms,
		logs:      logs,
		keys:      newDriveKeyMap(),
		help:      help.New(),
	}, nil
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m driveModel) Init() tea.Cmd {
	return tea.Batch(driveTickCmd(), m.frameCmd())
}

func driveTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return driveTickMsg(t)
	})
}

func (m driveModel) frameCmd() tea.Cmd {
	return tea.Tick(m.cfg.Interval, func(t time.Time) tea.Msg {
		return driveFrameMsg(t)
	})
}

func (m driveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case driveTickMsg:
		m.host.session.Stats().CalculateRates()
		return m, driveTickCmd()

	case driveFrameMsg:
		if cmd, ok := m.loop.Tick(); ok {
			m.lastCommand = strings.TrimSpace(string(cmd.Encode()))
		}
		return m, m.frameCmd()

	case linkBatchMsg:
		for _, chunk := range msg.chunks {
			if err := m.host.session.Feed(context.Background(), chunk); err != nil {
				m.sessionErr = err
				m.quitting = true
				return m, tea.Quit
			}
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.logs.append("Connection lost - reconnecting...", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		// A partial line from the old link must not prefix the new stream
		m.host.reassembler.Reset()
		m.logs.append("Reconnected", false)
	}

	return m, nil
}

func (m driveModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if x, y := m.loop.Last(); x != 0 || y != 0 {
			m.host.writer.Send(freeroam.NewMotorCommand(0, 0))
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.LeftForward):
		m.keypad.Nudge(m.cfg.LeftAxis, -axisStep)

	case key.Matches(msg, m.keys.LeftBack):
		m.keypad.Nudge(m.cfg.LeftAxis, axisStep)

	case key.Matches(msg, m.keys.RightForward):
		m.keypad.Nudge(m.cfg.RightAxis, -axisStep)

	case key.Matches(msg, m.keys.RightBack):
		m.keypad.Nudge(m.cfg.RightAxis, axisStep)

	case key.Matches(msg, m.keys.Center):
		m.keypad.Center()

	case key.Matches(msg, m.keys.EmergencyStop):
		// Sticks drop to rest so the e-stop is not masked by a held rate
		m.keypad.Center()
		m.keypad.Press(m.cfg.EStopButton)
	}

	return m, nil
}

func (m driveModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	s.WriteString(titleStyle.Render("ROAMCTL DRIVE"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | key %d", connStatus, m.host.session.Key())))
	s.WriteString("\n\n")

	s.WriteString(m.renderSticks(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n")
	s.WriteString(m.renderPlatforms(statsLabelStyle, headerStyle, boxStyle))
	s.WriteString("\n")
	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n")
	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keys))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m driveModel) boxWidth() int {
	if m.width > 4 {
		return m.width - 4
	}
	return 76
}

func (m driveModel) renderSticks(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	state := m.keypad.Peek()
	x, y := m.loop.Last()

	content := fmt.Sprintf("%s %s %s  %s %s %s",
		statsLabelStyle.Render("Left:"),
		renderGauge(state.Axis(m.cfg.LeftAxis)),
		statsValueStyle.Render(fmt.Sprintf("%+d", x)),
		statsLabelStyle.Render("Right:"),
		renderGauge(state.Axis(m.cfg.RightAxis)),
		statsValueStyle.Render(fmt.Sprintf("%+d", y)),
	)
	if m.lastCommand != "" {
		style := statsValueStyle
		if strings.Contains(m.lastCommand, freeroam.EStopKeyword) {
			style = errorStyle
		}
		content += fmt.Sprintf("  %s %s", statsLabelStyle.Render("Sent:"), style.Render(m.lastCommand))
	}

	return boxStyle.Width(m.boxWidth()).Render(content)
}

// renderGauge draws an axis position as a bar, forward to the right
func renderGauge(v float64) string {
	const half = 4
	cells := int(math.Round(-v * half))
	var b strings.Builder
	b.WriteByte('[')
	for i := -half; i <= half; i++ {
		switch {
		case i == 0:
			b.WriteByte('|')
		case cells > 0 && i > 0 && i <= cells, cells < 0 && i < 0 && i >= cells:
			b.WriteByte('#')
		default:
			b.WriteByte('.')
		}
	}
	b.WriteByte(']')
	return b.String()
}

func (m driveModel) renderPlatforms(statsLabelStyle, headerStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("PLATFORMS"))
	s.WriteString("\n")

	reports := make(map[uint64]freeroam.Telemetry)
	for _, t := range m.latest.Snapshot() {
		reports[t.PlatformID] = t
	}

	if len(m.platforms) == 0 && len(reports) == 0 {
		s.WriteString(headerStyle.Render("  (no platforms yet)"))
		return boxStyle.Width(m.boxWidth()).Render(s.String())
	}

	ids := make([]uint64, 0, len(m.platforms)+len(reports))
	seen := make(map[uint64]bool)
	for id := range m.platforms {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range reports {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "NAME", "MAC", "X", "Y", "THETA", "CHECKSUM").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, id := range ids {
		rec, known := m.platforms[id]
		name, mac := "?", "?"
		if known {
			name = lipgloss.NewStyle().Foreground(lipgloss.Color(rec.Color)).Render(rec.Name)
			mac = rec.MAC
		}
		x, y, theta, checksum := "-", "-", "-", "-"
		if r, ok := reports[id]; ok {
			x = strconv.FormatFloat(r.X, 'f', -1, 64)
			y = strconv.FormatFloat(r.Y, 'f', -1, 64)
			theta = strconv.FormatFloat(r.Theta, 'f', -1, 64)
			checksum = "ok"
			if !r.ChecksumValid() {
				checksum = "MISMATCH"
			}
		}
		t.Row(strconv.FormatUint(id, 10), name, mac, x, y, theta, checksum)
	}

	s.WriteString(t.Render())
	return boxStyle.Width(m.boxWidth()).Render(s.String())
}

func (m driveModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	stats := m.host.session.Stats()

	errorValue := statsValueStyle.Render("0")
	if faults := stats.ChecksumMismatches + stats.IdentityMismatches + stats.RegistrationErrors; faults > 0 {
		errorValue = errorStyle.Render(strconv.FormatUint(faults, 10))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Lines:"), statsValueStyle.Render(strconv.FormatUint(stats.TotalLines, 10)),
		statsLabelStyle.Render("Telemetry:"), statsValueStyle.Render(strconv.FormatUint(stats.TelemetryPackets, 10)),
		statsLabelStyle.Render("Sent:"), statsValueStyle.Render(strconv.FormatUint(m.host.writer.Sent(), 10)),
		statsLabelStyle.Render("Errors:"), errorValue,
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f lines/s", stats.LineRate)),
	)

	return boxStyle.Width(m.boxWidth()).Render(content)
}

func (m driveModel) renderEventLog(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	entries := m.logs.tail(eventLogLines)
	if len(entries) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for _, entry := range entries {
		icon := "i"
		style := warningStyle
		if entry.isError {
			icon = "x"
			style = errorStyleLocal
		}
		s.WriteString(fmt.Sprintf("%s %s %s\n",
			headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
			style.Render(icon),
			entry.message))
	}

	return boxStyle.Width(m.boxWidth()).Render(s.String())
}
