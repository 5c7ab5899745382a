// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// newLogger creates a console logger writing to w at the named level
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	return zerolog.New(console).Level(lvl).With().Timestamp().Logger(), nil
}

// logLine is one rendered log line held for the TUI
type logLine struct {
	timestamp time.Time
	message   string
	isError   bool
}

// logBuffer collects log output while the TUI owns the terminal. Writes may
// come from the link writer goroutine, so access is locked.
type logBuffer struct {
	mu      sync.Mutex
	lines   []logLine
	maxLine int
}

func newLogBuffer(maxLines int) *logBuffer {
	return &logBuffer{maxLine: maxLines}
}

// WriteLevel implements zerolog.LevelWriter. Events are rendered as plain
// console text without timestamps; the TUI prints its own.
func (b *logBuffer) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	var out bytes.Buffer
	console := zerolog.ConsoleWriter{
		Out:          &out,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	if _, err := console.Write(p); err != nil {
		return 0, err
	}
	b.append(strings.TrimRight(out.String(), "\n"), level >= zerolog.WarnLevel)
	return len(p), nil
}

// Write implements io.Writer
func (b *logBuffer) Write(p []byte) (int, error) {
	return b.WriteLevel(zerolog.NoLevel, p)
}

func (b *logBuffer) append(message string, isError bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, logLine{timestamp: time.Now(), message: message, isError: isError})
	if len(b.lines) > b.maxLine {
		b.lines = b.lines[len(b.lines)-b.maxLine:]
	}
}

// tail returns up to n of the most recent lines
func (b *logBuffer) tail(n int) []logLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > len(b.lines) {
		n = len(b.lines)
	}
	return append([]logLine(nil), b.lines[len(b.lines)-n:]...)
}

// bufferLogger builds a logger that writes into b
func bufferLogger(b *logBuffer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(b).Level(lvl), nil
}
