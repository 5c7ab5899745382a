// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorLoop_PrintsLines(t *testing.T) {
	var out bytes.Buffer
	stats := freeroam.NewStatistics()

	stream := "5|2|10|-3.5|0|6.5\n5|2|10|-3.5|0|7\nnoise\ngood:1\n"
	err := monitorLoop(context.Background(), strings.NewReader(stream), &out, stats)
	require.NoError(t, err, "end of stream is a clean exit")

	assert.Contains(t, out.String(), "TELEMETRY")
	assert.Contains(t, out.String(), "[ANOMALY] Telemetry checksum mismatch")
	assert.Equal(t, uint64(4), stats.TotalLines)
	assert.Equal(t, uint64(1), stats.ChecksumMismatches)
}

func TestMonitorLoop_CancelOnQuietLink(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- monitorLoop(ctx, pr, io.Discard, freeroam.NewStatistics())
	}()

	// One line proves the reader is running; after it the link goes quiet
	_, err := pw.Write([]byte("good:1\n"))
	require.NoError(t, err)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not return while the read was blocked")
	}

	// Closing the connection releases the reader goroutine
	require.NoError(t, pr.Close())
}
