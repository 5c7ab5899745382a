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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkCheckLoop_ReadErrorFails(t *testing.T) {
	var out bytes.Buffer
	result, err := linkCheckLoop(context.Background(), strings.NewReader("0|0\n1|2\n"), &out, time.Hour)

	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 8, result.Bytes)
	assert.Equal(t, 1, result.Chunks)
	assert.Equal(t, 2, result.Lines)
	assert.Contains(t, out.String(), "Connection error")
}

func TestLinkCheckLoop_QuietLinkPassesAtDeadline(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()

	go func() {
		_, _ = pw.Write([]byte("0|0\n"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	var result linkCheckResult
	var err error
	go func() {
		result, err = linkCheckLoop(ctx, pr, io.Discard, 50*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("link check did not stop at its deadline")
	}
	require.NoError(t, err)
	assert.Equal(t, 4, result.Bytes)
	assert.Equal(t, 1, result.Lines)
}
