// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/freeroam/roamctl/pkg/link"
	"github.com/spf13/cobra"
)

var linkCheckDuration int

var linkCheckCmd = &cobra.Command{
	Use:   "link_check",
	Short: "Test raw connection stability",
	Long: `Hold the connection open without sending anything, logging every chunk
received and any error encountered. Useful for debugging a flaky radio
bridge or WebSocket proxy.

Exit codes:
  0 - Test completed normally
  1 - Connection failed during the test
  2 - Connection error`,
	RunE: runLinkCheck,
}

func init() {
	rootCmd.AddCommand(linkCheckCmd)
	linkCheckCmd.Flags().IntVar(&linkCheckDuration, "duration", 30, "Test duration in seconds")
}

// linkCheckResult counts what arrived during a link check.
type linkCheckResult struct {
	Bytes  int
	Chunks int
	Lines  int
}

func runLinkCheck(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		exitf(2, "Connection error: %v\n", err)
	}
	defer conn.Close()

	fmt.Printf("roamctl - Connection Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", linkCheckDuration)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(linkCheckDuration)*time.Second)
	defer cancel()

	start := time.Now()
	fmt.Printf("Listening for data...\n\n")
	result, err := linkCheckLoop(ctx, conn, os.Stdout, time.Second)

	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Chunks received: %d\n", result.Chunks)
	fmt.Printf("Lines received: %d\n", result.Lines)
	fmt.Printf("Bytes received: %d\n", result.Bytes)

	if err != nil {
		fmt.Printf("Result: FAILED (connection error)\n")
		conn.Close()
		os.Exit(1)
	}
	fmt.Printf("Result: PASSED (connection stable)\n")
	return nil
}

// linkCheckLoop logs every chunk read from r until ctx is done. A read
// error before then is returned; reaching the deadline is success.
func linkCheckLoop(ctx context.Context, r io.Reader, out io.Writer, heartbeatEvery time.Duration) (linkCheckResult, error) {
	var result linkCheckResult
	reassembler := freeroam.NewReassembler()
	record := func(data []byte) {
		result.Bytes += len(data)
		result.Chunks++
		lines, feedErr := reassembler.Feed(data)
		result.Lines += len(lines)
		if feedErr != nil {
			reassembler.Reset()
		}
		fmt.Fprintf(out, "[%s] Received %d bytes: %q\n",
			time.Now().Format("15:04:05.000"), len(data), data)
	}

	// Any read error ends the check, so every error counts as fatal.
	chunks, readErr := link.StreamChunks(ctx, r, func(error) bool { return true }, 100)

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return result, nil

		case data := <-chunks:
			record(data)

		case err := <-readErr:
			for len(chunks) > 0 {
				record(<-chunks)
			}
			if ctx.Err() != nil {
				return result, nil
			}
			fmt.Fprintf(out, "\n[%s] Connection error: %v\n",
				time.Now().Format("15:04:05.000"), err)
			return result, err

		case <-heartbeat.C:
			remaining := 0.0
			if deadline, ok := ctx.Deadline(); ok {
				remaining = time.Until(deadline).Seconds()
			}
			fmt.Fprintf(out, "[%s] Still connected... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), remaining)
		}
	}
}
