// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/freeroam/roamctl/pkg/link"
	"github.com/spf13/cobra"
)

var monitorShowStats bool

var monitorCmd = &cobra.Command{
	Use:     "monitor",
	Aliases: []string{"raw_log"},
	Short:   "Display every line from the link in human-readable format",
	Long: `Continuously classify and display Freeroam lines as they arrive.

Each line is printed with a timestamp, its kind (init burst, handshake
beacon, telemetry, ack or unrecognized) and its decoded fields. Nothing is
sent to the platforms; use serve or drive to answer init bursts.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowStats, "stats", false, "Print statistics on exit")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("roamctl - Line Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := freeroam.NewStatistics()
	err = monitorLoop(ctx, conn, os.Stdout, stats)

	if monitorShowStats {
		stats.CalculateRates()
		fmt.Print(stats.String())
	}
	return err
}

// monitorLoop prints every line read from r until ctx is cancelled or the
// link closes. It returns on cancellation even while a read is blocked;
// the caller closes the connection to release the reader.
func monitorLoop(ctx context.Context, r io.Reader, out io.Writer, stats *freeroam.Statistics) error {
	reassembler := freeroam.NewReassembler()
	chunks, readErr := link.StreamChunks(ctx, r, isFatalReadError, 16)

	for {
		select {
		case <-ctx.Done():
			return nil

		case chunk := <-chunks:
			printLines(out, reassembler, stats, chunk)

		case err := <-readErr:
			for len(chunks) > 0 {
				printLines(out, reassembler, stats, <-chunks)
			}
			if ctx.Err() != nil || errors.Is(err, io.EOF) || isFatalReadError(err) {
				logger.Info().Msg("connection closed")
				return nil
			}
			return err
		}
	}
}

func printLines(out io.Writer, reassembler *freeroam.Reassembler, stats *freeroam.Statistics, chunk []byte) {
	lines, feedErr := reassembler.Feed(chunk)
	for _, line := range lines {
		p := freeroam.Classify(line)
		validationErrors := freeroam.ValidatePacket(p)
		stats.Update(p, validationErrors)

		fmt.Fprint(out, freeroam.FormatPacket(p))
		for _, v := range validationErrors {
			if v.Type != freeroam.AnomalyUnrecognized {
				fmt.Fprintf(out, "  [ANOMALY] %s\n", v.Message)
			}
		}
	}
	if feedErr != nil {
		stats.FramesTooLong++
		fmt.Fprintf(out, "[ERROR] %v\n", feedErr)
		reassembler.Reset()
	}
}
