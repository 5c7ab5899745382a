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
	"time"

	"github.com/freeroam/roamctl/pkg/link"
	"github.com/freeroam/roamctl/pkg/registry"
	"github.com/freeroam/roamctl/pkg/session"
	"github.com/freeroam/roamctl/pkg/telemetry"
	"github.com/spf13/cobra"
)

var serveStatsInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the platform host without a user interface",
	Long: `Answer init bursts, register new platforms and collect telemetry.

Platforms announcing themselves are assigned an id from the registry in
--data-dir and sent an init reply carrying the session key and their
calibration. Telemetry is logged and, with --mqtt-broker, published to
<prefix>/platform/<id>/telemetry.

Statistics are printed every --stats-interval. The command stops on Ctrl+C,
when the link closes, or when a line exceeds the frame length limit.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addSessionFlags(serveCmd)
	serveCmd.Flags().DurationVar(&serveStatsInterval, "stats-interval", 30*time.Second, "Statistics print interval (0 to disable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		exitf(2, "Connection error: %v\n", err)
	}
	defer conn.Close()

	h, err := newHost(conn, logger, nil, telemetry.NewLogSink(logger))
	if err != nil {
		return err
	}
	defer h.Close()

	fmt.Printf("roamctl - Platform Host\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Registry: %s\n", registryPath())
	fmt.Printf("Session key: %d\n", h.session.Key())
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = serveLoop(ctx, conn, h, serveStatsInterval)

	stats := h.session.Stats()
	stats.CalculateRates()
	fmt.Print(stats.String())
	fmt.Printf("Writes: %d sent, %d failed\n", h.writer.Sent(), h.writer.Failed())

	return err
}

// serveLoop feeds the session from a single goroutine. Reads happen on
// their own goroutine and arrive as chunks; the caller closes conn to
// release a read still blocked after ctx is done.
func serveLoop(ctx context.Context, conn Connection, h *host, statsInterval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, readErr := link.StreamChunks(ctx, conn, isFatalReadError, 16)

	var tick <-chan time.Time
	if statsInterval > 0 {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case chunk := <-chunks:
			if err := h.session.Feed(ctx, chunk); err != nil {
				logger.Error().Err(err).Msg("session ended")
				return err
			}

		case err := <-readErr:
			if feedErr := drainChunks(ctx, chunks, h.session); feedErr != nil {
				return feedErr
			}
			if ctx.Err() != nil || errors.Is(err, io.EOF) || isFatalReadError(err) {
				logger.Info().Msg("connection closed")
				return nil
			}
			return fmt.Errorf("link read failed: %w", err)

		case <-tick:
			stats := h.session.Stats()
			stats.CalculateRates()
			logger.Info().
				Uint64("lines", stats.TotalLines).
				Uint64("telemetry", stats.TelemetryPackets).
				Uint64("registrations", stats.Registrations).
				Float64("lines_per_sec", stats.LineRate).
				Msg("statistics")
		}
	}
}

// drainChunks feeds whatever was read before the link failed
func drainChunks(ctx context.Context, chunks <-chan []byte, sess *session.Session) error {
	for len(chunks) > 0 {
		if err := sess.Feed(ctx, <-chunks); err != nil {
			return err
		}
	}
	return nil
}

func registryPath() string {
	return registry.NewFileStore(dataDir, registry.DocumentName).Path()
}
