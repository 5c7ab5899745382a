// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/freeroam/roamctl/pkg/link"
	"github.com/spf13/cobra"
)

var estopRepeat int

var estopCmd = &cobra.Command{
	Use:   "estop",
	Short: "Send an emergency stop to every platform",
	Long: `Broadcast the emergency-stop command and exit.

Every platform listening on the link stops its motors. The command is
repeated --repeat times, one control interval apart, since the radio link
does not acknowledge it.

Exit codes:
  0 - Emergency stop written
  1 - Write failed
  2 - Connection error`,
	RunE: runEStop,
}

func init() {
	rootCmd.AddCommand(estopCmd)
	estopCmd.Flags().IntVar(&estopRepeat, "repeat", 3, "Number of times to send the command")
}

func runEStop(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		exitf(2, "Connection error: %v\n", err)
	}
	defer conn.Close()

	fmt.Printf("roamctl - Emergency Stop\n")
	fmt.Printf("Connection: %s\n", connInfo)

	writer := link.NewAsyncWriter(conn, link.WithWriterLogger(logger))

	interval := settings.Control.Interval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	sendEStops(cmd.Context(), writer, estopRepeat, interval)

	if err := writer.Close(); err != nil {
		return err
	}

	if writer.Sent() == 0 {
		exitf(1, "SEND FAILED: %d write(s) failed\n", writer.Failed())
	}
	fmt.Printf("Sent %s %d time(s)\n", freeroam.FormatCommand(freeroam.EmergencyStop{}), writer.Sent())
	return nil
}

// sendEStops queues the emergency stop n times, at least once, waiting
// interval between sends. It returns how many were queued.
func sendEStops(ctx context.Context, sender freeroam.Sender, n int, interval time.Duration) int {
	n = max(n, 1)
	for i := 0; i < n; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return i
			case <-time.After(interval):
			}
		}
		sender.Send(freeroam.EmergencyStop{})
	}
	return n
}
