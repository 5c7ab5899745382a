// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/spf13/cobra"
)

var (
	packetTestTimeout int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a recognized Freeroam line",
	Long: `Wait for a recognized Freeroam line on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any line
that classifies as an init burst, handshake beacon, telemetry report or
ack. Unrecognized lines are counted and skipped.

Exit codes:
  0 - Line received before timeout
  1 - Timeout reached without receiving a recognized line
  2 - Connection error

Useful for testing connectivity to the radio bridge.`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a line")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		exitf(2, "Connection error: %v\n", err)
	}
	defer conn.Close()

	fmt.Printf("roamctl - Packet Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for a recognized line...\n\n")

	reassembler := freeroam.NewReassembler()
	buf := make([]byte, 128)

	packetChan := make(chan freeroam.Packet, 1)
	errChan := make(chan error, 1)

	go func() {
		skipped := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			lines, feedErr := reassembler.Feed(buf[:n])
			for _, line := range lines {
				p := freeroam.Classify(line)
				if p.Kind == freeroam.KindUnrecognized {
					skipped++
					continue
				}
				if skipped > 0 {
					fmt.Printf("(skipped %d unrecognized lines)\n", skipped)
				}
				packetChan <- p
				return
			}
			if feedErr != nil {
				skipped++
				reassembler.Reset()
			}
		}
	}()

	select {
	case p := <-packetChan:
		fmt.Printf("SUCCESS: Received %s\n", p.Kind)
		fmt.Print(freeroam.FormatPacket(p))
		os.Exit(0)

	case err := <-errChan:
		exitf(2, "Read error: %v\n", err)

	case <-time.After(time.Duration(packetTestTimeout) * time.Second):
		exitf(1, "TIMEOUT: No recognized line received within %d seconds\n", packetTestTimeout)
	}

	return nil
}
