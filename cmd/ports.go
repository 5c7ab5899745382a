// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports on this machine. USB ports show their vendor and
product ids; the first USB port is what --port auto selects.`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	if len(ports) == 0 {
		fmt.Printf("No serial ports found\n")
		return nil
	}

	for _, port := range ports {
		fmt.Printf("%s\n", port.Name)
		if port.IsUSB {
			fmt.Printf("  USB ID: %s:%s\n", port.VID, port.PID)
			if port.SerialNumber != "" {
				fmt.Printf("  Serial: %s\n", port.SerialNumber)
			}
			if port.Product != "" {
				fmt.Printf("  Product: %s\n", port.Product)
			}
		}
	}
	return nil
}
