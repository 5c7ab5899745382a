// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Host flags
	configPath string
	dataDir    string
	logLevel   string

	// logger is configured in PersistentPreRunE
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "roamctl",
	Short: "Freeroam platform host controller",
	Long: `roamctl - host-side controller for Freeroam wheeled robot platforms.

Registers platforms that announce themselves over the serial link, answers
their init bursts, collects position telemetry and drives them from the
keyboard.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 57600]   (--port auto picks the first USB port)
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the ROAMCTL_PASSWORD
environment variable, or prompted interactively if not set.

Settings not given on the command line are read from a TOML file
(--config, default <user config dir>/roamctl/config.toml).`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupHost,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device, or \"auto\"")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", freeroam.DefaultBaudRate, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Host flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Directory holding the platform registry")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
}

// setupHost loads the configuration file and builds the logger
func setupHost(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}

	l, err := newLogger(os.Stderr, logLevel)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func exitf(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}
