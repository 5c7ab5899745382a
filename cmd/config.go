// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/freeroam/roamctl/pkg/drive"
	"github.com/freeroam/roamctl/pkg/registry"
	"github.com/freeroam/roamctl/pkg/telemetry"
	"github.com/spf13/cobra"
)

// hostConfig is the TOML configuration file layout
type hostConfig struct {
	Port       string `toml:"port"`
	Baud       int    `toml:"baud"`
	URL        string `toml:"url"`
	Username   string `toml:"username"`
	DataDir    string `toml:"data_dir"`
	LogLevel   string `toml:"log_level"`
	Strict     bool   `toml:"strict"`
	EagerFlush bool   `toml:"eager_flush"`

	Platform registry.Profile     `toml:"platform"`
	Control  drive.Config         `toml:"control"`
	MQTT     telemetry.MQTTConfig `toml:"mqtt"`
}

// settings holds the loaded configuration; flags given on the command line win
var settings = defaultHostConfig()

func defaultHostConfig() hostConfig {
	return hostConfig{
		Platform: registry.DefaultProfile(),
		Control:  drive.DefaultConfig(),
	}
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "roamctl")
}

func defaultDataDir() string {
	return defaultConfigDir()
}

// readConfigFile decodes path over the defaults. A missing file is only an
// error when it was asked for explicitly.
func readConfigFile(path string, explicit bool) (hostConfig, error) {
	cfg := defaultHostConfig()

	meta, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("unknown keys in config %s: %v", path, undecoded)
	}
	return cfg, nil
}

// loadConfig reads the configuration file and fills in every persistent
// flag that was not set on the command line
func loadConfig(cmd *cobra.Command) error {
	path, explicit := configPath, configPath != ""
	if !explicit {
		path = filepath.Join(defaultConfigDir(), "config.toml")
	}

	cfg, err := readConfigFile(path, explicit)
	if err != nil {
		return err
	}
	settings = cfg

	applyString := func(flag string, dst *string, v string) {
		if v != "" && !cmd.Flags().Changed(flag) {
			*dst = v
		}
	}
	applyString("port", &portName, cfg.Port)
	applyString("url", &wsURL, cfg.URL)
	applyString("username", &wsUsername, cfg.Username)
	applyString("data-dir", &dataDir, cfg.DataDir)
	applyString("log-level", &logLevel, cfg.LogLevel)

	if cfg.Baud > 0 && !cmd.Flags().Changed("baud") {
		baudRate = cfg.Baud
	}
	return nil
}
