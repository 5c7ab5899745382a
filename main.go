// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// roamctl - Freeroam Platform Host Controller
//
// A CLI tool for registering, monitoring and driving Freeroam wheeled
// robot platforms over a serial radio bridge.

package main

import (
	"os"

	"github.com/freeroam/roamctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
