// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab
//
// Dynctl - DYNAMIXEL Protocol 2.0 bus tool
//
// A CLI tool for discovering, configuring and monitoring DYNAMIXEL
// servos over serial or WebSocket-bridged buses.

package main

import (
	"fmt"
	"os"

	"github.com/roverlab/dynctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
