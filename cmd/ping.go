// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping <id>",
	Short: "Ping a single motor",
	Args:  cobra.ExactArgs(1),
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

// parseMotorID parses a motor ID argument.
func parseMotorID(arg string) (byte, error) {
	id, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid motor ID %q: %w", arg, err)
	}
	return byte(id), nil
}

func runPing(cmd *cobra.Command, args []string) error {
	id, err := parseMotorID(args[0])
	if err != nil {
		return err
	}

	bus, _, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	resp, err := bus.Ping(id)
	if err != nil {
		return err
	}

	fmt.Printf("ID %d: model %d, firmware v%d\n", resp.MotorID, resp.Data.Model, resp.Data.Firmware)
	if resp.Alert {
		fmt.Println("Alert flag set: check the hardware error status register")
	}
	return nil
}
