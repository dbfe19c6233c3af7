// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roverlab/dynctl/pkg/dxl"
)

var resetKind string

var rebootCmd = &cobra.Command{
	Use:   "reboot <id>",
	Short: "Reboot a motor",
	Args:  cobra.ExactArgs(1),
	RunE:  runReboot,
}

var resetCmd = &cobra.Command{
	Use:   "reset <id>",
	Short: "Factory-reset a motor's control table",
	Long: `Reset a motor's control table to factory defaults.

The --keep flag selects what survives:
  none      reset everything, including ID and baud rate
  id        keep the motor ID
  id+baud   keep the motor ID and baud rate (default)

Resetting the ID or baud rate of a motor you are talking through will
drop it off the bus until you reconfigure the connection.`,
	Args: cobra.ExactArgs(1),
	RunE: runReset,
}

var clearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Clear a motor's multi-turn revolution counter",
	Long: `Clear the multi-turn revolution counter, re-homing the present
position into a single revolution. The motor must be stationary or it
will reject the instruction.`,
	Args: cobra.ExactArgs(1),
	RunE: runClear,
}

func init() {
	resetCmd.Flags().StringVar(&resetKind, "keep", "id+baud", "Settings to keep: none, id, id+baud")
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(clearCmd)
}

func runReboot(cmd *cobra.Command, args []string) error {
	id, err := parseMotorID(args[0])
	if err != nil {
		return err
	}

	bus, _, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	if _, err := bus.Reboot(id); err != nil {
		return err
	}
	fmt.Printf("Motor %d rebooting\n", id)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	id, err := parseMotorID(args[0])
	if err != nil {
		return err
	}

	var kind dxl.FactoryResetKind
	switch resetKind {
	case "none":
		kind = dxl.ResetAll
	case "id":
		kind = dxl.ResetKeepID
	case "id+baud":
		kind = dxl.ResetKeepIDAndBaud
	default:
		return fmt.Errorf("invalid --keep value %q (use none, id or id+baud)", resetKind)
	}

	bus, _, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	if _, err := bus.FactoryReset(id, kind); err != nil {
		return err
	}
	fmt.Printf("Motor %d reset (keep: %s)\n", id, resetKind)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	id, err := parseMotorID(args[0])
	if err != nil {
		return err
	}

	bus, _, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	if _, err := bus.ClearMultiTurn(id); err != nil {
		return err
	}
	fmt.Printf("Motor %d multi-turn counter cleared\n", id)
	return nil
}
