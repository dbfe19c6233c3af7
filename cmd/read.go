// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab

package cmd

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <id> <address> <count>",
	Short: "Read bytes from a motor register",
	Long: `Read raw bytes from a motor's control table.

Values are printed as hex bytes plus little-endian decodings for common
widths. No unit conversion is applied; consult the motor manual for
register semantics.`,
	Args: cobra.ExactArgs(3),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
}

func parseU16(arg, what string) (uint16, error) {
	v, err := strconv.ParseUint(arg, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, arg, err)
	}
	return uint16(v), nil
}

func runRead(cmd *cobra.Command, args []string) error {
	id, err := parseMotorID(args[0])
	if err != nil {
		return err
	}
	address, err := parseU16(args[1], "address")
	if err != nil {
		return err
	}
	count, err := parseU16(args[2], "count")
	if err != nil {
		return err
	}

	bus, _, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	resp, err := bus.Read(id, address, count)
	if err != nil {
		return err
	}

	fmt.Printf("ID %d, address %d, %d byte(s): % X\n", resp.MotorID, address, count, resp.Data)
	switch len(resp.Data) {
	case 2:
		fmt.Printf("  u16: %d\n", binary.LittleEndian.Uint16(resp.Data))
	case 4:
		fmt.Printf("  u32: %d\n", binary.LittleEndian.Uint32(resp.Data))
	}
	if resp.Alert {
		fmt.Println("Alert flag set: check the hardware error status register")
	}
	return nil
}
