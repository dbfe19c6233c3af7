// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab

package cmd

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roverlab/dynctl/pkg/dxl"
)

var (
	writeWidth    int
	writeBuffered bool
)

var writeCmd = &cobra.Command{
	Use:   "write <id> <address> <value>",
	Short: "Write a value to a motor register",
	Long: `Write a value to a motor's control table.

The value is encoded little-endian at the given --width (1, 2 or 4 bytes).
With --buffered the write is staged on the motor and only takes effect
when an action instruction is sent (see 'dynctl action').

Use motor ID 254 to broadcast the write to every motor; broadcasts are
applied without a reply.`,
	Args: cobra.ExactArgs(3),
	RunE: runWrite,
}

var actionCmd = &cobra.Command{
	Use:   "action [id]",
	Short: "Trigger buffered writes",
	Long: `Trigger execution of staged (buffered) register writes.

Without an ID the action is broadcast, executing staged writes on every
motor simultaneously. This is the classic way to start a coordinated move
set up with 'dynctl write --buffered'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAction,
}

func init() {
	writeCmd.Flags().IntVarP(&writeWidth, "width", "w", 1, "Value width in bytes (1, 2 or 4)")
	writeCmd.Flags().BoolVar(&writeBuffered, "buffered", false, "Stage the write for a later action instruction")
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(actionCmd)
}

func runWrite(cmd *cobra.Command, args []string) error {
	id, err := parseMotorID(args[0])
	if err != nil {
		return err
	}
	address, err := parseU16(args[1], "address")
	if err != nil {
		return err
	}
	value, err := strconv.ParseUint(args[2], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[2], err)
	}

	var data []byte
	switch writeWidth {
	case 1:
		if value > 0xFF {
			return fmt.Errorf("value %d does not fit in 1 byte", value)
		}
		data = []byte{byte(value)}
	case 2:
		if value > 0xFFFF {
			return fmt.Errorf("value %d does not fit in 2 bytes", value)
		}
		data = binary.LittleEndian.AppendUint16(nil, uint16(value))
	case 4:
		data = binary.LittleEndian.AppendUint32(nil, uint32(value))
	default:
		return fmt.Errorf("invalid width %d (use 1, 2 or 4)", writeWidth)
	}

	bus, _, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	if writeBuffered {
		_, err = bus.RegWrite(id, address, data)
	} else {
		_, err = bus.Write(id, address, data)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d (% X) to ID %d address %d\n", value, data, id, address)
	return nil
}

func runAction(cmd *cobra.Command, args []string) error {
	id := dxl.BroadcastID
	if len(args) == 1 {
		var err error
		id, err = parseMotorID(args[0])
		if err != nil {
			return err
		}
	}

	bus, _, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	if _, err := bus.Action(id); err != nil {
		return err
	}
	fmt.Println("Action sent")
	return nil
}
