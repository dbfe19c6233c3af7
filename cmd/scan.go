// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roverlab/dynctl/pkg/dxl"
)

var (
	scanStart     uint8
	scanEnd       uint8
	scanBroadcast bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the bus for motors",
	Long: `Ping every motor ID in a range and report the ones that answer.

With --broadcast a single broadcast ping is sent instead and replies are
collected until the bus goes quiet; this is faster but relies on motors
backing off by ID, which some older firmware does not do reliably.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Uint8Var(&scanStart, "start", 0, "First motor ID to probe")
	scanCmd.Flags().Uint8Var(&scanEnd, "end", 252, "Last motor ID to probe")
	scanCmd.Flags().BoolVar(&scanBroadcast, "broadcast", false, "Use a single broadcast ping")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	bus, connInfo, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	fmt.Printf("Scanning %s\n\n", connInfo)

	found := 0
	report := func(resp dxl.Response[dxl.PingResponse]) {
		found++
		alert := ""
		if resp.Alert {
			alert = "  [alert]"
		}
		fmt.Printf("  ID %3d  model %5d  firmware v%d%s\n", resp.MotorID, resp.Data.Model, resp.Data.Firmware, alert)
	}

	if scanBroadcast {
		err = bus.BroadcastPing(report)
	} else {
		err = bus.Scan(scanStart, scanEnd, report)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n%d motor(s) found\n", found)
	return nil
}
