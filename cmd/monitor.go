// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/roverlab/dynctl/pkg/dxl"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display bus traffic in human-readable form",
	Long: `Passively listen on the bus and print every status frame as it
arrives, with noise spans reported separately.

Useful for watching another master drive the bus, or for diagnosing
framing problems: corrupt frames and garbage bytes show up as noise
instead of silently disappearing.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// monitorObserver prints raw traffic spans with timestamps.
type monitorObserver struct{}

func (monitorObserver) InstructionSent(raw []byte) {}

func (monitorObserver) StatusReceived(raw []byte) {
	fmt.Printf("[%s] frame  % X\n", time.Now().Format("15:04:05.000"), raw)
}

func (monitorObserver) NoiseDiscarded(raw []byte) {
	fmt.Printf("[%s] noise  % X\n", time.Now().Format("15:04:05.000"), raw)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	transport, connInfo, err := openTransport()
	if err != nil {
		return err
	}

	bus, err := dxl.New(dxl.Config{
		Transport: transport,
		Timeout:   busTimeout,
		Observer:  monitorObserver{},
	})
	if err != nil {
		transport.Close()
		return err
	}
	defer bus.Close()

	fmt.Printf("Dynctl - Bus Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	for {
		pkt, err := bus.ReadStatus()
		if err != nil {
			if dxl.IsTimeout(err) {
				continue
			}
			log.Printf("Read error: %v", err)
			return err
		}

		status := "ok"
		if code := pkt.ResultCode(); code != dxl.ResultOK {
			status = fmt.Sprintf("error 0x%02X", code)
		}
		if pkt.Alert() {
			status += " alert"
		}
		fmt.Printf("           id %3d  %-12s %d param byte(s)\n", pkt.ID, status, len(pkt.Parameters))
	}
}
