// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

// Observer receives the raw bytes of bus traffic for logging or protocol
// analysis. Notifications are advisory and never affect control flow. The
// byte slices are only valid for the duration of the call; observers that
// retain them must copy.
type Observer interface {
	// InstructionSent is called with each transmitted instruction frame.
	InstructionSent(raw []byte)

	// StatusReceived is called with each checksum-valid status frame,
	// as received on the wire (stuffed).
	StatusReceived(raw []byte)

	// NoiseDiscarded is called with byte spans dropped while seeking a
	// frame header, including failed candidate frames.
	NoiseDiscarded(raw []byte)
}

type nopObserver struct{}

func (nopObserver) InstructionSent([]byte) {}
func (nopObserver) StatusReceived([]byte)  {}
func (nopObserver) NoiseDiscarded([]byte)  {}
