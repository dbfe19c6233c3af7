// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

import (
	"bytes"
	"testing"
)

func TestEncodeInstruction(t *testing.T) {
	tests := []struct {
		name string
		pkt  InstructionPacket
		want []byte
	}{
		{
			name: "ping",
			pkt:  InstructionPacket{ID: 1, Instruction: InstPing},
			want: []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x03, 0x00, 0x01, 0x19, 0x4E},
		},
		{
			name: "reboot",
			pkt:  InstructionPacket{ID: 1, Instruction: InstReboot},
			want: []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x03, 0x00, 0x08, 0x2F, 0x4E},
		},
		{
			name: "write with parameters",
			pkt: InstructionPacket{
				ID:          1,
				Instruction: InstWrite,
				Parameters:  []byte{0x41, 0x00, 0x01},
			},
			want: []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x06, 0x00, 0x03, 0x41, 0x00, 0x01, 0xCC, 0xE6},
		},
		{
			name: "parameters get stuffed and length counts the stuffing",
			pkt: InstructionPacket{
				ID:          1,
				Instruction: InstWrite,
				Parameters:  []byte{0x10, 0x00, 0xFF, 0xFF, 0xFD},
			},
			want: []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x08, 0x00, 0x03, 0x10, 0x00, 0xFF, 0xFF, 0xFD, 0xFD, 0xC7, 0xE3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeInstruction(tt.pkt)
			if err != nil {
				t.Fatalf("EncodeInstruction() error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeInstruction() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestEncodeInstructionTooLarge(t *testing.T) {
	pkt := InstructionPacket{
		ID:          1,
		Instruction: InstWrite,
		Parameters:  make([]byte, MaxPacketSize),
	}
	if _, err := EncodeInstruction(pkt); err == nil {
		t.Error("expected error for oversized packet")
	}
}

func TestEncodeStatus(t *testing.T) {
	tests := []struct {
		name string
		pkt  StatusPacket
		want []byte
	}{
		{
			name: "write ack",
			pkt:  StatusPacket{ID: 1},
			want: []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x04, 0x00, 0x55, 0x00, 0xA1, 0x0C},
		},
		{
			name: "ping reply with model and firmware",
			pkt:  StatusPacket{ID: 1, Parameters: []byte{0x06, 0x04, 0x26}},
			want: []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x07, 0x00, 0x55, 0x00, 0x06, 0x04, 0x26, 0x65, 0x5D},
		},
		{
			name: "error field carried",
			pkt:  StatusPacket{ID: 1, Error: 0x07},
			want: []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x04, 0x00, 0x55, 0x07, 0xB0, 0x8C},
		},
		{
			name: "stuffed reply parameters",
			pkt:  StatusPacket{ID: 1, Parameters: []byte{0xFF, 0xFF, 0xFD, 0x01}},
			want: []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x09, 0x00, 0x55, 0x00, 0xFF, 0xFF, 0xFD, 0xFD, 0x01, 0xDD, 0x1C},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeStatus(tt.pkt)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeStatus() = % X, want % X", got, tt.want)
			}
		})
	}
}
