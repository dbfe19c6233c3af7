// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/roverlab/dynctl/pkg/transports"
)

func newTestDevice(t *testing.T) (*Device, *transports.MockTransport) {
	t.Helper()

	mock := &transports.MockTransport{}
	dev, err := NewDevice(Config{Transport: mock, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewDevice() error: %v", err)
	}
	return dev, mock
}

func TestDeviceReadInstruction(t *testing.T) {
	dev, mock := newTestDevice(t)

	wire, err := EncodeInstruction(InstructionPacket{
		ID:          1,
		Instruction: InstWrite,
		Parameters:  []byte{0x41, 0x00, 0x01},
	})
	if err != nil {
		t.Fatal(err)
	}
	mock.QueueRead(wire)

	pkt, err := dev.ReadInstruction()
	if err != nil {
		t.Fatalf("ReadInstruction() error: %v", err)
	}
	if pkt.ID != 1 {
		t.Errorf("ID = %d, want 1", pkt.ID)
	}
	if pkt.Instruction != InstWrite {
		t.Errorf("Instruction = 0x%02X, want 0x%02X", pkt.Instruction, InstWrite)
	}
	if !bytes.Equal(pkt.Parameters, []byte{0x41, 0x00, 0x01}) {
		t.Errorf("Parameters = % X", pkt.Parameters)
	}
}

func TestDeviceReadInstructionUnstuffsParameters(t *testing.T) {
	dev, mock := newTestDevice(t)

	wire, err := EncodeInstruction(InstructionPacket{
		ID:          1,
		Instruction: InstWrite,
		Parameters:  []byte{0x10, 0x00, 0xFF, 0xFF, 0xFD},
	})
	if err != nil {
		t.Fatal(err)
	}
	mock.QueueRead(wire)

	pkt, err := dev.ReadInstruction()
	if err != nil {
		t.Fatalf("ReadInstruction() error: %v", err)
	}
	if !bytes.Equal(pkt.Parameters, []byte{0x10, 0x00, 0xFF, 0xFF, 0xFD}) {
		t.Errorf("Parameters = % X, stuffing not removed", pkt.Parameters)
	}
}

func TestDeviceSkipsStatusFrames(t *testing.T) {
	dev, mock := newTestDevice(t)

	// Another motor's reply on the shared bus, then an instruction.
	mock.QueueRead(EncodeStatus(StatusPacket{ID: 2, Parameters: []byte{0x06, 0x04, 0x26}}))
	wire, err := EncodeInstruction(InstructionPacket{ID: 1, Instruction: InstPing})
	if err != nil {
		t.Fatal(err)
	}
	mock.QueueRead(wire)

	pkt, err := dev.ReadInstruction()
	if err != nil {
		t.Fatalf("ReadInstruction() error: %v", err)
	}
	if pkt.Instruction != InstPing {
		t.Errorf("Instruction = 0x%02X, want ping after skipping the status frame", pkt.Instruction)
	}
}

func TestDeviceReadTimeout(t *testing.T) {
	dev, _ := newTestDevice(t)

	start := time.Now()
	_, err := dev.ReadInstruction()
	if !IsTimeout(err) {
		t.Fatalf("ReadInstruction() = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("timed out after %v, before the 50ms budget", elapsed)
	}
}

func TestDeviceWriteStatus(t *testing.T) {
	dev, mock := newTestDevice(t)

	if err := dev.WriteStatus(StatusPacket{ID: 1}); err != nil {
		t.Fatalf("WriteStatus() error: %v", err)
	}

	want := []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x04, 0x00, 0x55, 0x00, 0xA1, 0x0C}
	if !bytes.Equal(mock.Written(), want) {
		t.Errorf("wire = % X, want % X", mock.Written(), want)
	}
}

func TestDeviceWriteStatusError(t *testing.T) {
	dev, mock := newTestDevice(t)

	if err := dev.WriteStatusError(1, ResultAccess); err != nil {
		t.Fatalf("WriteStatusError() error: %v", err)
	}

	want := []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x04, 0x00, 0x55, 0x07, 0xB0, 0x8C}
	if !bytes.Equal(mock.Written(), want) {
		t.Errorf("wire = % X, want % X", mock.Written(), want)
	}
}

func TestDeviceClosed(t *testing.T) {
	dev, mock := newTestDevice(t)
	if err := dev.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !mock.Closed() {
		t.Error("transport not closed")
	}

	if _, err := dev.ReadInstruction(); !errors.Is(err, ErrBusClosed) {
		t.Errorf("ReadInstruction() on closed device = %v, want ErrBusClosed", err)
	}
	if err := dev.WriteStatus(StatusPacket{ID: 1}); !errors.Is(err, ErrBusClosed) {
		t.Errorf("WriteStatus() on closed device = %v, want ErrBusClosed", err)
	}
}

// TestDeviceServesBus wires a Bus and a Device back to back through two
// cross-feeding mock transports: a full ping exchange driven from both
// ends of the wire.
func TestDeviceServesBus(t *testing.T) {
	busSide := &transports.MockTransport{}
	devSide := &transports.MockTransport{}
	busSide.OnWrite = func(p []byte) { devSide.QueueRead(p) }
	devSide.OnWrite = func(p []byte) { busSide.QueueRead(p) }

	bus, err := New(Config{Transport: busSide, Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	dev, err := NewDevice(Config{Transport: devSide, Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	serveErr := make(chan error, 1)
	go func() {
		pkt, err := dev.ReadInstruction()
		if err != nil {
			serveErr <- err
			return
		}
		if pkt.Instruction != InstPing || pkt.ID != 1 {
			serveErr <- errors.New("unexpected instruction")
			return
		}
		serveErr <- dev.WriteStatus(StatusPacket{ID: 1, Parameters: []byte{0x06, 0x04, 0x26}})
	}()

	resp, err := bus.Ping(1)
	if err != nil {
		t.Fatalf("Ping() against device: %v", err)
	}
	if resp.Data.Model != 0x0406 || resp.Data.Firmware != 0x26 {
		t.Errorf("decoded %+v, want model 0x0406 firmware 0x26", resp.Data)
	}

	if err := <-serveErr; err != nil {
		t.Fatalf("device side: %v", err)
	}
}
