// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

// Package transports provides concrete byte-stream providers for the dxl
// transfer engine: physical serial ports, WebSocket bus bridges, and an
// in-memory loopback for tests.
package transports

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialConfig holds configuration for opening a serial port.
type SerialConfig struct {
	// Port is the device path, e.g. "/dev/ttyUSB0".
	Port string

	// BaudRate is the communication speed. Default 57600.
	BaudRate int

	// Timeout is the initial read timeout. The bus adjusts it per
	// receive operation. Default 100ms.
	Timeout time.Duration
}

// SerialTransport drives a physical serial port. Protocol 2.0 buses run
// 8 data bits, no parity, 1 stop bit at any supported baud rate.
type SerialTransport struct {
	port serial.Port
}

// OpenSerial opens and configures a serial port for bus communication.
func OpenSerial(cfg SerialConfig) (*SerialTransport, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 57600
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 100 * time.Millisecond
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}

	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &SerialTransport{port: port}, nil
}

func (s *SerialTransport) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialTransport) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialTransport) Close() error {
	return s.port.Close()
}

// SetReadTimeout bounds each blocking Read. A read that times out with no
// data returns (0, nil), which the bus treats as a quiet tick.
func (s *SerialTransport) SetReadTimeout(timeout time.Duration) error {
	return s.port.SetReadTimeout(timeout)
}

// Flush discards unread input buffered by the OS.
func (s *SerialTransport) Flush() error {
	return s.port.ResetInputBuffer()
}
