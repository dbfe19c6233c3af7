// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

import (
	"fmt"
	"sync"
	"time"
)

// Device implements the motor (slave) side of the protocol: it reads
// checksum-valid instruction packets from the bus and writes status
// replies. It exists for device emulators and mock motors; the master
// side lives on Bus.
//
// Addressing is the caller's concern: a received packet's ID may name
// this motor, another motor, or the broadcast ID, and the caller decides
// whether (and as whom) to reply. A Device never replies on its own.
type Device struct {
	transport Transport
	timeout   time.Duration
	observer  Observer

	mu      sync.Mutex
	scanner *scanner
	readBuf []byte
	closed  bool
}

// NewDevice creates a Device over the given transport. The Config is
// shared with New; only noise notifications fire on a device's observer,
// the sent/received hooks are master-side.
func NewDevice(cfg Config) (*Device, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 100 * time.Millisecond
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Device{
		transport: cfg.Transport,
		timeout:   cfg.Timeout,
		observer:  observer,
		scanner:   newScanner(observer),
		readBuf:   make([]byte, 512),
	}, nil
}

// Close closes the device and its transport.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.transport.Close()
}

// ReadInstruction reads the next instruction packet from the bus, or
// fails with a timeout or I/O error. Status frames from other motors and
// corrupt candidates are skipped internally. A serving loop calls this
// repeatedly, treating timeouts as a quiet bus.
func (d *Device) ReadInstruction() (InstructionPacket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return InstructionPacket{}, ErrBusClosed
	}

	deadline := time.Now().Add(d.timeout)
	for {
		pkt, err := d.scanner.nextInstruction()
		if err == nil {
			return pkt, nil
		}
		if err != errNeedMore {
			return InstructionPacket{}, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			corrupt := d.scanner.lastCorrupt
			d.scanner.reset()
			if corrupt != nil {
				return InstructionPacket{}, fmt.Errorf("%w: %w", ErrTimeout, corrupt)
			}
			return InstructionPacket{}, ErrTimeout
		}

		if err := d.transport.SetReadTimeout(remaining); err != nil {
			return InstructionPacket{}, &CommError{Op: "read", Err: err}
		}
		n, err := d.transport.Read(d.readBuf)
		if err != nil {
			return InstructionPacket{}, &CommError{Op: "read", Err: err}
		}
		if n == 0 {
			continue
		}
		d.scanner.push(d.readBuf[:n])
	}
}

// WriteStatus encodes and transmits a status reply.
func (d *Device) WriteStatus(pkt StatusPacket) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrBusClosed
	}

	wire := EncodeStatus(pkt)
	n, err := d.transport.Write(wire)
	if err != nil {
		return &CommError{Op: "write", Err: err}
	}
	if n != len(wire) {
		return &CommError{Op: "write", Err: fmt.Errorf("short write: %d of %d bytes", n, len(wire))}
	}
	return nil
}

// WriteStatusOK writes an empty success reply for the given motor ID.
func (d *Device) WriteStatusOK(id byte) error {
	return d.WriteStatus(StatusPacket{ID: id})
}

// WriteStatusError writes an empty reply carrying the given raw error
// field (result code plus alert bit).
func (d *Device) WriteStatusError(id, errField byte) error {
	return d.WriteStatus(StatusPacket{ID: id, Error: errField})
}
