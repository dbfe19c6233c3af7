// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// Bus is the transfer engine for one physical servo bus: it writes one
// instruction, then reads zero or more status replies within a timeout
// budget. The underlying bus is half-duplex and shared, so a Bus performs
// exactly one transfer at a time; concurrent calls serialize on an
// internal mutex.
type Bus struct {
	transport Transport
	timeout   time.Duration
	observer  Observer

	mu      sync.Mutex
	scanner *scanner
	readBuf []byte
	closed  bool
}

// Config holds configuration for creating a Bus.
type Config struct {
	// Transport is the duplex byte stream to drive. Required.
	Transport Transport

	// Timeout bounds each logical receive operation. Default 100ms.
	Timeout time.Duration

	// Observer, if set, is notified with raw sent, received and
	// discarded byte spans. Advisory only.
	Observer Observer
}

// New creates a Bus over the given transport.
func New(cfg Config) (*Bus, error) {
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

	return &Bus{
		transport: cfg.Transport,
		timeout:   cfg.Timeout,
		observer:  observer,
		scanner:   newScanner(observer),
		readBuf:   make([]byte, 512),
	}, nil
}

// Close closes the bus and its transport.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.transport.Close()
}

// Timeout returns the configured per-receive timeout.
func (b *Bus) Timeout() time.Duration {
	return b.timeout
}

// SetTimeout changes the per-receive timeout for subsequent transfers.
func (b *Bus) SetTimeout(timeout time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timeout = timeout
}

// WriteInstruction encodes and transmits an instruction packet. Stale
// bytes left over from a previous exchange are invalidated first, so they
// can never leak into the next decode.
func (b *Bus) WriteInstruction(pkt InstructionPacket) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	return b.writeInstructionLocked(pkt)
}

// ReadStatus reads the next status packet from the bus, or fails with a
// timeout or I/O error. Corrupt candidate frames are discarded and
// resynchronized internally; they surface only as a timeout if no valid
// frame arrives in budget.
func (b *Bus) ReadStatus() (StatusPacket, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return StatusPacket{}, ErrBusClosed
	}
	return b.readStatusLocked(time.Now().Add(b.timeout))
}

// RawInstruction performs a single transfer with a caller-supplied
// instruction code and parameter bytes. It is the escape hatch for
// vendor-specific instructions; the typed operations are built on the
// same path. Broadcast instructions skip the reply phase and return a
// zero StatusPacket.
func (b *Bus) RawInstruction(pkt InstructionPacket) (StatusPacket, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return StatusPacket{}, ErrBusClosed
	}
	return b.transferLocked(pkt)
}

// Ping pings a single motor and returns its model number and firmware
// version. Use Scan or BroadcastPing to probe multiple IDs.
func (b *Bus) Ping(id byte) (Response[PingResponse], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Response[PingResponse]{}, ErrBusClosed
	}

	pkt, err := b.transferLocked(InstructionPacket{ID: id, Instruction: InstPing})
	if err != nil {
		return Response[PingResponse]{}, err
	}
	return decodePing(pkt)
}

// Read reads count bytes from a motor register.
func (b *Bus) Read(id byte, address uint16, count uint16) (Response[[]byte], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Response[[]byte]{}, ErrBusClosed
	}

	params := make([]byte, 4)
	binary.LittleEndian.PutUint16(params[0:], address)
	binary.LittleEndian.PutUint16(params[2:], count)

	pkt, err := b.transferLocked(InstructionPacket{ID: id, Instruction: InstRead, Parameters: params})
	if err != nil {
		return Response[[]byte]{}, err
	}
	if len(pkt.Parameters) != int(count) {
		return Response[[]byte]{}, &InvalidParameterCountError{Actual: len(pkt.Parameters), Expected: int(count)}
	}
	return responseFrom(pkt, pkt.Parameters), nil
}

// ReadU8 reads a one-byte register.
func (b *Bus) ReadU8(id byte, address uint16) (Response[uint8], error) {
	resp, err := b.Read(id, address, 1)
	if err != nil {
		return Response[uint8]{}, err
	}
	return Response[uint8]{MotorID: resp.MotorID, Alert: resp.Alert, Data: resp.Data[0]}, nil
}

// ReadU16 reads a two-byte little-endian register.
func (b *Bus) ReadU16(id byte, address uint16) (Response[uint16], error) {
	resp, err := b.Read(id, address, 2)
	if err != nil {
		return Response[uint16]{}, err
	}
	return Response[uint16]{MotorID: resp.MotorID, Alert: resp.Alert, Data: binary.LittleEndian.Uint16(resp.Data)}, nil
}

// ReadU32 reads a four-byte little-endian register.
func (b *Bus) ReadU32(id byte, address uint16) (Response[uint32], error) {
	resp, err := b.Read(id, address, 4)
	if err != nil {
		return Response[uint32]{}, err
	}
	return Response[uint32]{MotorID: resp.MotorID, Alert: resp.Alert, Data: binary.LittleEndian.Uint32(resp.Data)}, nil
}

// Write writes bytes to a motor register. When id is BroadcastID the
// write is applied by every motor and no reply is expected.
func (b *Bus) Write(id byte, address uint16, data []byte) (Response[struct{}], error) {
	return b.writeOp(id, InstWrite, address, data)
}

// WriteU8 writes a one-byte register.
func (b *Bus) WriteU8(id byte, address uint16, value uint8) (Response[struct{}], error) {
	return b.Write(id, address, []byte{value})
}

// WriteU16 writes a two-byte little-endian register.
func (b *Bus) WriteU16(id byte, address uint16, value uint16) (Response[struct{}], error) {
	return b.Write(id, address, binary.LittleEndian.AppendUint16(nil, value))
}

// WriteU32 writes a four-byte little-endian register.
func (b *Bus) WriteU32(id byte, address uint16, value uint32) (Response[struct{}], error) {
	return b.Write(id, address, binary.LittleEndian.AppendUint32(nil, value))
}

// RegWrite stages a register write that takes effect on the next Action.
func (b *Bus) RegWrite(id byte, address uint16, data []byte) (Response[struct{}], error) {
	return b.writeOp(id, InstRegWrite, address, data)
}

// Action triggers all staged RegWrite commands on the addressed motor, or
// on every motor when id is BroadcastID.
func (b *Bus) Action(id byte) (Response[struct{}], error) {
	return b.noParamOp(id, InstAction)
}

// Reboot reboots the addressed motor.
func (b *Bus) Reboot(id byte) (Response[struct{}], error) {
	return b.noParamOp(id, InstReboot)
}

// FactoryReset resets the addressed motor's control table. The kind
// selects which settings survive.
func (b *Bus) FactoryReset(id byte, kind FactoryResetKind) (Response[struct{}], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Response[struct{}]{}, ErrBusClosed
	}

	pkt, err := b.transferLocked(InstructionPacket{
		ID:          id,
		Instruction: InstFactoryReset,
		Parameters:  []byte{byte(kind)},
	})
	if err != nil {
		return Response[struct{}]{}, err
	}
	return responseFrom(pkt, struct{}{}), nil
}

// ClearMultiTurn clears the addressed motor's multi-turn revolution
// counter. The motor must be stopped or it will reject the instruction.
func (b *Bus) ClearMultiTurn(id byte) (Response[struct{}], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Response[struct{}]{}, ErrBusClosed
	}

	pkt, err := b.transferLocked(InstructionPacket{
		ID:          id,
		Instruction: InstClear,
		Parameters:  clearMultiTurnParams[:],
	})
	if err != nil {
		return Response[struct{}]{}, err
	}
	return responseFrom(pkt, struct{}{}), nil
}

// Scan pings every ID in [start, end] and calls fn for each motor that
// answers. A missing reply means the motor is not present; it is not an
// error and the scan continues. Transport failures abort the scan.
func (b *Bus) Scan(start, end byte, fn func(Response[PingResponse])) error {
	if start > end || end > MaxMotorID {
		return fmt.Errorf("%w: scan range %d to %d", ErrInvalidID, start, end)
	}

	for id := start; ; id++ {
		resp, err := b.Ping(id)
		switch {
		case err == nil:
			fn(resp)
		case IsTimeout(err):
			// Not present.
		default:
			return err
		}

		if id == end {
			return nil
		}
	}
}

// BroadcastPing sends a single broadcast ping and collects replies until
// the bus goes quiet, calling fn for each motor that answers. Replies
// arrive in ID order on a compliant bus, but fn must not rely on that.
func (b *Bus) BroadcastPing(fn func(Response[PingResponse])) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	if err := b.writeInstructionLocked(InstructionPacket{ID: BroadcastID, Instruction: InstPing}); err != nil {
		return err
	}

	for {
		pkt, err := b.readStatusLocked(time.Now().Add(b.timeout))
		if err != nil {
			if IsTimeout(err) {
				return nil
			}
			return err
		}
		resp, err := decodePing(pkt)
		if err != nil {
			return err
		}
		fn(resp)
	}
}

// writeOp performs a Write or RegWrite transfer.
func (b *Bus) writeOp(id byte, instruction byte, address uint16, data []byte) (Response[struct{}], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Response[struct{}]{}, ErrBusClosed
	}

	params := make([]byte, 2+len(data))
	binary.LittleEndian.PutUint16(params, address)
	copy(params[2:], data)

	pkt, err := b.transferLocked(InstructionPacket{ID: id, Instruction: instruction, Parameters: params})
	if err != nil {
		return Response[struct{}]{}, err
	}
	return responseFrom(pkt, struct{}{}), nil
}

// noParamOp performs a transfer for instructions without parameters.
func (b *Bus) noParamOp(id byte, instruction byte) (Response[struct{}], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Response[struct{}]{}, ErrBusClosed
	}

	pkt, err := b.transferLocked(InstructionPacket{ID: id, Instruction: instruction})
	if err != nil {
		return Response[struct{}]{}, err
	}
	return responseFrom(pkt, struct{}{}), nil
}

// transferLocked writes one instruction and reads exactly one reply. A
// broadcast never elicits a unicast reply, so the read phase is skipped
// and a zero StatusPacket is returned.
func (b *Bus) transferLocked(pkt InstructionPacket) (StatusPacket, error) {
	if err := b.writeInstructionLocked(pkt); err != nil {
		return StatusPacket{}, err
	}

	if pkt.ID == BroadcastID {
		return StatusPacket{}, nil
	}

	resp, err := b.readStatusLocked(time.Now().Add(b.timeout))
	if err != nil {
		return StatusPacket{}, err
	}
	if resp.ID != pkt.ID {
		return StatusPacket{}, &UnexpectedPacketError{Field: "motor ID", Actual: resp.ID, Expected: pkt.ID}
	}
	if err := resp.motorError(); err != nil {
		return StatusPacket{}, err
	}
	return resp, nil
}

func (b *Bus) writeInstructionLocked(pkt InstructionPacket) error {
	if pkt.ID != BroadcastID && pkt.ID > MaxMotorID {
		return fmt.Errorf("%w: %d", ErrInvalidID, pkt.ID)
	}

	// Invalidate leftovers from the previous exchange, both our own
	// buffer and whatever the transport still holds.
	b.scanner.reset()
	if err := b.transport.Flush(); err != nil {
		return &CommError{Op: "flush", Err: err}
	}

	wire, err := EncodeInstruction(pkt)
	if err != nil {
		return err
	}

	n, err := b.transport.Write(wire)
	if err != nil {
		return &CommError{Op: "write", Err: err}
	}
	if n != len(wire) {
		return &CommError{Op: "write", Err: fmt.Errorf("short write: %d of %d bytes", n, len(wire))}
	}

	b.observer.InstructionSent(wire)
	return nil
}

// readStatusLocked drives the scanner until one valid packet is
// assembled, the deadline passes, or the transport fails. On timeout any
// partial bytes are discarded so state never leaks into the next
// transfer; if a corrupt candidate was discarded during the window, its
// ChecksumError is attached to the timeout.
func (b *Bus) readStatusLocked(deadline time.Time) (StatusPacket, error) {
	for {
		pkt, err := b.scanner.next()
		if err == nil {
			return pkt, nil
		}
		if err != errNeedMore {
			return StatusPacket{}, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			corrupt := b.scanner.lastCorrupt
			b.scanner.reset()
			if corrupt != nil {
				return StatusPacket{}, fmt.Errorf("%w: %w", ErrTimeout, corrupt)
			}
			return StatusPacket{}, ErrTimeout
		}

		if err := b.transport.SetReadTimeout(remaining); err != nil {
			return StatusPacket{}, &CommError{Op: "read", Err: err}
		}
		n, err := b.transport.Read(b.readBuf)
		if err != nil {
			return StatusPacket{}, &CommError{Op: "read", Err: err}
		}
		if n == 0 {
			// The transport timed out with no data; loop to check the
			// deadline.
			continue
		}
		b.scanner.push(b.readBuf[:n])
	}
}

func decodePing(pkt StatusPacket) (Response[PingResponse], error) {
	if err := pkt.motorError(); err != nil {
		return Response[PingResponse]{}, err
	}
	if len(pkt.Parameters) != 3 {
		return Response[PingResponse]{}, &InvalidParameterCountError{Actual: len(pkt.Parameters), Expected: 3}
	}
	return responseFrom(pkt, PingResponse{
		Model:    binary.LittleEndian.Uint16(pkt.Parameters[0:2]),
		Firmware: pkt.Parameters[2],
	}), nil
}
