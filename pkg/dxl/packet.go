// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

// InstructionPacket is an outgoing command before encoding.
type InstructionPacket struct {
	// ID is the target motor, or BroadcastID for all motors.
	ID byte

	// Instruction is one of the Inst* codes, or a raw vendor code.
	Instruction byte

	// Parameters is the instruction-specific payload, unstuffed.
	Parameters []byte
}

// StatusPacket is a decoded, checksum-verified reply from a motor. A
// StatusPacket is only ever produced after CRC verification succeeds;
// malformed candidates are discarded as noise and never surfaced.
type StatusPacket struct {
	// ID is the motor that sent the reply.
	ID byte

	// Error is the raw error field: result code in the low seven bits,
	// alert flag in the high bit.
	Error byte

	// Parameters is the reply payload with byte stuffing removed.
	Parameters []byte
}

// ResultCode returns the hardware result code from the error field.
func (p StatusPacket) ResultCode() byte {
	return p.Error & resultCodeMask
}

// Alert reports whether the alert flag is set. An alert is informational:
// it signals a motor-side condition worth checking (typically the hardware
// error status register) but does not by itself mean the instruction
// failed.
func (p StatusPacket) Alert() bool {
	return p.Error&alertBit != 0
}

// motorError returns a MotorStatusError if the result code indicates
// failure, or nil. The alert bit alone never produces an error.
func (p StatusPacket) motorError() error {
	if p.ResultCode() == ResultOK {
		return nil
	}
	return &MotorStatusError{ID: p.ID, Code: p.ResultCode(), Alert: p.Alert()}
}

// Response carries a decoded reply value together with the identity of the
// responding motor and its alert flag.
type Response[T any] struct {
	// MotorID is the motor that sent the reply.
	MotorID byte

	// Alert is the alert flag from the reply. It is always reported,
	// never suppressed.
	Alert bool

	// Data is the decoded reply value.
	Data T
}

// PingResponse is the decoded payload of a ping reply.
type PingResponse struct {
	// Model is the motor's model number code.
	Model uint16

	// Firmware is the motor's firmware version.
	Firmware byte
}

func responseFrom[T any](pkt StatusPacket, data T) Response[T] {
	return Response[T]{MotorID: pkt.ID, Alert: pkt.Alert(), Data: data}
}
