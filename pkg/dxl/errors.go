// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	// ErrTimeout means no valid frame was assembled within the read
	// timeout. Distinct from an I/O failure.
	ErrTimeout = errors.New("communication timeout")

	// ErrBusClosed is returned for operations on a closed bus.
	ErrBusClosed = errors.New("bus is closed")

	// ErrInvalidID is returned for motor IDs outside the assignable range.
	ErrInvalidID = errors.New("invalid motor ID")

	// errNeedMore is an internal scanner signal: the buffered bytes do
	// not yet contain a complete candidate frame.
	errNeedMore = errors.New("incomplete frame")
)

// ChecksumError reports a CRC mismatch on an otherwise header-matched
// candidate frame. The scanner recovers from it by discarding the
// candidate and resynchronizing; when the receive window then expires
// without a valid frame, the most recent mismatch is attached to the
// returned timeout and can be recovered with errors.As.
type ChecksumError struct {
	Message  uint16 // CRC carried by the frame
	Computed uint16 // CRC computed over the received bytes
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: message 0x%04X, computed 0x%04X", e.Message, e.Computed)
}

// MotorStatusError reports a hardware-side instruction failure: the motor
// decoded our instruction and rejected it. Communication succeeded.
type MotorStatusError struct {
	ID    byte // responding motor
	Code  byte // result code from the status error field
	Alert bool // alert flag from the same field
}

func (e *MotorStatusError) Error() string {
	name, ok := resultCodeNames[e.Code]
	if !ok {
		name = fmt.Sprintf("result code 0x%02X", e.Code)
	}
	if e.Alert {
		return fmt.Sprintf("motor %d: %s (alert set)", e.ID, name)
	}
	return fmt.Sprintf("motor %d: %s", e.ID, name)
}

// PartialTimeoutError reports a multi-reply collection that timed out
// after at least one reply. Replies already obtained were delivered via
// the callback; callers can act on the partial data.
type PartialTimeoutError struct {
	MissingIDs []byte // motors that never replied
	Received   int    // replies successfully collected
}

func (e *PartialTimeoutError) Error() string {
	ids := make([]string, len(e.MissingIDs))
	for i, id := range e.MissingIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("timeout after %d replies, missing motors: %s", e.Received, strings.Join(ids, ", "))
}

func (e *PartialTimeoutError) Unwrap() error {
	return ErrTimeout
}

// CommError wraps a transport-level failure with the operation that hit it.
type CommError struct {
	Op  string
	Err error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("communication error during %s: %v", e.Op, e.Err)
}

func (e *CommError) Unwrap() error {
	return e.Err
}

// UnexpectedPacketError reports a reply whose framing decoded fine but
// whose identity is wrong for the in-flight transfer.
type UnexpectedPacketError struct {
	Field    string
	Actual   byte
	Expected byte
}

func (e *UnexpectedPacketError) Error() string {
	return fmt.Sprintf("unexpected %s: 0x%02X (expected 0x%02X)", e.Field, e.Actual, e.Expected)
}

// InvalidParameterCountError reports a reply payload of the wrong size for
// the instruction that elicited it.
type InvalidParameterCountError struct {
	Actual   int
	Expected int
}

func (e *InvalidParameterCountError) Error() string {
	return fmt.Sprintf("invalid parameter count: %d (expected %d)", e.Actual, e.Expected)
}

// IsTimeout reports whether err is a timeout, including partial timeouts.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
