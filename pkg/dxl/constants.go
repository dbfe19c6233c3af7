// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

// Package dxl implements the DYNAMIXEL Protocol 2.0 wire format and a
// transfer engine for commanding servo actuators over a shared half-duplex
// bus.
//
// The package provides packet encoding/decoding, byte stuffing, CRC
// validation, and typed per-instruction operations (ping, register
// read/write, sync/bulk transfers). It stays at the register read/write
// level: motion control and unit conversion are left to callers.
package dxl

// Protocol framing bytes. Every packet starts with the four byte header
// prefix; the fourth byte is reserved and always zero.
var headerPrefix = [4]byte{0xFF, 0xFF, 0xFD, 0x00}

// Header and packet sizing.
const (
	// instructionHeaderSize covers header(4) + id(1) + length(2) + instruction(1).
	instructionHeaderSize = 8
	// statusHeaderSize additionally covers the error byte.
	statusHeaderSize = 9

	// MaxPacketSize bounds a single stuffed packet on the wire. Status
	// parameters are limited by the devices' control table sizes; 4 KiB
	// leaves generous headroom for bulk reads.
	MaxPacketSize = 4096
)

// Instruction identifiers per the Protocol 2.0 specification.
const (
	InstPing         byte = 0x01
	InstRead         byte = 0x02
	InstWrite        byte = 0x03
	InstRegWrite     byte = 0x04
	InstAction       byte = 0x05
	InstFactoryReset byte = 0x06
	InstReboot       byte = 0x08
	InstClear        byte = 0x10
	InstSyncRead     byte = 0x82
	InstSyncWrite    byte = 0x83
	InstBulkRead     byte = 0x92
	InstBulkWrite    byte = 0x93

	// InstStatus marks a status (reply) packet.
	InstStatus byte = 0x55
)

// Special packet IDs.
const (
	// BroadcastID addresses all motors on the bus. Broadcast instructions
	// never elicit a unicast reply; sync and bulk reads elicit one reply
	// per addressed motor.
	BroadcastID byte = 0xFE

	// MaxMotorID is the highest assignable individual motor ID.
	MaxMotorID byte = 0xFC
)

// Status packet error field layout: the low seven bits carry the result
// code, the high bit is the alert flag.
const (
	alertBit       byte = 0x80
	resultCodeMask byte = 0x7F
)

// Result codes reported by motors in the status error field.
const (
	ResultOK          byte = 0x00
	ResultFail        byte = 0x01
	ResultInstruction byte = 0x02
	ResultCRC         byte = 0x03
	ResultDataRange   byte = 0x04
	ResultDataLength  byte = 0x05
	ResultDataLimit   byte = 0x06
	ResultAccess      byte = 0x07
)

// FactoryResetKind selects which settings survive a factory reset.
type FactoryResetKind byte

const (
	ResetAll           FactoryResetKind = 0xFF
	ResetKeepID        FactoryResetKind = 0x01
	ResetKeepIDAndBaud FactoryResetKind = 0x02
)

// clearMultiTurnParams is the fixed parameter block for clearing the
// multi-turn revolution counter.
var clearMultiTurnParams = [5]byte{0x01, 0x44, 0x58, 0x4C, 0x22}

// resultCodeNames maps result codes to short human-readable names.
var resultCodeNames = map[byte]string{
	ResultOK:          "ok",
	ResultFail:        "processing failed",
	ResultInstruction: "instruction error",
	ResultCRC:         "checksum error",
	ResultDataRange:   "data range error",
	ResultDataLength:  "data length error",
	ResultDataLimit:   "data limit error",
	ResultAccess:      "access error",
}
