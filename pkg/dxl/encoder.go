// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

import (
	"encoding/binary"
	"fmt"
)

// EncodeInstruction serializes an instruction packet to wire format:
// header prefix, motor ID, little-endian length, instruction byte, stuffed
// parameters and little-endian CRC. The length field counts the
// instruction byte, the stuffed parameters and the two CRC bytes.
func EncodeInstruction(pkt InstructionPacket) ([]byte, error) {
	stuffed := Stuff(pkt.Parameters)

	wireLen := instructionHeaderSize + len(stuffed) + 2
	if wireLen > MaxPacketSize {
		return nil, fmt.Errorf("instruction packet too large: %d bytes (max %d)", wireLen, MaxPacketSize)
	}

	buf := make([]byte, 0, wireLen)
	buf = append(buf, headerPrefix[:]...)
	buf = append(buf, pkt.ID)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(stuffed)+3))
	buf = append(buf, pkt.Instruction)
	buf = append(buf, stuffed...)

	crc := CalculateCRC(buf)
	buf = binary.LittleEndian.AppendUint16(buf, crc)

	return buf, nil
}

// EncodeStatus serializes a status packet to wire format. It exists so
// device-side implementations and test harnesses can produce replies; bus
// masters normally only encode instructions.
func EncodeStatus(pkt StatusPacket) []byte {
	stuffed := Stuff(pkt.Parameters)

	buf := make([]byte, 0, statusHeaderSize+len(stuffed)+2)
	buf = append(buf, headerPrefix[:]...)
	buf = append(buf, pkt.ID)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(stuffed)+4))
	buf = append(buf, InstStatus, pkt.Error)
	buf = append(buf, stuffed...)

	crc := CalculateCRC(buf)
	return binary.LittleEndian.AppendUint16(buf, crc)
}
