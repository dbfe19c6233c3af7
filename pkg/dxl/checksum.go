// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

// CRC-16 configuration fixed by the protocol: polynomial 0x8005, initial
// value 0, no reflection. The polynomial is compatibility-critical and must
// not be changed; it has to match what the motor firmware computes.
const crcPolynomial = 0x8005

var crcTable [256]uint16

func init() {
	for i := range crcTable {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// CalculateCRC computes the Protocol 2.0 frame checksum for the given data.
func CalculateCRC(data []byte) uint16 {
	return UpdateCRC(0, data)
}

// UpdateCRC extends a running checksum with more data. The checksum over a
// frame may be computed incrementally by chaining calls.
func UpdateCRC(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = (crc << 8) ^ crcTable[byte(crc>>8)^b]
	}
	return crc
}
