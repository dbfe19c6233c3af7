// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

import (
	"bytes"
	"encoding/binary"
)

// scanner assembles status packets from a raw byte stream. It accumulates
// received bytes, discards leading noise until a header prefix is found,
// and yields one checksum-verified packet at a time. A candidate frame
// that fails verification is consumed in full so its bytes can never
// re-match, and scanning continues on the remainder of the buffer.
type scanner struct {
	buf      []byte
	observer Observer

	// lastCorrupt records the most recent CRC mismatch since the last
	// reset. It is attached to the timeout that ends a receive window in
	// which only corrupt candidates arrived.
	lastCorrupt *ChecksumError
}

func newScanner(observer Observer) *scanner {
	if observer == nil {
		observer = nopObserver{}
	}
	return &scanner{
		buf:      make([]byte, 0, MaxPacketSize),
		observer: observer,
	}
}

// reset discards all buffered bytes. Called at the start of every
// instruction write and after a receive timeout, so stale bytes from one
// exchange never leak into the next decode.
func (s *scanner) reset() {
	s.buf = s.buf[:0]
	s.lastCorrupt = nil
}

// push appends freshly received bytes.
func (s *scanner) push(data []byte) {
	s.buf = append(s.buf, data...)
}

// next extracts the next complete status packet from the buffer. It
// returns errNeedMore when the buffered bytes do not yet contain a full
// candidate frame; the caller is expected to push more data and retry
// until its deadline expires.
func (s *scanner) next() (StatusPacket, error) {
	for {
		s.dropGarbage()

		if len(s.buf) < statusHeaderSize {
			return StatusPacket{}, errNeedMore
		}

		// length counts instruction, error, stuffed parameters and CRC.
		length := int(binary.LittleEndian.Uint16(s.buf[5:7]))
		total := 7 + length
		if length < 4 || total > MaxPacketSize {
			// Malformed length on a header-matched candidate: drop the
			// header and resynchronize on the remaining bytes.
			s.consume(len(headerPrefix))
			continue
		}

		if len(s.buf) < total {
			return StatusPacket{}, errNeedMore
		}

		messageCRC := binary.LittleEndian.Uint16(s.buf[total-2:])
		computedCRC := CalculateCRC(s.buf[:total-2])
		if messageCRC != computedCRC {
			// Corrupt frame: discard the whole candidate, including its
			// header, and keep searching.
			s.lastCorrupt = &ChecksumError{Message: messageCRC, Computed: computedCRC}
			s.consume(total)
			continue
		}

		if s.buf[7] != InstStatus {
			pkt := StatusPacket{ID: s.buf[4]}
			instruction := s.buf[7]
			s.consume(total)
			return pkt, &UnexpectedPacketError{Field: "instruction", Actual: instruction, Expected: InstStatus}
		}

		s.observer.StatusReceived(s.buf[:total])

		params := make([]byte, total-2-statusHeaderSize)
		copy(params, s.buf[statusHeaderSize:total-2])

		pkt := StatusPacket{
			ID:         s.buf[4],
			Error:      s.buf[8],
			Parameters: Unstuff(params),
		}
		s.buf = append(s.buf[:0], s.buf[total:]...)
		return pkt, nil
	}
}

// nextInstruction extracts the next complete instruction packet from the
// buffer. It is the device-side counterpart of next: status frames seen
// on the bus (other motors answering) are skipped, not surfaced.
func (s *scanner) nextInstruction() (InstructionPacket, error) {
	for {
		s.dropGarbage()

		if len(s.buf) < instructionHeaderSize {
			return InstructionPacket{}, errNeedMore
		}

		// length counts instruction, stuffed parameters and CRC.
		length := int(binary.LittleEndian.Uint16(s.buf[5:7]))
		total := 7 + length
		if length < 3 || total > MaxPacketSize {
			s.consume(len(headerPrefix))
			continue
		}

		if len(s.buf) < total {
			return InstructionPacket{}, errNeedMore
		}

		messageCRC := binary.LittleEndian.Uint16(s.buf[total-2:])
		computedCRC := CalculateCRC(s.buf[:total-2])
		if messageCRC != computedCRC {
			s.lastCorrupt = &ChecksumError{Message: messageCRC, Computed: computedCRC}
			s.consume(total)
			continue
		}

		if s.buf[7] == InstStatus {
			// Another motor's reply: not addressed to a device.
			s.consume(total)
			continue
		}

		params := make([]byte, total-2-instructionHeaderSize)
		copy(params, s.buf[instructionHeaderSize:total-2])

		pkt := InstructionPacket{
			ID:          s.buf[4],
			Instruction: s.buf[7],
			Parameters:  Unstuff(params),
		}
		s.buf = append(s.buf[:0], s.buf[total:]...)
		return pkt, nil
	}
}

// dropGarbage removes leading bytes that cannot start a frame. A partial
// header prefix at the end of the buffer is kept: it may complete on the
// next read.
func (s *scanner) dropGarbage() {
	garbage := findHeader(s.buf)
	if garbage == 0 {
		return
	}
	s.consume(garbage)
}

// consume removes the first n buffered bytes, reporting them as discarded
// noise.
func (s *scanner) consume(n int) {
	if n == 0 {
		return
	}
	s.observer.NoiseDiscarded(s.buf[:n])
	s.buf = append(s.buf[:0], s.buf[n:]...)
}

// findHeader returns the offset of the first position that could start a
// header prefix, which may be a partial prefix at the end of the buffer.
func findHeader(buf []byte) int {
	for i := 0; i < len(buf); i++ {
		n := len(headerPrefix)
		if len(buf)-i < n {
			n = len(buf) - i
		}
		if bytes.Equal(buf[i:i+n], headerPrefix[:n]) {
			return i
		}
	}
	return len(buf)
}
