// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

import (
	"encoding/binary"
	"fmt"
	"time"
)

// SyncWriteData is the data for one motor in a sync write.
type SyncWriteData struct {
	ID   byte
	Data []byte
}

// BulkReadRequest describes one motor's read in a bulk read. Unlike sync
// reads, each motor may use a different address and count.
type BulkReadRequest struct {
	ID      byte
	Address uint16
	Count   uint16
}

// BulkWriteData describes one motor's write in a bulk write.
type BulkWriteData struct {
	ID      byte
	Address uint16
	Data    []byte
}

// SyncRead reads the same register span from multiple motors with one
// broadcast instruction. Replies arrive in the order motors respond, not
// necessarily the order requested; fn is invoked once per reply as it is
// decoded. The loop ends when every addressed motor has replied or the
// reply timeout elapses. A timeout after at least one reply returns a
// PartialTimeoutError naming the missing motors; the replies already
// delivered remain valid.
//
// Motor-reported errors do not stop collection: the remaining replies are
// drained and the first such error is returned at the end, so one faulted
// motor cannot leave stray reply bytes on the bus.
func (b *Bus) SyncRead(address, count uint16, ids []byte, fn func(Response[[]byte])) error {
	if len(ids) == 0 {
		return fmt.Errorf("sync read: no motor IDs")
	}
	seen := make(map[byte]bool, len(ids))
	for _, id := range ids {
		if id > MaxMotorID {
			return fmt.Errorf("%w: %d", ErrInvalidID, id)
		}
		if seen[id] {
			return fmt.Errorf("sync read: duplicate motor ID %d", id)
		}
		seen[id] = true
	}

	params := make([]byte, 4+len(ids))
	binary.LittleEndian.PutUint16(params[0:], address)
	binary.LittleEndian.PutUint16(params[2:], count)
	copy(params[4:], ids)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	if err := b.writeInstructionLocked(InstructionPacket{
		ID:          BroadcastID,
		Instruction: InstSyncRead,
		Parameters:  params,
	}); err != nil {
		return err
	}

	return b.collectRepliesLocked(ids, func(id byte) int { return int(count) }, fn)
}

// SyncReadAll is the collecting variant of SyncRead: it returns the data
// per motor ID. On a partial timeout the map holds the replies that did
// arrive alongside the PartialTimeoutError.
func (b *Bus) SyncReadAll(address, count uint16, ids []byte) (map[byte][]byte, error) {
	result := make(map[byte][]byte, len(ids))
	err := b.SyncRead(address, count, ids, func(resp Response[[]byte]) {
		result[resp.MotorID] = resp.Data
	})
	return result, err
}

// SyncWrite writes the same register span on multiple motors with one
// broadcast instruction. Every motor applies the write simultaneously and
// none of them reply.
func (b *Bus) SyncWrite(address, count uint16, writes []SyncWriteData) error {
	if len(writes) == 0 {
		return fmt.Errorf("sync write: no motor data")
	}

	params := make([]byte, 4, 4+len(writes)*(1+int(count)))
	binary.LittleEndian.PutUint16(params[0:], address)
	binary.LittleEndian.PutUint16(params[2:], count)
	for _, w := range writes {
		if w.ID > MaxMotorID {
			return fmt.Errorf("%w: %d", ErrInvalidID, w.ID)
		}
		if len(w.Data) != int(count) {
			return fmt.Errorf("sync write: motor %d: data length %d does not match count %d", w.ID, len(w.Data), count)
		}
		params = append(params, w.ID)
		params = append(params, w.Data...)
	}

	return b.WriteInstruction(InstructionPacket{
		ID:          BroadcastID,
		Instruction: InstSyncWrite,
		Parameters:  params,
	})
}

// BulkRead reads a different register span from each motor with one
// broadcast instruction. Semantics match SyncRead.
func (b *Bus) BulkRead(reads []BulkReadRequest, fn func(Response[[]byte])) error {
	if len(reads) == 0 {
		return fmt.Errorf("bulk read: no requests")
	}

	params := make([]byte, 0, 5*len(reads))
	ids := make([]byte, 0, len(reads))
	counts := make(map[byte]int, len(reads))
	for _, r := range reads {
		if r.ID > MaxMotorID {
			return fmt.Errorf("%w: %d", ErrInvalidID, r.ID)
		}
		if _, dup := counts[r.ID]; dup {
			return fmt.Errorf("bulk read: duplicate motor ID %d", r.ID)
		}
		params = append(params, r.ID)
		params = binary.LittleEndian.AppendUint16(params, r.Address)
		params = binary.LittleEndian.AppendUint16(params, r.Count)
		ids = append(ids, r.ID)
		counts[r.ID] = int(r.Count)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	if err := b.writeInstructionLocked(InstructionPacket{
		ID:          BroadcastID,
		Instruction: InstBulkRead,
		Parameters:  params,
	}); err != nil {
		return err
	}

	return b.collectRepliesLocked(ids, func(id byte) int { return counts[id] }, fn)
}

// BulkReadAll is the collecting variant of BulkRead.
func (b *Bus) BulkReadAll(reads []BulkReadRequest) (map[byte][]byte, error) {
	result := make(map[byte][]byte, len(reads))
	err := b.BulkRead(reads, func(resp Response[[]byte]) {
		result[resp.MotorID] = resp.Data
	})
	return result, err
}

// BulkWrite writes a different register span on each motor with one
// broadcast instruction. No motor replies.
func (b *Bus) BulkWrite(writes []BulkWriteData) error {
	if len(writes) == 0 {
		return fmt.Errorf("bulk write: no motor data")
	}

	var params []byte
	seen := make(map[byte]bool, len(writes))
	for _, w := range writes {
		if w.ID > MaxMotorID {
			return fmt.Errorf("%w: %d", ErrInvalidID, w.ID)
		}
		if seen[w.ID] {
			return fmt.Errorf("bulk write: duplicate motor ID %d", w.ID)
		}
		seen[w.ID] = true
		params = append(params, w.ID)
		params = binary.LittleEndian.AppendUint16(params, w.Address)
		params = binary.LittleEndian.AppendUint16(params, uint16(len(w.Data)))
		params = append(params, w.Data...)
	}

	return b.WriteInstruction(InstructionPacket{
		ID:          BroadcastID,
		Instruction: InstBulkWrite,
		Parameters:  params,
	})
}

// collectRepliesLocked reads one status packet per addressed motor,
// delivering decoded replies to fn until all IDs have been observed or
// the timeout budget runs out. expected returns the reply payload size
// for a given motor.
func (b *Bus) collectRepliesLocked(ids []byte, expected func(byte) int, fn func(Response[[]byte])) error {
	pending := make(map[byte]bool, len(ids))
	for _, id := range ids {
		pending[id] = true
	}

	received := 0
	var motorErr error

	for len(pending) > 0 {
		pkt, err := b.readStatusLocked(time.Now().Add(b.timeout))
		if err != nil {
			if IsTimeout(err) {
				if received == 0 {
					return ErrTimeout
				}
				return &PartialTimeoutError{MissingIDs: missingInOrder(ids, pending), Received: received}
			}
			return err
		}

		if !pending[pkt.ID] {
			// A reply from a motor we did not address, or a duplicate.
			// Treat it as bus noise and keep collecting.
			continue
		}
		delete(pending, pkt.ID)
		received++

		if err := pkt.motorError(); err != nil {
			if motorErr == nil {
				motorErr = err
			}
			continue
		}
		if want := expected(pkt.ID); len(pkt.Parameters) != want {
			if motorErr == nil {
				motorErr = &InvalidParameterCountError{Actual: len(pkt.Parameters), Expected: want}
			}
			continue
		}

		fn(responseFrom(pkt, pkt.Parameters))
	}

	return motorErr
}

// missingInOrder lists still-pending IDs in the order they were requested.
func missingInOrder(ids []byte, pending map[byte]bool) []byte {
	missing := make([]byte, 0, len(pending))
	for _, id := range ids {
		if pending[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
