// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

import (
	"bytes"
	"errors"
	"testing"
)

func TestSyncReadAll(t *testing.T) {
	bus, mock := newTestBus(t)
	reply(mock, StatusPacket{ID: 1, Parameters: []byte{0x10, 0x20, 0x30, 0x40}})
	reply(mock, StatusPacket{ID: 2, Parameters: []byte{0x50, 0x60, 0x70, 0x80}})

	result, err := bus.SyncReadAll(132, 4, []byte{1, 2})
	if err != nil {
		t.Fatalf("SyncReadAll() error: %v", err)
	}
	if !bytes.Equal(result[1], []byte{0x10, 0x20, 0x30, 0x40}) {
		t.Errorf("motor 1 data = % X", result[1])
	}
	if !bytes.Equal(result[2], []byte{0x50, 0x60, 0x70, 0x80}) {
		t.Errorf("motor 2 data = % X", result[2])
	}

	// Broadcast sync read: address, count, then the ID list.
	written := mock.Written()
	if written[4] != BroadcastID {
		t.Errorf("target = 0x%02X, want broadcast", written[4])
	}
	if written[7] != InstSyncRead {
		t.Errorf("instruction = 0x%02X, want 0x%02X", written[7], InstSyncRead)
	}
	params := written[8 : len(written)-2]
	want := []byte{0x84, 0x00, 0x04, 0x00, 0x01, 0x02}
	if !bytes.Equal(params, want) {
		t.Errorf("parameters = % X, want % X", params, want)
	}
}

func TestSyncReadOutOfOrderReplies(t *testing.T) {
	bus, mock := newTestBus(t)
	reply(mock, StatusPacket{ID: 2, Parameters: []byte{0x50, 0x60, 0x70, 0x80}})
	reply(mock, StatusPacket{ID: 1, Parameters: []byte{0x10, 0x20, 0x30, 0x40}})

	var order []byte
	err := bus.SyncRead(132, 4, []byte{1, 2}, func(resp Response[[]byte]) {
		order = append(order, resp.MotorID)
	})
	if err != nil {
		t.Fatalf("SyncRead() error: %v", err)
	}
	if !bytes.Equal(order, []byte{2, 1}) {
		t.Errorf("delivery order = %v, want replies in arrival order [2 1]", order)
	}
}

func TestSyncReadPartialTimeout(t *testing.T) {
	bus, mock := newTestBus(t)
	reply(mock, StatusPacket{ID: 1, Parameters: []byte{0x10, 0x20, 0x30, 0x40}})
	reply(mock, StatusPacket{ID: 2, Parameters: []byte{0x50, 0x60, 0x70, 0x80}})
	// Motor 3 never answers.

	result, err := bus.SyncReadAll(132, 4, []byte{1, 2, 3})

	var partial *PartialTimeoutError
	if !errors.As(err, &partial) {
		t.Fatalf("err = %v, want PartialTimeoutError", err)
	}
	if !bytes.Equal(partial.MissingIDs, []byte{3}) {
		t.Errorf("MissingIDs = %v, want [3]", partial.MissingIDs)
	}
	if partial.Received != 2 {
		t.Errorf("Received = %d, want 2", partial.Received)
	}
	if !IsTimeout(err) {
		t.Error("partial timeout should satisfy IsTimeout")
	}

	// Replies that did arrive are still delivered.
	if len(result) != 2 {
		t.Errorf("result holds %d motors, want 2", len(result))
	}
}

func TestSyncReadTotalTimeout(t *testing.T) {
	bus, _ := newTestBus(t)

	_, err := bus.SyncReadAll(132, 4, []byte{1, 2})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	var partial *PartialTimeoutError
	if errors.As(err, &partial) {
		t.Error("zero replies should be a plain timeout, not a partial one")
	}
}

func TestSyncReadMotorErrorDrainsRemaining(t *testing.T) {
	bus, mock := newTestBus(t)
	reply(mock, StatusPacket{ID: 1, Error: ResultAccess})
	reply(mock, StatusPacket{ID: 2, Parameters: []byte{0x50, 0x60, 0x70, 0x80}})

	result, err := bus.SyncReadAll(132, 4, []byte{1, 2})

	var motorErr *MotorStatusError
	if !errors.As(err, &motorErr) {
		t.Fatalf("err = %v, want MotorStatusError", err)
	}
	if motorErr.ID != 1 {
		t.Errorf("failing motor = %d, want 1", motorErr.ID)
	}

	// The healthy motor's reply was still consumed and delivered.
	if !bytes.Equal(result[2], []byte{0x50, 0x60, 0x70, 0x80}) {
		t.Errorf("motor 2 data = % X", result[2])
	}
}

func TestSyncReadIgnoresUnaddressedReply(t *testing.T) {
	bus, mock := newTestBus(t)
	reply(mock, StatusPacket{ID: 7, Parameters: []byte{0xDE, 0xAD, 0xBE, 0xEF}})
	reply(mock, StatusPacket{ID: 1, Parameters: []byte{0x10, 0x20, 0x30, 0x40}})

	result, err := bus.SyncReadAll(132, 4, []byte{1})
	if err != nil {
		t.Fatalf("SyncReadAll() error: %v", err)
	}
	if _, ok := result[7]; ok {
		t.Error("reply from unaddressed motor 7 delivered")
	}
	if !bytes.Equal(result[1], []byte{0x10, 0x20, 0x30, 0x40}) {
		t.Errorf("motor 1 data = % X", result[1])
	}
}

func TestSyncReadDuplicateID(t *testing.T) {
	bus, _ := newTestBus(t)
	if err := bus.SyncRead(132, 4, []byte{1, 2, 1}, nil); err == nil {
		t.Error("expected error for duplicate motor ID")
	}
}

func TestSyncReadNoIDs(t *testing.T) {
	bus, _ := newTestBus(t)
	if err := bus.SyncRead(132, 4, nil, nil); err == nil {
		t.Error("expected error for empty ID list")
	}
}

func TestSyncWrite(t *testing.T) {
	bus, mock := newTestBus(t)

	err := bus.SyncWrite(116, 4, []SyncWriteData{
		{ID: 1, Data: []byte{0x00, 0x08, 0x00, 0x00}},
		{ID: 2, Data: []byte{0x00, 0x04, 0x00, 0x00}},
	})
	if err != nil {
		t.Fatalf("SyncWrite() error: %v", err)
	}

	written := mock.Written()
	if written[4] != BroadcastID {
		t.Errorf("target = 0x%02X, want broadcast", written[4])
	}
	if written[7] != InstSyncWrite {
		t.Errorf("instruction = 0x%02X, want 0x%02X", written[7], InstSyncWrite)
	}
	params := written[8 : len(written)-2]
	want := []byte{
		0x74, 0x00, 0x04, 0x00,
		0x01, 0x00, 0x08, 0x00, 0x00,
		0x02, 0x00, 0x04, 0x00, 0x00,
	}
	if !bytes.Equal(params, want) {
		t.Errorf("parameters = % X, want % X", params, want)
	}
}

func TestSyncWriteLengthMismatch(t *testing.T) {
	bus, _ := newTestBus(t)

	err := bus.SyncWrite(116, 4, []SyncWriteData{
		{ID: 1, Data: []byte{0x00, 0x08}},
	})
	if err == nil {
		t.Error("expected error for data shorter than count")
	}
}

func TestBulkRead(t *testing.T) {
	bus, mock := newTestBus(t)
	reply(mock, StatusPacket{ID: 1, Parameters: []byte{0x10, 0x20, 0x30, 0x40}})
	reply(mock, StatusPacket{ID: 2, Parameters: []byte{0x55}})

	result, err := bus.BulkReadAll([]BulkReadRequest{
		{ID: 1, Address: 132, Count: 4},
		{ID: 2, Address: 70, Count: 1},
	})
	if err != nil {
		t.Fatalf("BulkReadAll() error: %v", err)
	}
	if !bytes.Equal(result[1], []byte{0x10, 0x20, 0x30, 0x40}) {
		t.Errorf("motor 1 data = % X", result[1])
	}
	if !bytes.Equal(result[2], []byte{0x55}) {
		t.Errorf("motor 2 data = % X", result[2])
	}

	// Per-motor ID, address, count blocks.
	written := mock.Written()
	params := written[8 : len(written)-2]
	want := []byte{
		0x01, 0x84, 0x00, 0x04, 0x00,
		0x02, 0x46, 0x00, 0x01, 0x00,
	}
	if !bytes.Equal(params, want) {
		t.Errorf("parameters = % X, want % X", params, want)
	}
}

func TestBulkReadDuplicateID(t *testing.T) {
	bus, _ := newTestBus(t)

	err := bus.BulkRead([]BulkReadRequest{
		{ID: 1, Address: 132, Count: 4},
		{ID: 1, Address: 70, Count: 1},
	}, nil)
	if err == nil {
		t.Error("expected error for duplicate motor ID")
	}
}

func TestBulkWrite(t *testing.T) {
	bus, mock := newTestBus(t)

	err := bus.BulkWrite([]BulkWriteData{
		{ID: 1, Address: 116, Data: []byte{0x00, 0x08, 0x00, 0x00}},
		{ID: 2, Address: 65, Data: []byte{0x01}},
	})
	if err != nil {
		t.Fatalf("BulkWrite() error: %v", err)
	}

	written := mock.Written()
	if written[7] != InstBulkWrite {
		t.Errorf("instruction = 0x%02X, want 0x%02X", written[7], InstBulkWrite)
	}
	params := written[8 : len(written)-2]
	want := []byte{
		0x01, 0x74, 0x00, 0x04, 0x00, 0x00, 0x08, 0x00, 0x00,
		0x02, 0x41, 0x00, 0x01, 0x00, 0x01,
	}
	if !bytes.Equal(params, want) {
		t.Errorf("parameters = % X, want % X", params, want)
	}
}
