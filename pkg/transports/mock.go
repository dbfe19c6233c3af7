// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package transports

import (
	"sync"
	"time"
)

// MockTransport is an in-memory transport for tests and examples. Reads
// drain scripted data; writes are captured. A read past the scripted data
// returns (0, nil), imitating a serial port read timeout.
type MockTransport struct {
	mu          sync.Mutex
	readData    []byte
	writeData   []byte
	readTimeout time.Duration
	flushed     int
	closed      bool

	// ReadErr and WriteErr, when set, fail the corresponding call.
	ReadErr  error
	WriteErr error

	// OnWrite, when set, is called with each written packet. It may
	// queue a scripted reply, which is how tests model a motor
	// answering an instruction.
	OnWrite func(p []byte)
}

// QueueRead appends bytes that subsequent Read calls will return.
func (m *MockTransport) QueueRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readData = append(m.readData, data...)
}

// Written returns everything written so far.
func (m *MockTransport) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.writeData))
	copy(out, m.writeData)
	return out
}

// FlushCount returns how often Flush has been called.
func (m *MockTransport) FlushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushed
}

// Closed reports whether Close has been called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Read behaves like a serial port read: it blocks until scripted data is
// available or the read timeout passes.
func (m *MockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	deadline := time.Now().Add(m.readTimeout)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		if m.ReadErr != nil {
			m.mu.Unlock()
			return 0, m.ReadErr
		}
		if len(m.readData) > 0 {
			n := copy(p, m.readData)
			m.readData = m.readData[n:]
			m.mu.Unlock()
			return n, nil
		}
		m.mu.Unlock()

		if !time.Now().Before(deadline) {
			return 0, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (m *MockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	if m.WriteErr != nil {
		m.mu.Unlock()
		return 0, m.WriteErr
	}
	m.writeData = append(m.writeData, p...)
	onWrite := m.OnWrite
	m.mu.Unlock()

	if onWrite != nil {
		onWrite(p)
	}
	return len(p), nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockTransport) SetReadTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readTimeout = timeout
	return nil
}

// Flush records the call but keeps scripted bytes, so tests may queue a
// reply before invoking the operation that consumes it.
func (m *MockTransport) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushed++
	return nil
}
