// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package dxl

import (
	"io"
	"time"
)

// Transport is the abstract duplex byte stream a Bus drives. The core
// never opens, configures or enumerates physical devices; concrete
// providers live in pkg/transports.
//
// Read must honor the configured read timeout: a read that hits the
// timeout with no data returns (0, nil), matching serial port semantics.
// Any non-nil error is treated as a fatal I/O failure for the in-progress
// transfer.
type Transport interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds each blocking Read call.
	SetReadTimeout(timeout time.Duration) error

	// Flush discards any buffered, unread input.
	Flush() error
}
