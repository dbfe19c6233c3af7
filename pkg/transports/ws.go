// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Roverlab

package transports

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig holds configuration for connecting to a WebSocket bus bridge:
// a remote endpoint that relays raw bus bytes as binary messages.
type WSConfig struct {
	// URL is the bridge endpoint (ws:// or wss://).
	URL string

	// Username and Password enable HTTP Basic auth when both are set.
	Username string
	Password string

	// SkipTLSVerify disables certificate verification for wss://.
	SkipTLSVerify bool
}

// WSTransport adapts a WebSocket bridge to the byte-stream interface the
// bus expects. Binary messages carry raw bus bytes; other message types
// are skipped. A websocket read cannot survive a missed deadline, so
// incoming messages are pumped by a dedicated goroutine and Read applies
// the timeout on its channel.
type WSTransport struct {
	conn        *websocket.Conn
	messages    chan []byte
	readErr     chan error
	buf         []byte
	bufOffset   int
	readTimeout time.Duration
	closed      bool
}

// DialWS connects to a WebSocket bus bridge.
func DialWS(cfg WSConfig) (*WSTransport, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: cfg.SkipTLSVerify,
		}
	}

	headers := http.Header{}
	if cfg.Username != "" && cfg.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	t := &WSTransport{
		conn:        conn,
		messages:    make(chan []byte, 16),
		readErr:     make(chan error, 1),
		readTimeout: 100 * time.Millisecond,
	}
	go t.pump()
	return t, nil
}

// pump moves incoming binary messages onto the channel until the
// connection fails or closes.
func (w *WSTransport) pump() {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.readErr <- err
			close(w.messages)
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		w.messages <- data
	}
}

func (w *WSTransport) Read(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("websocket connection closed")
	}

	// Drain buffered message bytes first.
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	timer := time.NewTimer(w.readTimeout)
	defer timer.Stop()

	select {
	case data, ok := <-w.messages:
		if !ok {
			w.closed = true
			return 0, <-w.readErr
		}
		w.buf = data
		w.bufOffset = copy(p, data)
		return w.bufOffset, nil
	case <-timer.C:
		// Quiet tick: no data within the read timeout.
		return 0, nil
	}
}

func (w *WSTransport) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WSTransport) Close() error {
	w.closed = true
	return w.conn.Close()
}

// SetReadTimeout bounds each Read call.
func (w *WSTransport) SetReadTimeout(timeout time.Duration) error {
	w.readTimeout = timeout
	return nil
}

// Flush drops buffered and queued message bytes. Bytes still in flight on
// the bridge cannot be discarded from here.
func (w *WSTransport) Flush() error {
	w.buf = nil
	w.bufOffset = 0
	for {
		select {
		case _, ok := <-w.messages:
			if !ok {
				return nil
			}
		default:
			return nil
		}
	}
}
