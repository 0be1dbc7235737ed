// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeTimeout bounds one frame write. A peer that cannot accept a
// frame within this window is treated as dead.
const writeTimeout = 10 * time.Second

// WSConn adapts a websocket connection to the Conn interface.
//
// Frame atomicity comes from websocket message framing: one
// WriteFrame is one text message. A write mutex serializes the
// liveness loop, response writers, and broadcasts sharing the
// connection, which the underlying websocket implementation requires.
//
// Liveness grace: every outbound frame is accompanied by a protocol
// ping control message, and the read deadline is pushed out by the
// grace period on every pong and every inbound frame. The session
// sends a frame each ping interval, so a live peer keeps the deadline
// moving; a silent peer fails ReadFrame once the grace elapses and
// the session cleans up. Browser clients answer protocol pings
// automatically, so the JSON liveness frame stays a purely
// application-level signal as the wire protocol requires.
type WSConn struct {
	conn  *websocket.Conn
	grace time.Duration

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewWSConn wraps a websocket connection. grace is the liveness
// window; it defaults to twice DefaultPingInterval when zero.
func NewWSConn(conn *websocket.Conn, grace time.Duration) *WSConn {
	if grace <= 0 {
		grace = 2 * DefaultPingInterval
	}
	wrapped := &WSConn{conn: conn, grace: grace}

	conn.SetReadDeadline(time.Now().Add(grace))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(grace))
	})
	return wrapped
}

// ReadFrame blocks until one inbound message arrives. Any inbound
// traffic counts as liveness and refreshes the read deadline.
func (w *WSConn) ReadFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	w.conn.SetReadDeadline(time.Now().Add(w.grace))
	return data, nil
}

// WriteFrame sends one complete text message, then solicits a pong
// with a protocol ping.
func (w *WSConn) WriteFrame(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	deadline := time.Now().Add(writeTimeout)
	w.conn.SetWriteDeadline(deadline)
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	return w.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

// Close tears down the websocket. Idempotent.
func (w *WSConn) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.conn.Close()
	})
	return w.closeErr
}

// Compile-time check: *WSConn implements Conn.
var _ Conn = (*WSConn)(nil)
