// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memConn is an in-memory Conn for tests. Inbound frames are pushed
// with push(); outbound frames are received from writes.
type memConn struct {
	inbound chan []byte
	writes  chan []byte

	mu         sync.Mutex
	closed     bool
	failWrites bool

	closedCh chan struct{}
}

func newMemConn() *memConn {
	return &memConn{
		inbound:  make(chan []byte, 16),
		writes:   make(chan []byte, 64),
		closedCh: make(chan struct{}),
	}
}

func (c *memConn) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.closedCh:
		return nil, errors.New("memconn: closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *memConn) WriteFrame(ctx context.Context, data []byte) error {
	c.mu.Lock()
	closed, failWrites := c.closed, c.failWrites
	c.mu.Unlock()
	if closed || failWrites {
		return errors.New("memconn: write on dead connection")
	}
	select {
	case c.writes <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *memConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.closedCh)
	}
	return nil
}

// failAllWrites makes every subsequent WriteFrame fail without
// closing the read side, simulating a transport whose sends fail
// before the failure is observed by the reader.
func (c *memConn) failAllWrites() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWrites = true
}

// push delivers an inbound frame to the connection's read loop.
func (c *memConn) push(t *testing.T, data []byte) {
	t.Helper()
	select {
	case c.inbound <- data:
	case <-time.After(time.Second):
		t.Fatal("push: inbound buffer full")
	}
}

// nextFrame receives the next outbound frame, failing the test after
// a timeout.
func (c *memConn) nextFrame(t *testing.T) []byte {
	t.Helper()
	select {
	case data := <-c.writes:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("nextFrame: no outbound frame")
		return nil
	}
}

// nextMatchingFrame receives outbound frames until match returns
// true, skipping the rest. Broadcast and response frames interleave
// arbitrarily, so tests select the shape they care about.
func (c *memConn) nextMatchingFrame(t *testing.T, match func(data []byte) bool) []byte {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-c.writes:
			if match(data) {
				return data
			}
		case <-deadline:
			t.Fatal("nextMatchingFrame: no matching outbound frame")
			return nil
		}
	}
}

// isRPCResponse matches response frames.
func isRPCResponse(data []byte) bool {
	var envelope struct {
		RPC *struct {
			Response *json.RawMessage `json:"response"`
		} `json:"rpc"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return false
	}
	return envelope.RPC != nil && envelope.RPC.Response != nil
}

// decodeResponse extracts the response fields from a response frame.
func decodeResponse(t *testing.T, data []byte) (id json.RawMessage, result any, errorMessage string) {
	t.Helper()
	var envelope struct {
		RPC struct {
			Response struct {
				ID     json.RawMessage `json:"id"`
				Result any             `json:"result"`
				Error  string          `json:"error"`
			} `json:"response"`
		} `json:"rpc"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("decoding response frame %q: %v", data, err)
	}
	response := envelope.RPC.Response
	return response.ID, response.Result, response.Error
}

// decodeOnlineCount extracts the clients count from a broadcast
// frame, or -1 when the frame is not an online event.
func decodeOnlineCount(data []byte) int {
	var envelope struct {
		Event *struct {
			Topic string `json:"topic"`
			Data  struct {
				Clients int `json:"clients"`
			} `json:"data"`
		} `json:"event"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return -1
	}
	if envelope.Event == nil || envelope.Event.Topic != "online" {
		return -1
	}
	return envelope.Event.Data.Clients
}

// requestFrame builds an RPC request frame.
func requestFrame(t *testing.T, id any, method string, arguments map[string]any) []byte {
	t.Helper()
	frame := map[string]any{
		"rpc": map[string]any{
			"request": map[string]any{
				"id":        id,
				"method":    method,
				"arguments": arguments,
			},
		},
	}
	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshaling request frame: %v", err)
	}
	return data
}
