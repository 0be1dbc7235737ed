// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import "context"

// Conn is one bidirectional relay channel. Implementations must make
// each WriteFrame a single complete send to the transport (ping,
// response, and broadcast frames interleave arbitrarily on the wire
// but must never corrupt one another) and must make WriteFrame safe
// for concurrent use. ReadFrame is called from one goroutine only.
//
// Close is idempotent: either session activity may invoke it, and the
// registry may hold the Conn after the transport has already failed.
type Conn interface {
	// ReadFrame blocks until one complete inbound frame arrives.
	// Returns an error once the transport is closed or the peer is
	// considered dead.
	ReadFrame(ctx context.Context) ([]byte, error)

	// WriteFrame sends one complete frame.
	WriteFrame(ctx context.Context, data []byte) error

	// Close tears down the transport. Idempotent.
	Close() error
}
