// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay implements the real-time channel between the service
// and connected players: liveness pings, framed remote-procedure
// calls, and membership broadcasts.
//
// The package is organized around the connection data flow:
//
//   - frame.go: JSON wire frames, decoded once at the boundary into a
//     tagged union
//   - registry.go: the live connection set and online-count fan-out
//   - dispatch.go: name → handler procedure table
//   - session.go: per-connection lifecycle joining the ping loop and
//     the read loop
//   - wsconn.go: websocket adapter implementing Conn
//
// Sessions own their connection; the registry holds a non-owning
// reference that is removed idempotently when either session activity
// observes transport closure.
package relay
