// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"log/slog"
	"sync"
)

// Registry tracks the currently open relay connections. It holds
// non-owning references: membership never extends a connection's
// lifetime, and removing a connection whose transport already failed
// is a no-op rather than an error.
//
// Every membership change triggers an online-count broadcast to all
// registered connections.
type Registry struct {
	logger *slog.Logger

	mu     sync.Mutex
	conns  map[uint64]Conn
	nextID uint64
}

// NewRegistry creates an empty registry. Panics if logger is nil.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		panic("relay.Registry: logger is required")
	}
	return &Registry{
		logger: logger,
		conns:  make(map[uint64]Conn),
	}
}

// Add registers a connection and broadcasts the new online count.
// Returns the id to pass to Remove. Adding a connection whose
// transport has already failed succeeds; the failed send during the
// broadcast is logged and the session's read loop removes it shortly
// after.
func (r *Registry) Add(ctx context.Context, conn Conn) uint64 {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.conns[id] = conn
	r.mu.Unlock()

	r.broadcastOnline(ctx)
	return id
}

// Remove deregisters a connection and broadcasts the new online
// count. Idempotent: removing an id that is absent (already removed,
// or never added) does nothing and triggers no broadcast.
func (r *Registry) Remove(ctx context.Context, id uint64) {
	r.mu.Lock()
	_, present := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()

	if present {
		r.broadcastOnline(ctx)
	}
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// broadcastOnline fans the current membership count out to every
// registered connection concurrently. A send failure on one
// connection is logged and skipped; it never blocks or fails delivery
// to the others, and never propagates to the caller.
func (r *Registry) broadcastOnline(ctx context.Context) {
	r.mu.Lock()
	targets := make([]Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		targets = append(targets, conn)
	}
	r.mu.Unlock()

	frame := EncodeOnlineEvent(len(targets))

	var sendWait sync.WaitGroup
	for _, conn := range targets {
		sendWait.Add(1)
		go func(conn Conn) {
			defer sendWait.Done()
			if err := conn.WriteFrame(ctx, frame); err != nil {
				// A dead connection is cleaned up by its own
				// session; the broadcast just moves on.
				r.logger.Debug("online broadcast send failed", "error", err)
			}
		}(conn)
	}
	sendWait.Wait()
}
