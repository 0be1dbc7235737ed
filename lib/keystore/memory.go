// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package keystore

import (
	"context"
	"sync"
	"time"

	"github.com/arcade-foundation/arcade/lib/clock"
)

// Memory is an in-process Store for tests and local development.
// Expiry is lazy: entries past their deadline are dropped when read.
// The injected clock makes TTL behavior testable without sleeping.
type Memory struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value []byte

	// expiresAt is the deadline after which the entry is gone. The
	// zero time means no expiry.
	expiresAt time.Time
}

// NewMemory creates an empty in-memory store. Panics if clk is nil.
func NewMemory(clk clock.Clock) *Memory {
	if clk == nil {
		panic("keystore.Memory: clock is required")
	}
	return &Memory{
		clock:   clk,
		entries: make(map[string]memoryEntry),
	}
}

// GetBatch reads all keys under one lock acquisition, which gives the
// same no-torn-reads guarantee as the Redis pipeline.
func (m *Memory) GetBatch(ctx context.Context, keys ...string) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	values := make([][]byte, len(keys))
	for i, key := range keys {
		entry, ok := m.entries[key]
		if !ok {
			continue
		}
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			continue
		}
		values[i] = entry.value
	}
	return values, nil
}

// SetBatch applies all writes under one lock acquisition. A write
// with TTL <= 0 expires immediately.
func (m *Memory) SetBatch(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	for _, write := range writes {
		m.entries[write.Key] = memoryEntry{
			value:     write.Value,
			expiresAt: now.Add(write.TTL),
		}
	}
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close discards all entries. Idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

// Len returns the number of live entries. Expired entries that have
// not been read yet still count; useful only for test assertions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Compile-time check: *Memory implements Store.
var _ Store = (*Memory)(nil)
