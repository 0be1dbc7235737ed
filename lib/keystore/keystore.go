// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

// Package keystore defines the key/value persistence port used by the
// asset resolver: TTL'd values read and written in atomic batches.
//
// Two implementations exist:
//
//   - *Redis: the production backend, batching through MULTI/EXEC
//     transactional pipelines so a reader never observes one half of
//     a paired write.
//   - *Memory: an in-process map with clock-driven expiry, used by
//     tests and local development.
package keystore

import (
	"context"
	"errors"
	"time"
)

// ErrNotReady reports an operation attempted before the store client
// finished start-up. This is a deployment-ordering bug, not a runtime
// condition to recover from; callers fail the request loudly.
var ErrNotReady = errors.New("keystore: client not initialized")

// Write is one staged key write. TTL is the retention period attached
// to the key; the store expires the entry on its own once the TTL
// elapses (there is no explicit deletion path).
type Write struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

// Store is the persistence contract the resolver issues batches
// against. Both methods are atomic with respect to other batches: all
// reads in a GetBatch observe one consistent point, and all writes in
// a SetBatch become visible together.
type Store interface {
	// GetBatch reads all keys in one atomic batch. The result has one
	// entry per requested key, in order; missing or expired keys
	// yield a nil entry rather than an error.
	GetBatch(ctx context.Context, keys ...string) ([][]byte, error)

	// SetBatch applies all writes in one atomic batch. A reader
	// racing the batch sees either none of the writes or all of them.
	SetBatch(ctx context.Context, writes []Write) error

	// Ping verifies the store is reachable. Used once at start-up to
	// fail fast on misconfiguration.
	Ping(ctx context.Context) error

	// Close releases the store's resources. Idempotent.
	Close() error
}
