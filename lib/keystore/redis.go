// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is the production Store backed by a Redis server. The client
// is process-wide shared state: created once during service start-up,
// closed once during shutdown, borrowed by every request in between.
type Redis struct {
	client *redis.Client
}

// RedisConfig configures a Redis store.
type RedisConfig struct {
	// Address is the host:port of the Redis server. Required.
	Address string

	// Password is the server password. Optional.
	Password string

	// DB selects the logical database. Defaults to 0.
	DB int
}

// NewRedis creates a Redis store. Call Ping before first use to fail
// fast on misconfiguration. Panics if Address is empty.
func NewRedis(config RedisConfig) *Redis {
	if config.Address == "" {
		panic("keystore.Redis: Address is required")
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     config.Address,
			Password: config.Password,
			DB:       config.DB,
		}),
	}
}

// GetBatch reads all keys through one MULTI/EXEC pipeline. Missing
// keys yield nil entries.
func (r *Redis) GetBatch(ctx context.Context, keys ...string) ([][]byte, error) {
	if r == nil || r.client == nil {
		return nil, ErrNotReady
	}

	pipe := r.client.TxPipeline()
	commands := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		commands[i] = pipe.Get(ctx, key)
	}
	// Exec surfaces redis.Nil when any key is absent; absence is a
	// normal cache miss, not a batch failure.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis batch get: %w", err)
	}

	values := make([][]byte, len(keys))
	for i, command := range commands {
		value, err := command.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis get %s: %w", keys[i], err)
		}
		values[i] = value
	}
	return values, nil
}

// SetBatch applies all writes through one MULTI/EXEC pipeline.
func (r *Redis) SetBatch(ctx context.Context, writes []Write) error {
	if r == nil || r.client == nil {
		return ErrNotReady
	}
	if len(writes) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, write := range writes {
		pipe.Set(ctx, write.Key, write.Value, write.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis batch set: %w", err)
	}
	return nil
}

// Ping verifies the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return ErrNotReady
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the underlying client. Idempotent.
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Compile-time check: *Redis implements Store.
var _ Store = (*Redis)(nil)
