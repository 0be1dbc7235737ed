// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

// Package asset resolves release artifacts from a remote origin into
// cached, digest-addressed byte payloads.
//
// The package is organized around the resolve data flow:
//
//   - hash.go: content digests used for cache validation and ETags
//   - archive.go: expansion of zip bundles into named members
//   - resolver.go: cache-or-fetch orchestration against a key store
//
// A Resolver consults the key store first; on miss it fetches the
// origin URL, expands archives into all of their members, and writes
// every member back to the store in one atomic batch so that one
// archive download pre-warms the cache for every file it contains.
package asset
