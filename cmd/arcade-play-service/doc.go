// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

// Command arcade-play-service serves versioned game release artifacts
// and a websocket relay for connected players.
//
// Asset requests under /play/ are resolved through a TTL'd key/value
// cache: the first request for any member of a release archive pulls
// the whole archive from the origin (GitHub release downloads) and
// pre-warms every member, so subsequent requests are served without a
// remote call. The /socket endpoint upgrades to a relay session
// carrying keepalive pings, RPC dispatch, and online-count broadcasts.
//
// Configuration is a single YAML file named by the ARCADE_CONFIG
// environment variable or the --config flag.
package main
