// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the runtime scaffolding shared by arcade
// service binaries: structured logger construction and an HTTP server
// with managed lifecycle (readiness signaling and graceful shutdown).
// The caller provides the http.Handler; routing and request handling
// live with the binary.
package service
