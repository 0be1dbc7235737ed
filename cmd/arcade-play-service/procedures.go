// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/arcade-foundation/arcade/lib/config"
	"github.com/arcade-foundation/arcade/relay"
)

// registerProcedures installs the built-in RPC table. Registration
// happens once at startup; the dispatcher rejects later additions.
func registerProcedures(dispatcher *relay.Dispatcher, cfg *config.Config) {
	// echo returns its arguments verbatim. Clients use it as a
	// round-trip probe over the relay.
	dispatcher.Register("echo", func(ctx context.Context, arguments map[string]any) (any, error) {
		return arguments, nil
	})

	// releases.list returns the release manifest. Same data as
	// GET /api/releases, for clients already holding a socket.
	releases := cfg.Releases
	if releases == nil {
		releases = []config.Release{}
	}
	dispatcher.Register("releases.list", func(ctx context.Context, arguments map[string]any) (any, error) {
		return releases, nil
	})
}
