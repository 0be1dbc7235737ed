// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/arcade-foundation/arcade/relay"
)

// upgrader accepts any origin. The relay carries no credentials and
// the service is CORS-permissive everywhere else.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleSocket upgrades the request to a websocket and drives a relay
// session on it until the peer disconnects. The session owns the
// connection from here on.
func (p *PlayService) handleSocket(writer http.ResponseWriter, request *http.Request) {
	wsConn, err := upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		p.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	session := relay.NewSession(relay.SessionConfig{
		Conn:         relay.NewWSConn(wsConn, 2*p.pingInterval),
		Registry:     p.registry,
		Dispatcher:   p.dispatcher,
		Clock:        p.clock,
		PingInterval: p.pingInterval,
		Logger:       p.logger,
	})

	if err := session.Run(request.Context()); err != nil {
		p.logger.Debug("relay session ended with error", "error", err)
	}
}
