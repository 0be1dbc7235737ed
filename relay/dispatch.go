// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"fmt"
	"log/slog"
)

// Handler executes one named procedure. Arguments arrive as the
// request's argument mapping. Handlers may block; the session runs
// each dispatch on its own goroutine, off the connection's read loop.
type Handler func(ctx context.Context, arguments map[string]any) (any, error)

// Dispatcher resolves procedure names to handlers at call time. The
// table is built once at start-up via Register; the set of callable
// procedures is extensible without touching the relay itself.
type Dispatcher struct {
	logger   *slog.Logger
	handlers map[string]Handler
}

// NewDispatcher creates an empty dispatcher. Panics if logger is nil.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		panic("relay.Dispatcher: logger is required")
	}
	return &Dispatcher{
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Register adds a named procedure to the table. Registration happens
// during start-up, before any session runs; the table is read-only
// afterwards, which is what makes lock-free lookup in Dispatch safe.
// Panics on an empty name, nil handler, or duplicate registration.
// All three are wiring bugs.
func (d *Dispatcher) Register(name string, handler Handler) {
	if name == "" {
		panic("relay.Dispatcher: procedure name is required")
	}
	if handler == nil {
		panic("relay.Dispatcher: handler is required for " + name)
	}
	if _, exists := d.handlers[name]; exists {
		panic("relay.Dispatcher: duplicate procedure " + name)
	}
	d.handlers[name] = handler
}

// Dispatch resolves method by name and executes its handler. An
// unknown method and a handler failure both come back as an error
// whose message becomes the response frame's error field; a handler
// panic is recovered and converted the same way. Dispatch never
// panics past its caller and never tears down the connection.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, arguments map[string]any) (result any, err error) {
	handler, ok := d.handlers[method]
	if !ok {
		return nil, fmt.Errorf("unknown procedure %q", method)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("procedure panicked",
				"method", method,
				"panic", recovered,
			)
			result = nil
			err = fmt.Errorf("procedure %q panicked: %v", method, recovered)
		}
	}()

	return handler(ctx, arguments)
}
