// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arcade-foundation/arcade/lib/clock"
)

// DefaultPingInterval is the fixed liveness interval.
const DefaultPingInterval = 10 * time.Second

// Session runs the lifecycle of one relay connection: registration,
// the liveness loop, the request-reading loop, and exactly-once
// deregistration when either loop observes transport closure.
type Session struct {
	conn       Conn
	registry   *Registry
	dispatcher *Dispatcher
	clock      clock.Clock
	logger     *slog.Logger

	pingInterval time.Duration
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// Conn is the connection this session owns. Required.
	Conn Conn

	// Registry tracks the live connection set. Required.
	Registry *Registry

	// Dispatcher resolves inbound procedure requests. Required.
	Dispatcher *Dispatcher

	// Clock drives the liveness interval. Defaults to the real clock.
	Clock clock.Clock

	// PingInterval overrides DefaultPingInterval.
	PingInterval time.Duration

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewSession creates a session. Panics on missing required fields.
func NewSession(config SessionConfig) *Session {
	if config.Conn == nil {
		panic("relay.Session: Conn is required")
	}
	if config.Registry == nil {
		panic("relay.Session: Registry is required")
	}
	if config.Dispatcher == nil {
		panic("relay.Session: Dispatcher is required")
	}
	if config.Logger == nil {
		panic("relay.Session: Logger is required")
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	interval := config.PingInterval
	if interval == 0 {
		interval = DefaultPingInterval
	}

	return &Session{
		conn:         config.Conn,
		registry:     config.Registry,
		dispatcher:   config.Dispatcher,
		clock:        clk,
		logger:       config.Logger,
		pingInterval: interval,
	}
}

// Run registers the connection and drives it until the transport
// closes or ctx is cancelled. Two concurrent activities start: a
// liveness loop (send a ping frame every interval) and a read loop
// (decode inbound frames, dispatch RPC requests, drop everything
// else). Either activity observing closure tears both down. Cleanup,
// meaning closing the connection and deregistering with its membership
// broadcast, runs exactly once no matter which side triggers it.
//
// Run blocks until both activities and all in-flight procedure
// responses have finished. Returns nil on clean shutdown.
func (s *Session) Run(ctx context.Context) error {
	id := s.registry.Add(ctx, s.conn)
	s.logger.Info("relay connected", "connection", id, "online", s.registry.Count())

	// Cleanup must be safe to invoke from either activity and safe to
	// invoke twice. Deregistration uses a context detached from ctx
	// so the departure broadcast still reaches the other connections
	// when the session ends by cancellation.
	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(func() {
			s.conn.Close()
			s.registry.Remove(context.WithoutCancel(ctx), id)
			s.logger.Info("relay disconnected", "connection", id, "online", s.registry.Count())
		})
	}
	defer cleanup()

	// done is closed when either activity finishes, triggering cleanup.
	done := make(chan struct{})
	var doneOnce sync.Once
	triggerDone := func() { doneOnce.Do(func() { close(done) }) }

	var goroutineWait sync.WaitGroup

	// Goroutine: liveness loop. A failed ping send means the peer is
	// gone; that is a normal shutdown trigger, not an error.
	goroutineWait.Add(1)
	go func() {
		defer goroutineWait.Done()
		defer triggerDone()
		ticker := s.clock.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.conn.WriteFrame(ctx, EncodePing()); err != nil {
					return
				}
			}
		}
	}()

	// requestWait tracks in-flight procedure handlers so Run does not
	// return while a response write is still possible.
	var requestWait sync.WaitGroup

	// Goroutine: read loop. RPC request frames are dispatched on
	// their own goroutines so a slow handler cannot stall the loop;
	// responses therefore complete in any order and callers correlate
	// by id. Every other frame shape is dropped silently.
	goroutineWait.Add(1)
	go func() {
		defer goroutineWait.Done()
		defer triggerDone()
		for {
			data, err := s.conn.ReadFrame(ctx)
			if err != nil {
				// Read failure means the peer disconnected or the
				// connection was closed during shutdown.
				return
			}
			frame := DecodeFrame(data)
			if frame.Kind != FrameRPCRequest {
				continue
			}
			request := frame.Request
			requestWait.Add(1)
			go func() {
				defer requestWait.Done()
				s.respond(ctx, request)
			}()
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	// Close the connection to unblock the reader; the liveness loop
	// exits via done.
	cleanup()
	triggerDone()
	goroutineWait.Wait()
	requestWait.Wait()
	return nil
}

// respond dispatches one request and writes the framed response back.
// Dispatch failures become error frames; a response that cannot be
// written (connection already gone) is logged and dropped.
func (s *Session) respond(ctx context.Context, request *ProcedureRequest) {
	result, dispatchErr := s.dispatcher.Dispatch(ctx, request.Method, request.Arguments)

	var payload []byte
	var encodeErr error
	if dispatchErr != nil {
		payload, encodeErr = EncodeError(request.ID, dispatchErr.Error())
	} else {
		payload, encodeErr = EncodeResult(request.ID, result)
	}
	if encodeErr != nil {
		s.logger.Error("procedure result not serializable",
			"method", request.Method,
			"error", encodeErr,
		)
		payload, encodeErr = EncodeError(request.ID, "internal: result not serializable")
		if encodeErr != nil {
			return
		}
	}

	if err := s.conn.WriteFrame(ctx, payload); err != nil {
		s.logger.Debug("response write failed",
			"method", request.Method,
			"error", err,
		)
	}
}
