// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arcade-foundation/arcade/lib/asset"
	"github.com/arcade-foundation/arcade/lib/clock"
	"github.com/arcade-foundation/arcade/lib/config"
	"github.com/arcade-foundation/arcade/lib/keystore"
	"github.com/arcade-foundation/arcade/lib/service"
	"github.com/arcade-foundation/arcade/lib/version"
	"github.com/arcade-foundation/arcade/relay"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var showVersion bool
	var configPath string
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.StringVar(&configPath, "config", "", "path to the config file (overrides ARCADE_CONFIG)")
	flag.Parse()

	if showVersion {
		fmt.Printf("arcade-play-service %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logger := service.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	store, err := newStore(ctx, cfg, clk, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	resolver := asset.NewResolver(asset.ResolverConfig{
		Store:        store,
		FetchTimeout: cfg.Asset.FetchTimeout.Std(),
		Logger:       logger,
	})

	registry := relay.NewRegistry(logger)

	dispatcher := relay.NewDispatcher(logger)
	registerProcedures(dispatcher, cfg)

	playService := &PlayService{
		resolver:     resolver,
		registry:     registry,
		dispatcher:   dispatcher,
		clock:        clk,
		assetTTL:     cfg.Asset.TTL.Std(),
		pingInterval: cfg.Relay.PingInterval.Std(),
		runtime:      cfg.Runtime,
		releases:     cfg.Releases,
		logger:       logger,
	}

	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address:         cfg.Server.Address,
		Handler:         playService.routes(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
		Logger:          logger,
	})

	httpDone := make(chan error, 1)
	go func() {
		httpDone <- httpServer.Serve(ctx)
	}()

	select {
	case <-httpServer.Ready():
		logger.Info("play service running",
			"address", httpServer.Addr().String(),
			"backend", cfg.Store.Backend,
			"releases", len(cfg.Releases),
		)
	case <-ctx.Done():
		return <-httpDone
	}

	// Wait for shutdown signal, then for the server to drain.
	<-ctx.Done()
	logger.Info("shutting down")

	return <-httpDone
}

// newStore constructs the configured cache backend and verifies it is
// reachable before the service starts accepting requests.
func newStore(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *slog.Logger) (keystore.Store, error) {
	var store keystore.Store
	switch cfg.Store.Backend {
	case config.BackendRedis:
		store = keystore.NewRedis(keystore.RedisConfig{
			Address:  cfg.Store.Redis.Address,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
	case config.BackendMemory:
		store = keystore.NewMemory(clk)
		logger.Warn("using in-memory cache backend; cached assets do not survive restarts")
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		store.Close()
		return nil, fmt.Errorf("cache backend unreachable: %w", err)
	}
	return store, nil
}
