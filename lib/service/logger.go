// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"log/slog"
	"os"
)

// NewLogger constructs the service-wide structured logger: JSON on
// stderr at Info level. Also installs it as the slog default so
// libraries that log through the default logger share the same sink.
func NewLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}
