// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/arcade-foundation/arcade/lib/asset"
	"github.com/arcade-foundation/arcade/lib/clock"
	"github.com/arcade-foundation/arcade/lib/config"
	"github.com/arcade-foundation/arcade/relay"
)

// PlayService is the core service state.
type PlayService struct {
	resolver   *asset.Resolver
	registry   *relay.Registry
	dispatcher *relay.Dispatcher
	clock      clock.Clock

	assetTTL     time.Duration
	pingInterval time.Duration
	runtime      config.RuntimeConfig
	releases     []config.Release

	logger *slog.Logger
}

// routes builds the HTTP routing table.
func (p *PlayService) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /play/{runtime}/{organization}/{repository}/{release}/{resolution}/{filename}", p.handleAsset)
	mux.HandleFunc("GET /api/releases", p.handleReleases)
	mux.HandleFunc("GET /socket", p.handleSocket)
	return withCORS(mux)
}

// withCORS allows cross-origin access to the whole surface. The
// service fronts public release artifacts for browser-based players
// on arbitrary origins.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Access-Control-Allow-Origin", "*")
		if request.Method == http.MethodOptions {
			writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			writer.Header().Set("Access-Control-Allow-Headers", "*")
			writer.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// originURL maps a requested member name to the release archive that
// contains it. Only two member families exist: the game bundle,
// versioned by the release path segments, and the runtime, versioned
// by the runtime path segment against the configured runtime
// repository. Anything else is not servable and must not trigger a
// fetch.
func (p *PlayService) originURL(request *http.Request) (string, bool) {
	switch request.PathValue("filename") {
	case "bundle.zip":
		return fmt.Sprintf("https://github.com/%s/%s/releases/download/v%s/bundle.zip",
			request.PathValue("organization"),
			request.PathValue("repository"),
			request.PathValue("release"),
		), true
	case "runtime.js", "runtime.wasm":
		return fmt.Sprintf("https://github.com/%s/%s/releases/download/v%s/WebAssembly.zip",
			p.runtime.Owner,
			p.runtime.Repository,
			request.PathValue("runtime"),
		), true
	default:
		return "", false
	}
}

func (p *PlayService) handleAsset(writer http.ResponseWriter, request *http.Request) {
	filename := request.PathValue("filename")

	originURL, ok := p.originURL(request)
	if !ok {
		http.NotFound(writer, request)
		return
	}

	resolved, err := p.resolver.Resolve(request.Context(), originURL, filename, p.assetTTL)
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) || errors.Is(err, asset.ErrUpstreamUnavailable) {
			http.NotFound(writer, request)
			return
		}
		p.logger.Error("asset resolution failed",
			"origin", originURL,
			"member", filename,
			"error", err,
		)
		http.Error(writer, "internal server error", http.StatusInternalServerError)
		return
	}

	mediaType := mime.TypeByExtension(path.Ext(filename))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	headers := writer.Header()
	headers.Set("Content-Type", mediaType)
	headers.Set("Content-Length", fmt.Sprintf("%d", resolved.Size))
	headers.Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", int(p.assetTTL.Seconds())))
	headers.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	headers.Set("ETag", resolved.ETag)
	headers.Set("Last-Modified", p.clock.Now().UTC().Format(http.TimeFormat))

	if _, err := io.Copy(writer, resolved.Reader()); err != nil {
		// The client went away mid-transfer. Nothing to send back.
		p.logger.Debug("asset write interrupted",
			"member", filename,
			"error", err,
		)
	}
}

func (p *PlayService) handleReleases(writer http.ResponseWriter, request *http.Request) {
	releases := p.releases
	if releases == nil {
		releases = []config.Release{}
	}

	writer.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(releases); err != nil {
		p.logger.Debug("releases write interrupted", "error", err)
	}
}
