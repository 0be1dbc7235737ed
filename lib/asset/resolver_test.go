// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arcade-foundation/arcade/lib/clock"
	"github.com/arcade-foundation/arcade/lib/keystore"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testOrigin is a stub origin that counts fetches and serves a fixed
// body per path.
type testOrigin struct {
	server  *httptest.Server
	fetches atomic.Int64
}

func newTestOrigin(t *testing.T, responses map[string][]byte) *testOrigin {
	t.Helper()
	origin := &testOrigin{}
	origin.server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		origin.fetches.Add(1)
		body, ok := responses[request.URL.Path]
		if !ok {
			http.Error(writer, "", http.StatusNotFound)
			return
		}
		writer.Write(body)
	}))
	t.Cleanup(origin.server.Close)
	return origin
}

func newTestResolver(t *testing.T, fakeClock *clock.FakeClock) (*Resolver, *keystore.Memory) {
	t.Helper()
	store := keystore.NewMemory(fakeClock)
	resolver := NewResolver(ResolverConfig{
		Store:  store,
		Logger: testLogger(),
	})
	return resolver, store
}

func TestResolveRoundTripIdentity(t *testing.T) {
	t.Parallel()
	payload := []byte("wasm runtime bytes")
	origin := newTestOrigin(t, map[string][]byte{"/v1/runtime.wasm": payload})
	resolver, _ := newTestResolver(t, clock.Fake(epoch))
	ctx := context.Background()

	originURL := origin.server.URL + "/v1/runtime.wasm"

	first, err := resolver.Resolve(ctx, originURL, "runtime.wasm", time.Hour)
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	firstContent, _ := io.ReadAll(first.Reader())

	second, err := resolver.Resolve(ctx, originURL, "runtime.wasm", time.Hour)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	secondContent, _ := io.ReadAll(second.Reader())

	if !bytes.Equal(firstContent, payload) || !bytes.Equal(secondContent, payload) {
		t.Fatalf("content mismatch: first %q, second %q, want %q", firstContent, secondContent, payload)
	}
	if first.ETag != second.ETag {
		t.Fatalf("ETag mismatch: %q vs %q", first.ETag, second.ETag)
	}
	if got := origin.fetches.Load(); got != 1 {
		t.Fatalf("origin fetches = %d, want 1 (second resolve must be a cache hit)", got)
	}
}

func TestResolveArchivePreWarmsSiblings(t *testing.T) {
	t.Parallel()
	archive := buildZip(t, map[string][]byte{
		"a.js":   []byte("member a"),
		"b.wasm": []byte("member b"),
		"c.json": []byte("member c"),
	})
	origin := newTestOrigin(t, map[string][]byte{"/v2/bundle.zip": archive})
	resolver, _ := newTestResolver(t, clock.Fake(epoch))
	ctx := context.Background()

	originURL := origin.server.URL + "/v2/bundle.zip"

	resolved, err := resolver.Resolve(ctx, originURL, "b.wasm", time.Hour)
	if err != nil {
		t.Fatalf("Resolve b.wasm: %v", err)
	}
	content, _ := io.ReadAll(resolved.Reader())
	if !bytes.Equal(content, []byte("member b")) {
		t.Fatalf("b.wasm content = %q", content)
	}

	// Siblings a and c must now be hits with no further fetch.
	for _, member := range []string{"a.js", "c.json"} {
		if _, err := resolver.Resolve(ctx, originURL, member, time.Hour); err != nil {
			t.Fatalf("Resolve %s after pre-warm: %v", member, err)
		}
	}
	if got := origin.fetches.Load(); got != 1 {
		t.Fatalf("origin fetches = %d, want 1 (siblings must be pre-warmed)", got)
	}
}

func TestResolveArchiveByItsOwnNameServesWholeArchive(t *testing.T) {
	t.Parallel()
	archive := buildZip(t, map[string][]byte{
		"game.js":   []byte("loader"),
		"game.wasm": []byte("compiled game"),
	})
	origin := newTestOrigin(t, map[string][]byte{"/v1.2.0/bundle.zip": archive})
	resolver, _ := newTestResolver(t, clock.Fake(epoch))
	ctx := context.Background()

	originURL := origin.server.URL + "/v1.2.0/bundle.zip"

	// First request for an uncached bundle: the archive itself is the
	// asset, so the resolve must return the full zip bytes rather
	// than look for a "bundle.zip" entry inside it.
	resolved, err := resolver.Resolve(ctx, originURL, "bundle.zip", time.Hour)
	if err != nil {
		t.Fatalf("uncached Resolve of bundle.zip: %v", err)
	}
	content, _ := io.ReadAll(resolved.Reader())
	if !bytes.Equal(content, archive) {
		t.Fatalf("content length = %d, want the full archive (%d bytes)", len(content), len(archive))
	}

	second, err := resolver.Resolve(ctx, originURL, "bundle.zip", time.Hour)
	if err != nil {
		t.Fatalf("second Resolve of bundle.zip: %v", err)
	}
	if second.ETag != resolved.ETag {
		t.Fatalf("ETag changed across cache hit: %q vs %q", second.ETag, resolved.ETag)
	}
	if got := origin.fetches.Load(); got != 1 {
		t.Fatalf("origin fetches = %d, want 1 (second resolve must be a cache hit)", got)
	}
}

func TestResolveMemberAbsentFromArchive(t *testing.T) {
	t.Parallel()
	archive := buildZip(t, map[string][]byte{"present.js": []byte("x")})
	origin := newTestOrigin(t, map[string][]byte{"/bundle.zip": archive})
	resolver, _ := newTestResolver(t, clock.Fake(epoch))
	ctx := context.Background()

	originURL := origin.server.URL + "/bundle.zip"

	_, err := resolver.Resolve(ctx, originURL, "missing.js", time.Hour)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve missing member: %v, want ErrNotFound", err)
	}

	// The archive's actual members were still cached by the failed
	// resolve: the next request must hit without a fetch.
	if _, err := resolver.Resolve(ctx, originURL, "present.js", time.Hour); err != nil {
		t.Fatalf("Resolve present.js: %v", err)
	}
	if got := origin.fetches.Load(); got != 1 {
		t.Fatalf("origin fetches = %d, want 1", got)
	}
}

func TestResolveBadOriginWritesNothing(t *testing.T) {
	t.Parallel()
	origin := newTestOrigin(t, nil) // every path 404s
	resolver, store := newTestResolver(t, clock.Fake(epoch))
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, origin.server.URL+"/gone.zip", "gone.js", time.Hour)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve against 404 origin: %v, want ErrNotFound", err)
	}
	if got := store.Len(); got != 0 {
		t.Fatalf("store entries after failed fetch = %d, want 0", got)
	}
}

func TestResolveUpstreamUnavailable(t *testing.T) {
	t.Parallel()
	origin := newTestOrigin(t, nil)
	deadURL := origin.server.URL + "/file.bin"
	origin.server.Close()

	resolver, _ := newTestResolver(t, clock.Fake(epoch))

	_, err := resolver.Resolve(context.Background(), deadURL, "file.bin", time.Hour)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("Resolve against dead origin: %v, want ErrUpstreamUnavailable", err)
	}
}

func TestResolveTTLExpiryBehavesAsFreshMiss(t *testing.T) {
	t.Parallel()
	payload := []byte("short lived")
	origin := newTestOrigin(t, map[string][]byte{"/f.bin": payload})
	fakeClock := clock.Fake(epoch)
	resolver, _ := newTestResolver(t, fakeClock)
	ctx := context.Background()

	originURL := origin.server.URL + "/f.bin"

	if _, err := resolver.Resolve(ctx, originURL, "f.bin", time.Minute); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}

	fakeClock.Advance(2 * time.Minute)

	if _, err := resolver.Resolve(ctx, originURL, "f.bin", time.Minute); err != nil {
		t.Fatalf("Resolve after expiry: %v", err)
	}
	if got := origin.fetches.Load(); got != 2 {
		t.Fatalf("origin fetches = %d, want 2 (expired entry must re-fetch)", got)
	}
}

func TestResolveStoreNotReadyPropagates(t *testing.T) {
	t.Parallel()
	resolver := NewResolver(ResolverConfig{
		Store:  (*keystore.Redis)(nil),
		Logger: testLogger(),
	})

	_, err := resolver.Resolve(context.Background(), "https://example.com/f", "f", time.Hour)
	if !errors.Is(err, keystore.ErrNotReady) {
		t.Fatalf("Resolve with uninitialized store: %v, want keystore.ErrNotReady", err)
	}
}

func TestNamespaceStripsScheme(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"https://github.com/org/repo/releases/download/v1/bundle.zip", "github.com/org/repo/releases/download/v1/bundle.zip"},
		{"http://host/path", "host/path"},
		{"host/path-without-scheme", "host/path-without-scheme"},
	}
	for _, testCase := range cases {
		if got := Namespace(testCase.in); got != testCase.want {
			t.Errorf("Namespace(%q) = %q, want %q", testCase.in, got, testCase.want)
		}
	}
}
