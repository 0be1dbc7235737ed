// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arcade-foundation/arcade/lib/keystore"
)

// Resolution errors. The HTTP boundary maps both to 404; they stay
// distinct so logs can tell an origin outage from a missing member.
var (
	// ErrNotFound means the requested member does not exist: the
	// origin answered with a non-success status, or the archive it
	// returned does not contain the member.
	ErrNotFound = errors.New("asset: not found")

	// ErrUpstreamUnavailable means the origin could not be reached at
	// the transport level.
	ErrUpstreamUnavailable = errors.New("asset: upstream unavailable")
)

// DefaultFetchTimeout bounds one origin fetch, redirects included.
const DefaultFetchTimeout = 30 * time.Second

// Cache key facets. A cached member occupies two keys that are always
// written in the same atomic batch: the raw bytes and the hex digest.
const (
	facetContent = "content"
	facetHash    = "hash"
)

// keyDelimiter joins namespace, member name, and facet into an opaque
// store key. Key uniqueness depends on the origin host and member
// names not containing the delimiter in colliding positions; release
// URLs and archive member paths satisfy this in practice.
const keyDelimiter = ":"

// ResolvedAsset is the result of a successful resolve: the member's
// bytes and their hex digest. The digest doubles as the HTTP ETag.
//
// The content is consumed through Reader exactly once; no second
// consumer may attach.
type ResolvedAsset struct {
	// ETag is the hex content digest.
	ETag string

	// Size is the content length in bytes.
	Size int64

	content  []byte
	consumed bool
}

// Reader returns a single-shot reader over the asset's content.
// Panics if called twice: a second consumer would silently read an
// empty stream, which is a caller bug worth failing loudly on.
func (a *ResolvedAsset) Reader() io.Reader {
	if a.consumed {
		panic("asset: ResolvedAsset consumed twice")
	}
	a.consumed = true
	return bytes.NewReader(a.content)
}

// Namespace derives the cache key prefix from an origin URL by
// stripping the scheme. "https://host/path" and "http://host/path"
// share one namespace: the payload identity is the host and path, not
// the transport.
func Namespace(originURL string) string {
	if _, rest, found := strings.Cut(originURL, "://"); found {
		return rest
	}
	return originURL
}

// Resolver orchestrates cache lookup, cache-miss fetch, archive
// expansion, and batched store writes. Safe for concurrent use; two
// simultaneous misses for the same key may both fetch and both write,
// which is wasteful but idempotent.
type Resolver struct {
	store      keystore.Store
	httpClient *http.Client
	logger     *slog.Logger
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Store is the persistence backend. Required.
	Store keystore.Store

	// FetchTimeout bounds one origin fetch including redirects.
	// Defaults to DefaultFetchTimeout if zero.
	FetchTimeout time.Duration

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewResolver creates a Resolver. Panics on missing required fields.
func NewResolver(config ResolverConfig) *Resolver {
	if config.Store == nil {
		panic("asset.Resolver: Store is required")
	}
	if config.Logger == nil {
		panic("asset.Resolver: Logger is required")
	}

	timeout := config.FetchTimeout
	if timeout == 0 {
		timeout = DefaultFetchTimeout
	}

	return &Resolver{
		store: config.Store,
		// The default transport follows redirects, which release
		// hosts rely on (download URLs redirect to a CDN).
		httpClient: &http.Client{Timeout: timeout},
		logger:     config.Logger,
	}
}

// Resolve returns the named member of the artifact at originURL,
// serving from the cache when possible. On a miss the origin is
// fetched once; if the URL names a zip bundle, every member of the
// bundle is cached with the given TTL so later requests for sibling
// members hit without another fetch. When memberName is the bundle's
// own file name the fetched body is returned whole instead of being
// searched for an inner member.
//
// Returns ErrNotFound when the origin answers non-success or the
// archive lacks the member, and ErrUpstreamUnavailable when the
// origin cannot be reached. Store failures (including use before
// initialization) propagate unwrapped in type so callers can treat
// them as fatal.
func (r *Resolver) Resolve(ctx context.Context, originURL, memberName string, ttl time.Duration) (*ResolvedAsset, error) {
	namespace := Namespace(originURL)

	contentKey := cacheKey(namespace, memberName, facetContent)
	hashKey := cacheKey(namespace, memberName, facetHash)

	cached, err := r.store.GetBatch(ctx, contentKey, hashKey)
	if err != nil {
		return nil, fmt.Errorf("reading cache for %s: %w", memberName, err)
	}
	if content, hash, ok := cachedPair(cached); ok {
		r.logger.Debug("cache hit", "namespace", namespace, "member", memberName)
		return &ResolvedAsset{ETag: hash, Size: int64(len(content)), content: content}, nil
	}

	r.logger.Info("cache miss", "namespace", namespace, "member", memberName)

	body, err := r.fetch(ctx, originURL)
	if err != nil {
		return nil, err
	}

	// Resolving an artifact by its own name yields the artifact
	// whole. The game bundle is requested this way: the archive is
	// the payload. Expansion applies only when the requested member
	// lives inside the archive, as the runtime members do in
	// WebAssembly.zip.
	format := FormatForURL(originURL)
	if memberName == originBasename(originURL) {
		format = FormatRaw
	}

	members, err := Expand(body, format, memberName)
	if err != nil {
		return nil, fmt.Errorf("expanding %s: %w", originURL, err)
	}

	// Stage both facets for every member and commit them as one
	// batch: pre-warming is unconditional, and a reader must never
	// observe content without its paired hash.
	writes := make([]keystore.Write, 0, 2*len(members))
	var result *ResolvedAsset
	for _, member := range members {
		digest := FormatHash(Digest(member.Data))
		writes = append(writes,
			keystore.Write{Key: cacheKey(namespace, member.Name, facetContent), Value: member.Data, TTL: ttl},
			keystore.Write{Key: cacheKey(namespace, member.Name, facetHash), Value: []byte(digest), TTL: ttl},
		)
		if member.Name == memberName {
			result = &ResolvedAsset{ETag: digest, Size: int64(len(member.Data)), content: member.Data}
		}
	}
	if err := r.store.SetBatch(ctx, writes); err != nil {
		return nil, fmt.Errorf("writing cache for %s: %w", namespace, err)
	}

	// The batch committed regardless: an archive that lacks the
	// requested member still pre-warms its siblings.
	if result == nil {
		r.logger.Info("member absent from archive",
			"namespace", namespace,
			"member", memberName,
			"archive_members", len(members),
		)
		return nil, fmt.Errorf("%q not in archive at %s: %w", memberName, originURL, ErrNotFound)
	}

	return result, nil
}

// fetch downloads the origin URL, following redirects, within the
// resolver's timeout.
func (r *Resolver) fetch(ctx context.Context, originURL string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, originURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building origin request: %w", err)
	}

	response, err := r.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", originURL, ErrUpstreamUnavailable)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		r.logger.Info("origin returned non-success",
			"url", originURL,
			"status", response.StatusCode,
		)
		return nil, fmt.Errorf("origin status %d for %s: %w", response.StatusCode, originURL, ErrNotFound)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading origin response: %w", ErrUpstreamUnavailable)
	}
	return body, nil
}

// cachedPair validates a batched (content, hash) read. Both values
// must be present and non-whitespace for the pair to count as a hit:
// a blank sentinel left by a misbehaving writer is treated as a miss
// rather than served.
func cachedPair(values [][]byte) (content []byte, hash string, ok bool) {
	if len(values) != 2 {
		return nil, "", false
	}
	content, hashBytes := values[0], values[1]
	if len(bytes.TrimSpace(content)) == 0 || len(bytes.TrimSpace(hashBytes)) == 0 {
		return nil, "", false
	}
	return content, string(hashBytes), true
}

// cacheKey joins key parts with the fixed delimiter.
func cacheKey(parts ...string) string {
	return strings.Join(parts, keyDelimiter)
}
