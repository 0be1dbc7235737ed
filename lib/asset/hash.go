// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest of an asset's exact byte payload.
// The hex form is stored under the cache's hash facet and returned to
// HTTP callers as the ETag value.
type Hash [32]byte

// contentDomainKey is the 32-byte key for BLAKE3 keyed hashing of
// asset content. Domain separation keeps asset digests distinct from
// any other hashing this process may do over the same bytes. The key
// is a fixed constant; changing it invalidates every stored hash
// facet. The byte values are the ASCII encoding of the domain name,
// zero-padded to 32 bytes, so the key is inspectable in hex dumps
// without sacrificing any cryptographic property.
var contentDomainKey = [32]byte{
	'a', 'r', 'c', 'a', 'd', 'e', '.', 'a', 's', 's', 'e', 't', '.',
	'c', 'o', 'n', 't', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Digest computes the content-domain BLAKE3 keyed hash of the given
// payload. Deterministic across runs and machines: the same bytes
// always produce the same hash, which is what makes it usable as both
// a stored cache validator and an HTTP ETag.
func Digest(payload []byte) Hash {
	// NewKeyed requires exactly 32 bytes, which the fixed-size key
	// guarantees. The error is only returned for wrong key length, so
	// this cannot fail.
	hasher, err := blake3.NewKeyed(contentDomainKey[:])
	if err != nil {
		panic("asset: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// FormatHash returns the hex-encoded string representation of a hash.
// This is the canonical format used in the store, in logs, and in
// ETag headers.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a 64-character hex string into a Hash.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing asset hash: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("asset hash is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}
