// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"strings"
	"testing"
)

func TestDigestDeterminism(t *testing.T) {
	t.Parallel()
	payload := []byte("the exact byte payload")

	first := Digest(payload)
	second := Digest(payload)
	if first != second {
		t.Fatalf("Digest not deterministic: %x vs %x", first, second)
	}
}

func TestDigestDistinguishesPayloads(t *testing.T) {
	t.Parallel()
	if Digest([]byte("payload-x")) == Digest([]byte("payload-y")) {
		t.Fatal("different payloads produced the same digest")
	}
	// A single flipped bit must change the digest.
	if Digest([]byte{0x00}) == Digest([]byte{0x01}) {
		t.Fatal("single-bit difference produced the same digest")
	}
}

func TestFormatHashIsLowerHex(t *testing.T) {
	t.Parallel()
	formatted := FormatHash(Digest([]byte("x")))
	if len(formatted) != 64 {
		t.Fatalf("formatted hash length = %d, want 64", len(formatted))
	}
	if formatted != strings.ToLower(formatted) {
		t.Fatalf("formatted hash is not lowercase: %q", formatted)
	}
}

func TestParseHashRoundTrip(t *testing.T) {
	t.Parallel()
	original := Digest([]byte("round trip"))

	parsed, err := ParseHash(FormatHash(original))
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if parsed != original {
		t.Fatalf("round trip mismatch: %x vs %x", parsed, original)
	}
}

func TestParseHashRejectsMalformedInput(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short", "abcd"},
		{"non-hex", strings.Repeat("zz", 32)},
		{"too long", strings.Repeat("ab", 33)},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseHash(testCase.input); err == nil {
				t.Fatalf("ParseHash(%q) succeeded, want error", testCase.input)
			}
		})
	}
}
