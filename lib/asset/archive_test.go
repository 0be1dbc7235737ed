// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zip"
)

// buildZip assembles an in-memory zip archive from name → content
// pairs. An empty content slice creates a zero-length entry; a name
// ending in "/" creates a directory entry.
func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for name, content := range entries {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %q: %v", name, err)
		}
		if _, err := entry.Write(content); err != nil {
			t.Fatalf("writing zip entry %q: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}
	return buffer.Bytes()
}

func TestFormatForURL(t *testing.T) {
	t.Parallel()
	cases := []struct {
		url  string
		want Format
	}{
		{"https://example.com/releases/download/v1.0/bundle.zip", FormatZip},
		{"https://example.com/releases/download/v1.0/Bundle.ZIP", FormatZip},
		{"https://example.com/releases/download/v1.0/runtime.wasm", FormatRaw},
		{"https://example.com/bundle.zip?token=abc", FormatZip},
		{"not a url at all", FormatRaw},
		{"https://example.com/", FormatRaw},
	}
	for _, testCase := range cases {
		if got := FormatForURL(testCase.url); got != testCase.want {
			t.Errorf("FormatForURL(%q) = %d, want %d", testCase.url, got, testCase.want)
		}
	}
}

func TestExpandRawWrapsWholePayload(t *testing.T) {
	t.Parallel()
	payload := []byte("whole body")

	members, err := Expand(payload, FormatRaw, "runtime.wasm")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("member count = %d, want 1", len(members))
	}
	if members[0].Name != "runtime.wasm" {
		t.Errorf("member name = %q, want %q", members[0].Name, "runtime.wasm")
	}
	if !bytes.Equal(members[0].Data, payload) {
		t.Errorf("member data = %q, want %q", members[0].Data, payload)
	}
}

func TestExpandZipYieldsAllMembers(t *testing.T) {
	t.Parallel()
	archive := buildZip(t, map[string][]byte{
		"game.js":     []byte("console.log('hi')"),
		"game.wasm":   []byte{0x00, 0x61, 0x73, 0x6d},
		"data/pak.00": []byte("level data"),
	})

	members, err := Expand(archive, FormatZip, "game.js")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("member count = %d, want 3", len(members))
	}

	byName := make(map[string][]byte)
	for _, member := range members {
		byName[member.Name] = member.Data
	}
	if !bytes.Equal(byName["game.wasm"], []byte{0x00, 0x61, 0x73, 0x6d}) {
		t.Errorf("game.wasm data = %v", byName["game.wasm"])
	}
	if !bytes.Equal(byName["data/pak.00"], []byte("level data")) {
		t.Errorf("data/pak.00 data = %q", byName["data/pak.00"])
	}
}

func TestExpandZipSkipsDirectoriesAndEmptyEntries(t *testing.T) {
	t.Parallel()
	archive := buildZip(t, map[string][]byte{
		"assets/":    nil,
		"empty.txt":  nil,
		"real.txt":   []byte("content"),
		"assets/a.b": []byte("nested"),
	})

	members, err := Expand(archive, FormatZip, "real.txt")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("member count = %d, want 2 (directories and empty entries skipped)", len(members))
	}
	for _, member := range members {
		if member.Name == "assets/" || member.Name == "empty.txt" {
			t.Errorf("unexpected member %q survived expansion", member.Name)
		}
	}
}

func TestExpandZipRejectsCorruptArchive(t *testing.T) {
	t.Parallel()
	if _, err := Expand([]byte("definitely not a zip"), FormatZip, "x"); err == nil {
		t.Fatal("Expand of corrupt archive succeeded, want error")
	}
}
