// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Format identifies the container format of a fetched payload. The
// format is derived from the origin URL's file extension, not from
// content sniffing; release pipelines publish predictable names.
type Format int

const (
	// FormatRaw means the payload is a single file served as-is.
	FormatRaw Format = iota

	// FormatZip means the payload is a zip container whose members
	// are cached individually.
	FormatZip
)

// Member is one named file extracted from an archive, or the whole
// payload when no expansion applies.
type Member struct {
	Name string
	Data []byte
}

// FormatForURL derives the container format from the path component
// of an origin URL. Unparseable URLs and unknown extensions fall back
// to FormatRaw: a payload we cannot classify is cached whole rather
// than rejected.
func FormatForURL(originURL string) Format {
	parsed, err := url.Parse(originURL)
	if err != nil {
		return FormatRaw
	}
	switch strings.ToLower(path.Ext(parsed.Path)) {
	case ".zip":
		return FormatZip
	default:
		return FormatRaw
	}
}

// originBasename returns the final path element of the origin URL's
// path, or "" when the URL cannot be parsed.
func originBasename(originURL string) string {
	parsed, err := url.Parse(originURL)
	if err != nil {
		return ""
	}
	return path.Base(parsed.Path)
}

// Expand decomposes a payload into its members according to format.
// For FormatRaw the result is a single member carrying the name given
// by the caller. For FormatZip every regular, non-empty entry becomes
// a member; directories and zero-length entries are skipped rather
// than failing the whole expansion.
//
// Input and members are fully materialized in memory. Release bundles
// are bounded artifact sizes, not unbounded data, so no streaming
// extraction is needed.
func Expand(raw []byte, format Format, rawName string) ([]Member, error) {
	switch format {
	case FormatRaw:
		return []Member{{Name: rawName, Data: raw}}, nil
	case FormatZip:
		return expandZip(raw)
	default:
		return nil, fmt.Errorf("unknown archive format %d", format)
	}
}

// expandZip reads every usable entry out of a zip payload.
func expandZip(raw []byte) ([]Member, error) {
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("opening zip archive: %w", err)
	}

	var members []Member
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if file.UncompressedSize64 == 0 {
			continue
		}
		data, err := readZipMember(file)
		if err != nil {
			return nil, fmt.Errorf("extracting %q: %w", file.Name, err)
		}
		members = append(members, Member{Name: file.Name, Data: data})
	}
	return members, nil
}

func readZipMember(file *zip.File) ([]byte, error) {
	entry, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer entry.Close()
	return io.ReadAll(entry)
}
