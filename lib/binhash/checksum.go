// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Line is one entry of a checksum file.
type Line struct {
	// Digest is the expected output. Its length is the output length
	// the entry was produced with.
	Digest []byte

	// Path is the unescaped file path. "-" is standard input.
	Path string
}

var (
	pathEscaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	pathUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n")
)

// FormatLine formats digest and path as "<hex>  <path>". Paths holding
// a backslash or newline are escaped and the line is prefixed with a
// backslash, as b3sum does.
func FormatLine(digest []byte, path string) string {
	if strings.ContainsAny(path, "\\\n") {
		return `\` + hex.EncodeToString(digest) + "  " + pathEscaper.Replace(path)
	}
	return hex.EncodeToString(digest) + "  " + path
}

// ParseLine parses one line produced by FormatLine. A trailing "\r" is
// tolerated.
func ParseLine(text string) (Line, error) {
	text = strings.TrimSuffix(text, "\r")
	escaped := strings.HasPrefix(text, `\`)
	if escaped {
		text = text[1:]
	}

	digestHex, path, found := strings.Cut(text, "  ")
	if !found || path == "" {
		return Line{}, fmt.Errorf("malformed checksum line %q: want \"<hex>  <path>\"", text)
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil || len(digest) == 0 {
		return Line{}, fmt.Errorf("malformed digest %q in checksum line", digestHex)
	}
	if strings.ToLower(digestHex) != digestHex {
		return Line{}, fmt.Errorf("digest %q in checksum line is not lowercase", digestHex)
	}
	if escaped {
		path = pathUnescaper.Replace(path)
	}
	return Line{Digest: digest, Path: path}, nil
}

// ParseChecksums reads a checksum file, skipping blank lines. Errors
// name the offending line number.
func ParseChecksums(r io.Reader) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(r)
	number := 0
	for scanner.Scan() {
		number++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		line, err := ParseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", number, err)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}
	return lines, nil
}
