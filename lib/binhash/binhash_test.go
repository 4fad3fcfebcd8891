// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/b3/lib/b3"
	"github.com/bureau-foundation/b3/lib/testutil"
)

func TestHashFile(t *testing.T) {
	// Sizes straddle the mmap threshold and the 16-chunk task size.
	for _, size := range []int{0, 1, 1024, 1025, b3.DefaultMmapThreshold - 1, b3.DefaultMmapThreshold, 256 << 10} {
		content := testutil.PatternInput(size)
		path := testutil.WriteFile(t, "input", content)

		got, err := HashFile(path)
		if err != nil {
			t.Fatalf("HashFile(%d bytes): %v", size, err)
		}
		if want := blake3.Sum256(content); got != want {
			t.Errorf("HashFile(%d bytes) = %x, want %x", size, got, want)
		}
	}
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile("/nonexistent/binary")
	if !errors.Is(err, b3.ErrIO) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("HashFile error = %v, want ErrIO wrapping ErrNotExist", err)
	}
	if err != nil && !strings.Contains(err.Error(), "/nonexistent/binary") {
		t.Errorf("error %q does not name the path", err)
	}
}

func TestDigestText(t *testing.T) {
	digest := blake3.Sum256([]byte("digest text"))
	text := FormatDigest(digest)
	if len(text) != 2*b3.DigestSize || strings.ToLower(text) != text {
		t.Fatalf("FormatDigest = %q, want 64 lowercase hex digits", text)
	}

	parsed, err := ParseDigest(text)
	if err != nil {
		t.Fatalf("ParseDigest(%q): %v", text, err)
	}
	if parsed != digest {
		t.Errorf("ParseDigest = %x, want %x", parsed, digest)
	}
}

func TestParseDigestInvalid(t *testing.T) {
	valid := FormatDigest(blake3.Sum256(nil))
	for name, input := range map[string]string{
		"empty":     "",
		"not hex":   strings.Repeat("z", 64),
		"odd":       valid[:63],
		"too short": valid[:62],
		"too long":  valid + "00",
	} {
		if _, err := ParseDigest(input); err == nil {
			t.Errorf("%s: ParseDigest(%q) succeeded, want error", name, input)
		}
	}
}
