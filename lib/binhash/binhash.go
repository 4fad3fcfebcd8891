// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"

	"github.com/bureau-foundation/b3/lib/b3"
)

// HashFile computes the default-mode BLAKE3 digest of the file at path.
// Large files are memory-mapped and small ones read, as chosen by
// b3.FileStrategyAuto.
func HashFile(path string) ([b3.DigestSize]byte, error) {
	hasher, err := b3.New(b3.DefaultMode(), b3.Options{})
	if err != nil {
		return [b3.DigestSize]byte{}, err
	}
	defer hasher.Close()

	if err := hasher.UpdateFile(path); err != nil {
		return [b3.DigestSize]byte{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return hasher.Digest(), nil
}

// FormatDigest returns the lowercase hex encoding of digest.
func FormatDigest(digest [b3.DigestSize]byte) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex digest.
func ParseDigest(hexString string) ([b3.DigestSize]byte, error) {
	var digest [b3.DigestSize]byte
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing hash digest: %w", err)
	}
	if len(decoded) != b3.DigestSize {
		return digest, fmt.Errorf("hash digest is %d bytes, want %d", len(decoded), b3.DigestSize)
	}
	copy(digest[:], decoded)
	return digest, nil
}
