// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// PatternInput returns length bytes where byte i is i % 251.
func PatternInput(length int) []byte {
	data := make([]byte, length)
	for index := range data {
		data[index] = byte(index % 251)
	}
	return data
}

// WriteFile writes content to a new file named name inside a
// per-test temporary directory and returns the file's path.
func WriteFile(t testing.TB, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
