// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/bureau-foundation/b3/lib/binhash"
)

// Build metadata, overridden with -ldflags -X. GitDirty is "true" for
// builds from a modified tree.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"
)

// Info returns "<version> (<commit>[-dirty], <build time>)".
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Full returns Info plus the Go version and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// SelfDigest returns the hex BLAKE3 digest of the running executable.
func SelfDigest() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	digest, err := binhash.HashFile(path)
	if err != nil {
		return "", err
	}
	return binhash.FormatDigest(digest), nil
}

// Print writes "<name> <Full>" and, when it can be computed, the
// executable digest.
func Print(w io.Writer, name string) {
	fmt.Fprintf(w, "%s %s\n", name, Full())
	if digest, err := SelfDigest(); err == nil {
		fmt.Fprintf(w, "  Binary: %s\n", digest)
	}
}
