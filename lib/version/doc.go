// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build information for the b3 binaries.
//
// [GitCommit], [GitDirty], [BuildTime] and [Version] are injected at
// build time via -ldflags -X and default to "unknown" / "0.1.0-dev"
// otherwise:
//
//	go build -ldflags "-X github.com/bureau-foundation/b3/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// [Print] writes the --version output, which includes the BLAKE3
// digest of the running executable ([SelfDigest]) so that a reported
// version can be matched to an exact binary.
package version
