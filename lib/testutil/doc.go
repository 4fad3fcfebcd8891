// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for b3 packages.
//
// [PatternInput] produces the deterministic input used by the
// published BLAKE3 test vectors: byte i is i mod 251. The prime
// modulus keeps the pattern from lining up with chunk or block
// boundaries, so misplaced offsets show up as digest mismatches.
//
// [WriteFile] writes content to a fresh file under t.TempDir() and
// returns its path, for tests of file hashing strategies.
//
// [Receive] and [WaitClosed] put a deadline on channel waits so that
// worker pool tests fail instead of hanging when a batch never
// completes.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no b3-internal dependencies.
package testutil
