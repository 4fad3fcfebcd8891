// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash hashes whole files with BLAKE3 and reads and writes
// b3sum-style checksum lines.
//
//   - [HashFile] -- default-mode 32-byte digest of a file
//   - [FormatDigest] and [ParseDigest] -- canonical hex form of a digest
//   - [FormatLine], [ParseLine] and [ParseChecksums] -- "<hex>  <path>"
//     lines, with b3sum's escaping for paths containing a backslash or
//     a newline
package binhash
