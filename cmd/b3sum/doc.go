// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// B3sum prints or checks BLAKE3 checksums.
//
// With no paths, or with "-", it hashes standard input. Each result is
// printed as "<hex>  <path>". Output length, seek offset, keyed and
// key-derivation modes, and the thread policy are selectable; large
// files are memory-mapped unless --no-mmap is given. With --check, the
// arguments are checksum files whose entries are verified.
//
// Defaults come from the file named by --config or B3_CONFIG; flags
// override them.
//
// Exit codes:
//
//	0  all inputs hashed, or all checksums matched
//	1  an input could not be hashed or a checksum did not match
//	2  usage or configuration error
package main
