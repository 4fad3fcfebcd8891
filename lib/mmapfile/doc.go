// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mmapfile maps regular files read-only into memory so their
// contents can be handed to code that wants a []byte without copying.
//
// A [Mapping] stays valid until Close. If the file is truncated or the
// storage under it fails while the mapping is in use, reading the
// affected pages raises a memory fault instead of returning an error.
// Readers that must survive this enable runtime/debug.SetPanicOnFault
// around their accesses and recover the fault.
//
// Mapping is only available on Linux and Darwin. Elsewhere [Open]
// returns an error matching [errors.ErrUnsupported] and callers fall
// back to ordinary reads.
package mmapfile
