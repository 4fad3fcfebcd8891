// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds key material outside the Go heap.
//
// A [Buffer] is backed by an anonymous mmap region locked into RAM
// with mlock and, on Linux, excluded from core dumps. Close zeroes,
// unlocks and unmaps it. The garbage collector never sees the region,
// so it cannot leave copies of the key behind.
//
// [ReadKey] and [ReadKeyFromPath] read a raw key of an exact size
// straight into a Buffer. A Buffer implements byteview.Bytes, so it can
// be handed to the hasher's buffer boundary without a heap copy.
package secret
