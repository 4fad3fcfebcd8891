// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package byteview turns opaque, externally owned memory handles into
// contiguous byte ranges that a hashing engine may read.
//
// The boundary has one job: given a handle whose concrete type the
// engine does not know, produce a [Borrow] over raw bytes or refuse.
// A handle qualifies when it is:
//
//   - a []byte or []int8, or any named slice or array type whose
//     element is a one-byte integer (signed and unsigned bytes are
//     treated identically; the bit patterns are reinterpreted, never
//     converted);
//   - a [Bytes] implementation, such as an mlocked secret buffer or a
//     memory-mapped file;
//   - a [Provider] that describes a possibly multi-dimensional view
//     with shape, strides, and item size. Providers must describe a
//     C-contiguous region of one-byte items.
//
// Anything else fails with [ErrNotABuffer]; strided providers fail
// with [ErrNonContiguousBuffer]. Strings are refused on purpose:
// callers convert them explicitly so that text encoding is never
// guessed.
//
// A Borrow guarantees that the handle stays reachable, and therefore
// its storage is neither freed nor relocated, until Release. It does
// not guarantee that the bytes stay unchanged. The engine only reads
// borrowed memory, and the caller must not write to it from another
// goroutine while a borrow is held. Violating that precondition
// produces an unspecified digest, never memory corruption; it is not
// checked at runtime.
//
// This package has no dependencies on other b3 packages.
package byteview
