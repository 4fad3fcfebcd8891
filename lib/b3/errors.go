// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/b3/lib/byteview"
)

var (
	// ErrInvalidKey is matched by [*KeyLengthError].
	ErrInvalidKey = errors.New("invalid key")

	// ErrConflictingMode is returned when both a key and a
	// derive-key context are supplied.
	ErrConflictingMode = errors.New("cannot use key and derive_key_context at the same time")

	// ErrInvalidThreadCount is returned for thread counts that are
	// neither positive nor AutoThreads.
	ErrInvalidThreadCount = errors.New("not a valid number of threads")

	// ErrThreadPoolInit is returned by New and Copy when a
	// fixed-size worker pool cannot be started.
	ErrThreadPoolInit = errors.New("thread pool initialization failed")

	// ErrLengthOverflow is returned when a requested output length
	// cannot be materialized in one slice, or would run past the end
	// of the 2^64-1 byte output stream.
	ErrLengthOverflow = errors.New("output length overflow")

	// ErrIO marks failures while reading input from files, readers,
	// or memory-mapped regions. The underlying error is wrapped
	// alongside it.
	ErrIO = errors.New("input read failed")

	// ErrInvalidCheckpoint is returned by Restore for checkpoints
	// that are malformed or internally inconsistent.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")

	// ErrNotABuffer is re-exported from the buffer boundary.
	ErrNotABuffer = byteview.ErrNotABuffer

	// ErrNonContiguousBuffer is re-exported from the buffer boundary.
	ErrNonContiguousBuffer = byteview.ErrNonContiguousBuffer
)

// KeyLengthError reports a keyed-mode key of the wrong length.
type KeyLengthError struct {
	Expected int
	Actual   int
}

func (e *KeyLengthError) Error() string {
	return fmt.Sprintf("expected a %d-byte key, found %d", e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrInvalidKey) true.
func (e *KeyLengthError) Is(target error) bool {
	return target == ErrInvalidKey
}
