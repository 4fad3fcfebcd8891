// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// KeySizeError reports key input of the wrong length. Actual is
// Expected+1 when the input was longer than Expected, since reading
// stops there.
type KeySizeError struct {
	Expected int
	Actual   int
}

func (e *KeySizeError) Error() string {
	if e.Actual > e.Expected {
		return fmt.Sprintf("key input is longer than %d bytes", e.Expected)
	}
	return fmt.Sprintf("expected a %d-byte key, found %d", e.Expected, e.Actual)
}

// ReadKey reads exactly size raw bytes from reader into a new Buffer.
// The key is not trimmed or decoded: every byte counts. Input that is
// shorter or longer than size fails with a *KeySizeError. The key never
// passes through heap memory.
func ReadKey(reader io.Reader, size int) (*Buffer, error) {
	// One spare byte tells a key of exactly size bytes apart from a
	// longer one.
	buffer, err := allocate(size, size+1)
	if err != nil {
		return nil, err
	}

	count, err := io.ReadFull(reader, buffer.data)
	switch {
	case err == nil:
		buffer.Close()
		return nil, &KeySizeError{Expected: size, Actual: count}
	case errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF):
		if count != size {
			buffer.Close()
			return nil, &KeySizeError{Expected: size, Actual: count}
		}
		return buffer, nil
	default:
		buffer.Close()
		return nil, fmt.Errorf("reading key: %w", err)
	}
}

// ReadKeyFromPath reads a raw key of size bytes from the file at path,
// or from stdin if path is "-".
func ReadKeyFromPath(path string, size int) (*Buffer, error) {
	if path == "-" {
		return ReadKey(os.Stdin, size)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buffer, err := ReadKey(file, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buffer, nil
}
