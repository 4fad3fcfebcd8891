// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !(darwin || linux)

package mmapfile

import (
	"errors"
	"fmt"
)

var ErrNotRegular = errors.New("not a regular file")

// Mapping is never produced on this platform.
type Mapping struct {
	path string
	data []byte
}

// Open always fails with an error matching errors.ErrUnsupported.
func Open(path string) (*Mapping, error) {
	return nil, fmt.Errorf("mapping %s: %w", path, errors.ErrUnsupported)
}

func (m *Mapping) Bytes() []byte { return m.data }

func (m *Mapping) Len() int { return len(m.data) }

func (m *Mapping) Path() string { return m.path }

func (m *Mapping) Close() error { return nil }
