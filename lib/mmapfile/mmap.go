// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package mmapfile

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/sys/unix"
)

// ErrNotRegular is returned by Open for directories, devices, pipes and
// other files that cannot be mapped as a fixed-length byte range.
var ErrNotRegular = errors.New("not a regular file")

// Mapping is a read-only view of a whole file. It implements the
// byteview.Bytes capability.
type Mapping struct {
	path string
	data []byte
}

// Open maps path read-only in full. Empty files produce an empty
// mapping without calling mmap, which rejects zero-length regions.
func Open(path string) (*Mapping, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// The mapping holds its own reference to the file.
	defer unix.Close(fd)

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return nil, fmt.Errorf("stating %s: %w", path, err)
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFREG {
		return nil, fmt.Errorf("mapping %s: %w", path, ErrNotRegular)
	}
	if stat.Size == 0 {
		return &Mapping{path: path}, nil
	}
	if uint64(stat.Size) > math.MaxInt {
		return nil, fmt.Errorf("mapping %s: %d bytes exceeds the address space", path, stat.Size)
	}

	data, err := unix.Mmap(fd, 0, int(stat.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("memory-mapping %s: %w", path, err)
	}
	// Hashing reads front to back exactly once. Advice failure only
	// costs read-ahead.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return &Mapping{path: path, data: data}, nil
}

// Bytes returns the mapped contents. The slice is read-only: writing
// to it faults. It must not be used after Close.
func (m *Mapping) Bytes() []byte { return m.data }

// Len returns the mapped length in bytes.
func (m *Mapping) Len() int { return len(m.data) }

// Path returns the path the mapping was opened from.
func (m *Mapping) Path() string { return m.path }

// Close unmaps the file. Calling Close more than once is a no-op.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("unmapping %s: %w", m.path, err)
	}
	return nil
}
