// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bureau-foundation/b3/lib/mmapfile"
)

// FileStrategy selects how UpdateFile reads a file.
type FileStrategy uint8

const (
	// FileStrategyAuto maps regular files of at least the mmap
	// threshold and reads everything else. If mapping fails it falls
	// back to reading.
	FileStrategyAuto FileStrategy = iota

	// FileStrategyMmap always maps the file and fails if that is not
	// possible.
	FileStrategyMmap

	// FileStrategyRead always reads the file in pieces.
	FileStrategyRead
)

// DefaultMmapThreshold is the smallest file FileStrategyAuto maps.
// Below it, mapping costs more than a couple of reads.
const DefaultMmapThreshold = 16 << 10

// readPiece is the amount read from a stream before it is absorbed.
// Sixty-four chunks keep every worker of a small pool busy.
const readPiece = 64 << 10

// ParseFileStrategy parses "auto", "mmap" or "read".
func ParseFileStrategy(value string) (FileStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return FileStrategyAuto, nil
	case "mmap":
		return FileStrategyMmap, nil
	case "read":
		return FileStrategyRead, nil
	default:
		return 0, fmt.Errorf("unknown file strategy %q (want auto, mmap or read)", value)
	}
}

func (s FileStrategy) String() string {
	switch s {
	case FileStrategyAuto:
		return "auto"
	case FileStrategyMmap:
		return "mmap"
	case FileStrategyRead:
		return "read"
	default:
		return fmt.Sprintf("FileStrategy(%d)", uint8(s))
	}
}

func (s FileStrategy) validate() error {
	if s > FileStrategyRead {
		return fmt.Errorf("b3: invalid file strategy %d", uint8(s))
	}
	return nil
}

// UpdateFile absorbs the contents of the file at path, reading it with
// the Hasher's FileStrategy. Every failure wraps ErrIO together with
// the underlying error, and leaves the Hasher unchanged.
func (h *Hasher) UpdateFile(path string) error {
	strategy := h.options.FileStrategy
	threshold := h.options.MmapThreshold
	if threshold == 0 {
		threshold = DefaultMmapThreshold
	}

	if strategy != FileStrategyRead {
		useMap := strategy == FileStrategyMmap
		if !useMap {
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrIO, err)
			}
			useMap = info.Mode().IsRegular() && info.Size() >= threshold
		}
		if useMap {
			done, err := h.updateMapped(path, strategy == FileStrategyMmap)
			if done || err != nil {
				return err
			}
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer file.Close()

	h.logger.Debug("reading file", "path", path)
	if _, err := h.UpdateReader(file); err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}
	return nil
}

// updateMapped hashes path through a memory map. It reports false
// with a nil error when mapping failed and the caller may read the
// file instead.
func (h *Hasher) updateMapped(path string, required bool) (bool, error) {
	mapping, err := mmapfile.Open(path)
	if err != nil {
		if required {
			return true, fmt.Errorf("%w: %w", ErrIO, err)
		}
		if !errors.Is(err, errors.ErrUnsupported) {
			h.logger.Debug("memory map failed, reading instead", "path", path, "error", err)
		}
		return false, nil
	}
	defer mapping.Close()

	h.logger.Debug("hashing file through memory map", "path", path, "size", mapping.Len())
	if err := h.UpdateView(mapping); err != nil {
		return true, fmt.Errorf("hashing %s: %w", path, err)
	}
	return true, nil
}

// UpdateReader absorbs everything r produces until io.EOF and returns
// the number of bytes read. If reading fails, none of the input is
// absorbed and the error wraps ErrIO.
//
// The Hasher is locked until r is exhausted: Update, Finalize, Digest,
// XOF, Copy and Checkpoint called from other goroutines wait for the
// whole stream, so no snapshot ever covers part of it. Readers that
// can stall, such as pipes or network streams, stall those callers
// too.
func (h *Hasher) UpdateReader(r io.Reader) (int64, error) {
	piece := make([]byte, readPiece)

	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.tree
	var total int64
	for {
		n, err := io.ReadFull(r, piece)
		if n > 0 {
			// Unguarded updates of heap memory cannot fail.
			_ = next.update(piece[:n], h.dispatch, false)
			total += int64(n)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	h.tree = next
	return total, nil
}

// ReadFrom implements io.ReaderFrom with UpdateReader.
func (h *Hasher) ReadFrom(r io.Reader) (int64, error) {
	return h.UpdateReader(r)
}
