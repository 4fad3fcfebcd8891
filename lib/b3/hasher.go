// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"math"
	"sync"
	"unsafe"

	"lukechampine.com/blake3/guts"

	"github.com/bureau-foundation/b3/lib/byteview"
)

// Options configures a Hasher. The zero value hashes on the calling
// goroutine, logs nothing, and picks the file strategy automatically.
type Options struct {
	// Threads decides where chunk compression runs. It cannot be
	// changed after New.
	Threads ThreadPolicy

	// Logger receives Debug-level records about pool lifetime and
	// file strategy decisions. Nil discards them.
	Logger *slog.Logger

	// FileStrategy selects how UpdateFile reads its input.
	FileStrategy FileStrategy

	// MmapThreshold is the smallest file UpdateFile maps under
	// FileStrategyAuto. Zero means DefaultMmapThreshold.
	MmapThreshold int64
}

// Hasher is an incremental BLAKE3 hasher in one of the three modes.
//
// A Hasher is safe for concurrent use: updates, Reset and the
// snapshot taken by Finalize, XOF and Copy are serialized by an
// internal lock. Output is generated outside the lock.
//
// A Hasher with a Fixed thread policy owns a pool of goroutines and
// must be closed with Close.
type Hasher struct {
	mode    Mode
	options Options
	logger  *slog.Logger

	dispatch dispatcher

	mu   sync.Mutex
	tree treeState
}

var (
	_ hash.Hash       = (*Hasher)(nil)
	_ io.StringWriter = (*Hasher)(nil)
	_ io.ReaderFrom   = (*Hasher)(nil)
)

// New returns a Hasher for mode. It fails with ErrInvalidKey for a
// keyed mode whose key is not KeySize bytes, ErrInvalidThreadCount for
// a Fixed policy without workers, and ErrThreadPoolInit if the pool
// cannot be started.
func New(mode Mode, options Options) (*Hasher, error) {
	if err := options.Threads.validate(); err != nil {
		return nil, err
	}
	if err := options.FileStrategy.validate(); err != nil {
		return nil, err
	}
	if options.MmapThreshold < 0 {
		return nil, fmt.Errorf("b3: negative mmap threshold %d", options.MmapThreshold)
	}

	key, flags, err := mode.keyWords()
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dispatch, err := newDispatcher(options.Threads, logger)
	if err != nil {
		return nil, err
	}

	hasher := &Hasher{
		mode:     mode,
		options:  options,
		logger:   logger,
		dispatch: dispatch,
	}
	hasher.tree.init(key, flags)
	return hasher, nil
}

// Sum256 returns the default-mode digest of data.
func Sum256(data []byte) [DigestSize]byte {
	var tree treeState
	tree.init(guts.IV, 0)
	tree.updateInline(data)
	var out [DigestSize]byte
	(&OutputReader{root: tree.rootOutput()}).FillAt(out[:], 0)
	return out
}

// Mode returns the mode the Hasher was created with.
func (h *Hasher) Mode() Mode { return h.mode }

// Threads returns the thread policy the Hasher was created with.
func (h *Hasher) Threads() ThreadPolicy { return h.options.Threads }

// Update absorbs p. Empty input is a no-op. Update never retains p.
func (h *Hasher) Update(p []byte) {
	// Unguarded updates cannot fail: nothing in p can fault.
	_ = h.update(p, false)
}

// UpdateView absorbs the bytes behind an opaque buffer handle. See
// byteview.Acquire for the accepted handles. It fails with
// ErrNotABuffer or ErrNonContiguousBuffer without changing the
// Hasher, and with ErrIO if the memory behind the handle faults.
func (h *Hasher) UpdateView(handle any) error {
	borrow, err := byteview.Acquire(handle)
	if err != nil {
		return err
	}
	defer borrow.Release()
	return h.update(borrow.Bytes(), true)
}

// update absorbs p into a copy of the tree and commits the copy only
// if every task succeeded, so a failed update leaves no trace. With
// guard set, memory faults while reading p become ErrIO errors.
func (h *Hasher) update(p []byte, guard bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !guard && h.tree.fitsPending(p) {
		h.tree.updateInline(p)
		return nil
	}

	next := h.tree
	var err error
	if guard {
		if fault := guarded(func() { err = next.update(p, h.dispatch, true) }); fault != nil {
			return fault
		}
	} else {
		err = next.update(p, h.dispatch, false)
	}
	if err != nil {
		return err
	}
	h.tree = next
	return nil
}

// Write implements io.Writer. It never fails.
func (h *Hasher) Write(p []byte) (int, error) {
	h.Update(p)
	return len(p), nil
}

// WriteString implements io.StringWriter.
func (h *Hasher) WriteString(s string) (int, error) {
	// Strings are immutable, so the update can read them in place.
	h.Update(unsafe.Slice(unsafe.StringData(s), len(s)))
	return len(s), nil
}

// snapshot returns the root node of everything absorbed so far.
func (h *Hasher) snapshot() OutputReader {
	h.mu.Lock()
	root := h.tree.rootOutput()
	h.mu.Unlock()
	return OutputReader{root: root, dispatch: h.dispatch}
}

// Finalize returns length bytes of output starting at offset seek. It
// does not change the Hasher: it can be called any number of times,
// interleaved with updates. It fails with ErrLengthOverflow if length
// does not fit in a slice or the range runs past the end of the
// 2^64-1 byte output stream.
func (h *Hasher) Finalize(length, seek uint64) ([]byte, error) {
	if length > math.MaxInt {
		return nil, fmt.Errorf("%w: %d bytes requested", ErrLengthOverflow, length)
	}
	if length > math.MaxUint64-seek {
		return nil, fmt.Errorf("%w: %d bytes at offset %d", ErrLengthOverflow, length, seek)
	}
	out := make([]byte, length)
	reader := h.snapshot()
	reader.FillAt(out, seek)
	return out, nil
}

// FinalizeHex is Finalize encoded as 2*length lowercase hex digits.
func (h *Hasher) FinalizeHex(length, seek uint64) (string, error) {
	if length > math.MaxInt/2 {
		return "", fmt.Errorf("%w: %d bytes cannot be hex encoded", ErrLengthOverflow, length)
	}
	out, err := h.Finalize(length, seek)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(out), nil
}

// Digest returns the default-length output.
func (h *Hasher) Digest() [DigestSize]byte {
	var out [DigestSize]byte
	reader := h.snapshot()
	reader.FillAt(out[:], 0)
	return out
}

// Sum appends the default-length output to b.
func (h *Hasher) Sum(b []byte) []byte {
	digest := h.Digest()
	return append(b, digest[:]...)
}

// XOF returns a reader over the full output stream of everything
// absorbed so far, positioned at zero. Later updates do not affect it.
func (h *Hasher) XOF() *OutputReader {
	reader := h.snapshot()
	return &reader
}

// Reset discards all input. Mode, key and thread policy are kept, and
// so is a Fixed pool.
func (h *Hasher) Reset() {
	h.mu.Lock()
	h.tree.reset()
	h.mu.Unlock()
}

// Copy returns an independent Hasher with the same mode, options and
// absorbed input. A Fixed pool is not shared: the copy starts its own
// pool of the same size and must be closed separately.
func (h *Hasher) Copy() (*Hasher, error) {
	dispatch, err := h.dispatch.clone(h.logger)
	if err != nil {
		return nil, err
	}
	clone := &Hasher{
		mode:     h.mode,
		options:  h.options,
		logger:   h.logger,
		dispatch: dispatch,
	}
	h.mu.Lock()
	clone.tree = h.tree
	h.mu.Unlock()
	return clone, nil
}

// Close stops a Fixed pool. Other policies own nothing. A closed
// Hasher keeps working, with all compression on the calling goroutine.
func (h *Hasher) Close() error {
	return h.dispatch.close()
}

// Size returns DigestSize.
func (h *Hasher) Size() int { return DigestSize }

// BlockSize returns the compression block size.
func (h *Hasher) BlockSize() int { return BlockSize }

// Name returns "blake3".
func (h *Hasher) Name() string { return Name }
