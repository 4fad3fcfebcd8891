// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"lukechampine.com/blake3/guts"

	"github.com/bureau-foundation/b3/lib/codec"
)

const checkpointVersion = 1

// checkpoint is the CBOR form of a Hasher's mode and absorbed input.
// Chaining values are stored as 32-byte little-endian strings, bottom
// of the stack first.
type checkpoint struct {
	Version int      `cbor:"1,keyasint"`
	Mode    string   `cbor:"2,keyasint"`
	Key     []byte   `cbor:"3,keyasint,omitempty"`
	Context string   `cbor:"4,keyasint,omitempty"`
	Chunks  uint64   `cbor:"5,keyasint"`
	Stack   [][]byte `cbor:"6,keyasint"`
	Pending []byte   `cbor:"7,keyasint"`
}

// Checkpoint serializes the Hasher's mode and absorbed input so that
// hashing can resume later with Restore. The encoding is
// deterministic: equal states produce equal bytes.
//
// A keyed-mode checkpoint contains the key. Protect it like the key.
func (h *Hasher) Checkpoint() ([]byte, error) {
	h.mu.Lock()
	tree := h.tree
	h.mu.Unlock()

	state := checkpoint{
		Version: checkpointVersion,
		Mode:    h.mode.kind.String(),
		Key:     h.mode.key,
		Context: h.mode.context,
		Chunks:  tree.chunks,
		Stack:   make([][]byte, tree.depth),
		Pending: tree.pending[:tree.pendingLen],
	}
	for level := range tree.depth {
		state.Stack[level] = cvBytes(tree.stack[level])
	}

	data, err := codec.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encoding checkpoint: %w", err)
	}
	return data, nil
}

// Restore builds a Hasher from a Checkpoint. The thread policy and
// other options are not part of the checkpoint and come from options.
// Malformed or inconsistent data fails with ErrInvalidCheckpoint.
func Restore(data []byte, options Options) (*Hasher, error) {
	var state checkpoint
	if err := codec.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCheckpoint, err)
	}
	if state.Version != checkpointVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrInvalidCheckpoint, state.Version, checkpointVersion)
	}

	var mode Mode
	switch state.Mode {
	case modeDefault.String():
		mode = DefaultMode()
	case modeKeyed.String():
		mode = KeyedMode(state.Key)
	case modeDeriveKey.String():
		mode = DeriveKeyMode(state.Context)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidCheckpoint, state.Mode)
	}

	if err := state.validate(); err != nil {
		return nil, err
	}

	hasher, err := New(mode, options)
	if err != nil {
		return nil, err
	}
	tree := &hasher.tree
	tree.chunks = state.Chunks
	tree.depth = len(state.Stack)
	for level, cv := range state.Stack {
		tree.stack[level] = cvWords(cv)
	}
	tree.pendingLen = copy(tree.pending[:], state.Pending)
	return hasher, nil
}

func (c *checkpoint) validate() error {
	if c.Chunks >= 1<<maxStackDepth {
		return fmt.Errorf("%w: %d chunks exceeds the input limit", ErrInvalidCheckpoint, c.Chunks)
	}
	if len(c.Stack) != bits.OnesCount64(c.Chunks) {
		return fmt.Errorf("%w: %d stacked subtrees for %d chunks", ErrInvalidCheckpoint, len(c.Stack), c.Chunks)
	}
	for level, cv := range c.Stack {
		if len(cv) != 32 {
			return fmt.Errorf("%w: stack entry %d is %d bytes", ErrInvalidCheckpoint, level, len(cv))
		}
	}
	if len(c.Pending) > guts.ChunkSize {
		return fmt.Errorf("%w: pending chunk of %d bytes", ErrInvalidCheckpoint, len(c.Pending))
	}
	if c.Chunks > 0 && len(c.Pending) == 0 {
		return fmt.Errorf("%w: committed chunks without a pending chunk", ErrInvalidCheckpoint)
	}
	return nil
}

func cvBytes(cv [8]uint32) []byte {
	out := make([]byte, 32)
	for index, word := range cv {
		binary.LittleEndian.PutUint32(out[4*index:], word)
	}
	return out
}

func cvWords(data []byte) [8]uint32 {
	return wordsFromKey(data)
}
