// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"lukechampine.com/blake3/guts"
)

const (
	// parallelFillMin is the smallest fill that is split across the
	// dispatcher. Below it the setup costs more than it saves.
	parallelFillMin = 2048

	// fillSegment is the output handed to one dispatched task.
	fillSegment = 16 << 10

	// simdOutput is the output produced by one guts.CompressBlocks
	// call: MaxSIMD consecutive blocks.
	simdOutput = guts.MaxSIMD * guts.BlockSize
)

// OutputReader reads the extendable output of a finalized hash. It is
// a function of the root node and a position, and holds no reference
// to the Hasher it came from: later updates to the Hasher do not
// change what the reader produces.
//
// The output stream is 2^64-1 bytes long. Reads at the end return
// io.EOF.
//
// An OutputReader is not safe for concurrent use, except for FillAt
// and ReadAt, which do not touch the position.
type OutputReader struct {
	root     guts.Node
	position uint64
	dispatch dispatcher
}

// Position returns the offset of the next byte Fill or Read produces.
func (r *OutputReader) Position() uint64 { return r.position }

// SetPosition moves the reader to an absolute offset in the output
// stream. Every uint64 is a valid position.
func (r *OutputReader) SetPosition(position uint64) { r.position = position }

// Fill writes output bytes into p starting at the current position and
// advances past them. It returns the number of bytes written, which is
// len(p) unless the end of the output stream was reached.
func (r *OutputReader) Fill(p []byte) int {
	n := r.FillAt(p, r.position)
	r.position += uint64(n)
	return n
}

// FillAt writes the output bytes at offset seek into p without moving
// the reader. Equal (seek, len(p)) always produce equal bytes.
func (r *OutputReader) FillAt(p []byte, seek uint64) int {
	if remaining := math.MaxUint64 - seek; uint64(len(p)) > remaining {
		p = p[:remaining]
	}
	written := len(p)

	if offset := seek % guts.BlockSize; offset != 0 && len(p) > 0 {
		block := r.block(seek / guts.BlockSize)
		copied := copy(p, block[offset:])
		p = p[copied:]
		seek += uint64(copied)
	}
	if len(p) == 0 {
		return written
	}

	first := seek / guts.BlockSize
	if len(p) < parallelFillMin || r.dispatch == nil {
		r.fillBlocks(p, first)
		return written
	}

	segments := (len(p) + fillSegment - 1) / fillSegment
	// Output generation reads no caller memory, so nothing can fault
	// and the unguarded dispatchers never fail.
	_ = r.dispatch.run(segments, func(index int) {
		start := index * fillSegment
		end := min(start+fillSegment, len(p))
		r.fillBlocks(p[start:end], first+uint64(start/guts.BlockSize))
	}, false)
	return written
}

// Read implements io.Reader.
func (r *OutputReader) Read(p []byte) (int, error) {
	if len(p) > 0 && r.position == math.MaxUint64 {
		return 0, io.EOF
	}
	return r.Fill(p), nil
}

// ReadAt implements io.ReaderAt.
func (r *OutputReader) ReadAt(p []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, errors.New("b3: negative offset")
	}
	n := r.FillAt(p, uint64(offset))
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek implements io.Seeker for positions representable as int64.
// Positions beyond that are reachable with SetPosition. Seeking
// relative to the end is not supported.
func (r *OutputReader) Seek(offset int64, whence int) (int64, error) {
	var target uint64
	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return 0, fmt.Errorf("b3: seek to negative position %d", offset)
		}
		target = uint64(offset)
	case io.SeekCurrent:
		if offset < 0 {
			if uint64(-offset) > r.position {
				return 0, fmt.Errorf("b3: seek to negative position")
			}
			target = r.position - uint64(-offset)
		} else {
			target = r.position + uint64(offset)
		}
	case io.SeekEnd:
		return 0, errors.New("b3: seeking from the end of the output stream is not supported")
	default:
		return 0, fmt.Errorf("b3: invalid whence %d", whence)
	}
	if target > math.MaxInt64 {
		return 0, fmt.Errorf("b3: position %d does not fit in int64", target)
	}
	r.position = target
	return int64(target), nil
}

// fillBlocks fills p with output starting at a block boundary.
func (r *OutputReader) fillBlocks(p []byte, counter uint64) {
	node := r.root
	for len(p) >= simdOutput {
		node.Counter = counter
		guts.CompressBlocks((*[simdOutput]byte)(p), node)
		p = p[simdOutput:]
		counter += guts.MaxSIMD
	}
	for len(p) > 0 {
		block := r.block(counter)
		p = p[copy(p, block[:]):]
		counter++
	}
}

func (r *OutputReader) block(counter uint64) (out [guts.BlockSize]byte) {
	node := r.root
	node.Counter = counter
	words := guts.CompressNode(node)
	for index, word := range words {
		binary.LittleEndian.PutUint32(out[4*index:], word)
	}
	return out
}
