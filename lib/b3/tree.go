// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"math/bits"

	"lukechampine.com/blake3/guts"
)

const (
	// taskChunks is the number of chunks compressed by one dispatched
	// task: exactly one guts.CompressBuffer call.
	taskChunks = guts.MaxSIMD

	taskBytes = taskChunks * guts.ChunkSize

	// maxStackDepth bounds the chaining value stack: 2^64 bytes of
	// input is 2^54 chunks, so at most 54 subtrees are ever unmerged.
	maxStackDepth = 54
)

// treeState is the accumulated BLAKE3 tree for all input fed so far.
//
// Committed chunks have been compressed and folded into the stack,
// one chaining value per set bit of chunks, largest subtree at the
// bottom. The pending chunk holds the last 1..1024 bytes of input (or
// nothing, before any input) and is never committed until more input
// arrives, because it may turn out to be the root.
//
// treeState is a plain value: assigning it copies the whole tree,
// which is how updates get all-or-nothing semantics.
type treeState struct {
	key   [8]uint32
	flags uint32

	chunks uint64
	stack  [maxStackDepth][8]uint32
	depth  int

	pending    [guts.ChunkSize]byte
	pendingLen int
}

func (t *treeState) init(key [8]uint32, flags uint32) {
	*t = treeState{key: key, flags: flags}
}

// reset discards all input, keeping the key and domain flags.
func (t *treeState) reset() {
	t.init(t.key, t.flags)
}

// length returns the number of input bytes absorbed.
func (t *treeState) length() uint64 {
	return t.chunks*guts.ChunkSize + uint64(t.pendingLen)
}

// fitsPending reports whether p can be absorbed without committing
// any chunk, in which case update cannot fail or dispatch work.
func (t *treeState) fitsPending(p []byte) bool {
	return t.pendingLen+len(p) <= guts.ChunkSize
}

// updateInline absorbs p entirely on the calling goroutine.
func (t *treeState) updateInline(p []byte) {
	// The inline dispatcher never returns an error without a guard.
	_ = t.update(p, inlineDispatcher{}, false)
}

// update absorbs p, compressing full chunks through d. On error the
// receiver is left partially updated; callers work on a copy.
func (t *treeState) update(p []byte, d dispatcher, guard bool) error {
	if len(p) == 0 {
		return nil
	}

	if t.pendingLen > 0 {
		copied := copy(t.pending[t.pendingLen:], p)
		t.pendingLen += copied
		p = p[copied:]
		if len(p) == 0 {
			return nil
		}
		// More input follows, so the full pending chunk is not the
		// root and can be committed.
		t.push(guts.ChainingValue(guts.CompressChunk(t.pending[:], &t.key, t.chunks, t.flags)), 0)
		t.pendingLen = 0
	}

	// Commit every full chunk except the last one; the final 1..1024
	// bytes stay pending.
	full := (len(p) - 1) / guts.ChunkSize
	if full > 0 {
		if err := t.commitChunks(p[:full*guts.ChunkSize], d, guard); err != nil {
			return err
		}
		p = p[full*guts.ChunkSize:]
	}

	t.pendingLen = copy(t.pending[:], p)
	return nil
}

// subtree is one aligned, power-of-two run of chunks that becomes a
// single stack entry.
type subtree struct {
	height    int
	offset    int
	counter   uint64
	firstTask int
	tasks     int
}

// commitChunks compresses a whole number of chunks starting at the
// global chunk index t.chunks and folds them into the stack.
//
// The run is split into the aligned subtrees the BLAKE3 tree itself
// contains at these positions (guts.Eigentrees), so the resulting
// stack is identical to committing the chunks one at a time. Each
// subtree is cut into tasks of at most taskChunks chunks; tasks are
// the unit of parallelism and are combined pairwise afterwards in a
// fixed order.
func (t *treeState) commitChunks(p []byte, d dispatcher, guard bool) error {
	heights := guts.Eigentrees(t.chunks, uint64(len(p)/guts.ChunkSize))

	subtrees := make([]subtree, len(heights))
	taskCount := 0
	offset := 0
	counter := t.chunks
	for index, height := range heights {
		chunks := 1 << height
		tasks := 1
		if chunks > taskChunks {
			tasks = chunks / taskChunks
		}
		subtrees[index] = subtree{
			height:    height,
			offset:    offset,
			counter:   counter,
			firstTask: taskCount,
			tasks:     tasks,
		}
		taskCount += tasks
		offset += chunks * guts.ChunkSize
		counter += uint64(chunks)
	}

	// Task i of a subtree covers min(2^height, taskChunks) chunks.
	type taskRange struct {
		offset  int
		length  int
		counter uint64
	}
	ranges := make([]taskRange, 0, taskCount)
	for _, tree := range subtrees {
		chunksPerTask := min(1<<tree.height, taskChunks)
		for task := range tree.tasks {
			ranges = append(ranges, taskRange{
				offset:  tree.offset + task*chunksPerTask*guts.ChunkSize,
				length:  chunksPerTask * guts.ChunkSize,
				counter: tree.counter + uint64(task*chunksPerTask),
			})
		}
	}

	results := make([][8]uint32, taskCount)
	compress := func(index int) {
		r := ranges[index]
		results[index] = t.subtreeCV(p[r.offset:r.offset+r.length], r.counter)
	}

	var err error
	if taskCount < 2 {
		err = inlineDispatcher{}.run(taskCount, compress, guard)
	} else {
		err = d.run(taskCount, compress, guard)
	}
	if err != nil {
		return err
	}

	for _, tree := range subtrees {
		t.push(t.mergeLevel(results[tree.firstTask:tree.firstTask+tree.tasks]), tree.height)
	}
	return nil
}

// subtreeCV returns the chaining value of a power-of-two run of full
// chunks that starts at chunk counter.
func (t *treeState) subtreeCV(p []byte, counter uint64) [8]uint32 {
	chunks := len(p) / guts.ChunkSize
	switch {
	case chunks == taskChunks:
		return guts.ChainingValue(guts.CompressBuffer((*[taskBytes]byte)(p), taskBytes, &t.key, counter, t.flags))
	case chunks == 1:
		return guts.ChainingValue(guts.CompressChunk(p, &t.key, counter, t.flags))
	default:
		half := chunks / 2
		left := t.subtreeCV(p[:half*guts.ChunkSize], counter)
		right := t.subtreeCV(p[half*guts.ChunkSize:], counter+uint64(half))
		return t.parentCV(left, right)
	}
}

// mergeLevel reduces a power-of-two list of sibling chaining values
// to their common ancestor. The input slice is overwritten.
func (t *treeState) mergeLevel(cvs [][8]uint32) [8]uint32 {
	for len(cvs) > 1 {
		for index := range len(cvs) / 2 {
			cvs[index] = t.parentCV(cvs[2*index], cvs[2*index+1])
		}
		cvs = cvs[:len(cvs)/2]
	}
	return cvs[0]
}

func (t *treeState) parentCV(left, right [8]uint32) [8]uint32 {
	return guts.ChainingValue(guts.ParentNode(left, right, &t.key, t.flags))
}

// push appends a subtree of 2^height chunks and merges equal-sized
// neighbours at the top of the stack. The caller guarantees that
// t.chunks is a multiple of 2^height.
func (t *treeState) push(cv [8]uint32, height int) {
	t.chunks += 1 << height
	for merges := bits.TrailingZeros64(t.chunks) - height; merges > 0; merges-- {
		t.depth--
		cv = t.parentCV(t.stack[t.depth], cv)
	}
	t.stack[t.depth] = cv
	t.depth++
}

// rootOutput folds the pending chunk and the stack into the root
// node. The node's counter is the output block index; callers set it
// before compressing.
func (t *treeState) rootOutput() guts.Node {
	node := guts.CompressChunk(t.pending[:t.pendingLen], &t.key, t.chunks, t.flags)
	for level := t.depth - 1; level >= 0; level-- {
		node = guts.ParentNode(t.stack[level], guts.ChainingValue(node), &t.key, t.flags)
	}
	node.Flags |= guts.FlagRoot
	return node
}
