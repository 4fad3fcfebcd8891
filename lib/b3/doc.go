// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package b3 is an incremental BLAKE3 engine.
//
// A [Hasher] absorbs input of any size through any number of updates
// and produces output of any length from any position of the
// extendable output stream. It supports the three BLAKE3 functions:
// the default hash, the keyed hash ([KeyedMode]) and key derivation
// ([DeriveKeyMode]).
//
// Large updates are split into independent subtrees that a
// [ThreadPolicy] may compress in parallel. The split depends only on
// the position of the input in the stream, never on how many workers
// run it, so every policy and every way of slicing the input into
// updates produce identical output:
//
//	hasher, err := b3.New(b3.DefaultMode(), b3.Options{Threads: b3.Auto()})
//	if err != nil {
//		return err
//	}
//	defer hasher.Close()
//	hasher.Update(data)
//	digest := hasher.Digest()
//
// The compression function itself comes from
// lukechampine.com/blake3/guts.
package b3

const (
	// DigestSize is the default output length in bytes.
	DigestSize = 32

	// BlockSize is the size of one compression block.
	BlockSize = 64

	// KeySize is the key length required by the keyed mode.
	KeySize = 32

	// ChunkSize is the size of one leaf of the hash tree.
	ChunkSize = 1024

	// AutoThreads is the thread count that selects the Auto policy.
	AutoThreads = -1

	// Name identifies the algorithm.
	Name = "blake3"
)
