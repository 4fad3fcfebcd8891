// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR configuration for state the b3 tools
// persist, such as hasher checkpoints.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Equal values always encode to equal bytes, so a checkpoint can itself
// be compared or hashed.
//
// The decoder is strict. Duplicate map keys and fields the target
// struct does not declare are errors, because persisted state that
// does not match the reader's schema must not resume silently.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types use `cbor:"N,keyasint"` tags: integer keys keep state small and
// let fields be renamed without breaking stored data.
package codec
