// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package inputcodec decodes compressed input streams so that their
// content, rather than their compressed bytes, can be hashed.
//
// zstd (klauspost/compress) and LZ4 frames (pierrec/lz4) are
// supported. [Auto] sniffs the frame magic and passes anything else
// through unchanged.
package inputcodec
