// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inputcodec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format identifies how an input stream is encoded.
type Format uint8

const (
	// None passes input through unchanged.
	None Format = iota

	// Auto detects zstd and LZ4 frames by their magic number and
	// treats everything else as None.
	Auto

	// Zstd decodes a zstd stream.
	Zstd

	// LZ4 decodes an LZ4 frame stream.
	LZ4
)

// Frame magic numbers, as they appear on the wire (little-endian).
var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

const magicLength = 4

func (f Format) String() string {
	switch f {
	case None:
		return "none"
	case Auto:
		return "auto"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

// ParseFormat parses "none", "auto", "zstd" or "lz4". The empty string
// is None.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "auto":
		return Auto, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, fmt.Errorf("unknown input format %q (want none, auto, zstd or lz4)", name)
	}
}

// Detect returns Zstd or LZ4 if prefix starts with that format's frame
// magic, and None otherwise.
func Detect(prefix []byte) Format {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return Zstd
	case bytes.HasPrefix(prefix, lz4Magic):
		return LZ4
	default:
		return None
	}
}

// NewReader returns a reader of the decoded content of r and the
// format that was applied. For Auto the returned format is the
// detected one. The caller must Close the reader; closing it does not
// close r.
func NewReader(r io.Reader, format Format) (io.ReadCloser, Format, error) {
	if format == Auto {
		buffered := bufio.NewReader(r)
		prefix, err := buffered.Peek(magicLength)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, None, fmt.Errorf("detecting input format: %w", err)
		}
		format = Detect(prefix)
		r = buffered
	}

	switch format {
	case None:
		return io.NopCloser(r), None, nil
	case Zstd:
		decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, None, fmt.Errorf("creating zstd decoder: %w", err)
		}
		return decoder.IOReadCloser(), Zstd, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), LZ4, nil
	default:
		return nil, None, fmt.Errorf("unsupported input format %s", format)
	}
}
