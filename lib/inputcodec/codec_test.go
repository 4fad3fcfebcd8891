// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inputcodec

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/b3/lib/testutil"
)

func compressZstd(t *testing.T, data []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	writer, err := zstd.NewWriter(&out)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	if _, err := writer.Write(data); err != nil {
		t.Fatalf("zstd Write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("zstd Close: %v", err)
	}
	return out.Bytes()
}

func compressLZ4(t *testing.T, data []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	writer := lz4.NewWriter(&out)
	if _, err := writer.Write(data); err != nil {
		t.Fatalf("lz4 Write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("lz4 Close: %v", err)
	}
	return out.Bytes()
}

func TestNewReaderDecodes(t *testing.T) {
	content := testutil.PatternInput(300000)
	zstdData := compressZstd(t, content)
	lz4Data := compressLZ4(t, content)

	tests := []struct {
		name       string
		input      []byte
		format     Format
		wantFormat Format
	}{
		{"none", content, None, None},
		{"zstd", zstdData, Zstd, Zstd},
		{"lz4", lz4Data, LZ4, LZ4},
		{"auto zstd", zstdData, Auto, Zstd},
		{"auto lz4", lz4Data, Auto, LZ4},
		{"auto plain", content, Auto, None},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reader, format, err := NewReader(bytes.NewReader(test.input), test.format)
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			defer reader.Close()
			if format != test.wantFormat {
				t.Errorf("format = %s, want %s", format, test.wantFormat)
			}
			decoded, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(decoded, content) {
				t.Errorf("decoded %d bytes that differ from the %d-byte original", len(decoded), len(content))
			}
		})
	}
}

func TestAutoShortInput(t *testing.T) {
	for _, input := range [][]byte{nil, []byte("ab"), {0x28, 0xb5}} {
		reader, format, err := NewReader(bytes.NewReader(input), Auto)
		if err != nil {
			t.Fatalf("NewReader(%x): %v", input, err)
		}
		if format != None {
			t.Errorf("format of %x = %s, want none", input, format)
		}
		decoded, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if !bytes.Equal(decoded, input) {
			t.Errorf("decoded %x, want %x", decoded, input)
		}
		reader.Close()
	}
}

func TestCorruptStreamFails(t *testing.T) {
	corrupt := append(append([]byte(nil), zstdMagic...), bytes.Repeat([]byte{0xee}, 64)...)
	reader, _, err := NewReader(bytes.NewReader(corrupt), Auto)
	if err != nil {
		return
	}
	defer reader.Close()
	if _, err := io.ReadAll(reader); err == nil {
		t.Fatal("reading a corrupt zstd stream should fail")
	}
}

func TestParseFormat(t *testing.T) {
	for _, format := range []Format{None, Auto, Zstd, LZ4} {
		parsed, err := ParseFormat(format.String())
		if err != nil {
			t.Fatalf("ParseFormat(%s): %v", format, err)
		}
		if parsed != format {
			t.Errorf("ParseFormat(%s) = %s", format, parsed)
		}
	}
	if _, err := ParseFormat("gzip"); err == nil {
		t.Error("ParseFormat(gzip) should fail")
	}
}
