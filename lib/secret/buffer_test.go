// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"testing"
)

func TestNewSizes(t *testing.T) {
	tests := []struct {
		size    int
		wantErr bool
	}{
		{size: 1},
		{size: 32},
		{size: 4096},
		{size: 0, wantErr: true},
		{size: -1, wantErr: true},
	}
	for _, test := range tests {
		buffer, err := New(test.size)
		if test.wantErr {
			if err == nil {
				buffer.Close()
				t.Errorf("New(%d) succeeded, want error", test.size)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%d): %v", test.size, err)
		}
		if buffer.Len() != test.size || len(buffer.Bytes()) != test.size {
			t.Errorf("New(%d): Len = %d, len(Bytes) = %d", test.size, buffer.Len(), len(buffer.Bytes()))
		}
		if !bytes.Equal(buffer.Bytes(), make([]byte, test.size)) {
			t.Errorf("New(%d) is not zero-filled", test.size)
		}
		buffer.Close()
	}
}

func TestSpareByteIsHidden(t *testing.T) {
	buffer, err := allocate(32, 33)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	defer buffer.Close()

	if got := len(buffer.Bytes()); got != 32 {
		t.Errorf("len(Bytes) = %d, want 32", got)
	}
	if got := cap(buffer.data); got != 33 {
		t.Errorf("mapped capacity = %d, want 33", got)
	}
}

func TestNewFromBytesZeroesSource(t *testing.T) {
	source := []byte("whats the Elvish word for friend")
	want := bytes.Clone(source)

	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if !bytes.Equal(buffer.Bytes(), want) {
		t.Errorf("Bytes = %q, want %q", buffer.Bytes(), want)
	}
	if !bytes.Equal(source, make([]byte, len(source))) {
		t.Errorf("source was not zeroed: %q", source)
	}

	if _, err := NewFromBytes(nil); err == nil {
		t.Error("NewFromBytes(nil) succeeded, want error")
	}
}

func TestBytesIsWritable(t *testing.T) {
	buffer, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer buffer.Close()

	copy(buffer.Bytes(), "key!")
	if got := string(buffer.Bytes()); got != "key!" {
		t.Errorf("Bytes = %q after write, want %q", got, "key!")
	}
}

func TestCloseReleases(t *testing.T) {
	buffer, err := NewFromBytes([]byte("to be released"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	for attempt := range 2 {
		if err := buffer.Close(); err != nil {
			t.Fatalf("Close #%d: %v", attempt+1, err)
		}
	}
	if buffer.data != nil {
		t.Error("mapping still referenced after Close")
	}

	defer func() {
		if recover() == nil {
			t.Error("Bytes after Close did not panic")
		}
	}()
	buffer.Bytes()
}
