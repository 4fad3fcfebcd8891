// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/b3/lib/byteview"
	"github.com/bureau-foundation/b3/lib/testutil"
)

// stridedProvider exposes every other byte of its data.
type stridedProvider struct{ data []byte }

func (p stridedProvider) View() (byteview.View, error) {
	return byteview.View{
		Data:     p.data,
		ItemSize: 1,
		Shape:    []int{len(p.data) / 2},
		Strides:  []int{2},
	}, nil
}

func TestUpdateViewAcceptsBuffers(t *testing.T) {
	input := testutil.PatternInput(50000)
	want := Sum256(input)

	signed := make([]int8, len(input))
	for index, value := range input {
		signed[index] = int8(value)
	}
	var array [3]byte
	copy(array[:], "abc")

	tests := []struct {
		name   string
		handle any
		want   [DigestSize]byte
	}{
		{"bytes", input, want},
		{"int8", signed, want},
		{"array pointer", &array, Sum256([]byte("abc"))},
	}
	for _, policy := range testPolicies() {
		for _, test := range tests {
			t.Run(policy.String()+"/"+test.name, func(t *testing.T) {
				hasher := newHasher(t, DefaultMode(), policy)
				if err := hasher.UpdateView(test.handle); err != nil {
					t.Fatalf("UpdateView: %v", err)
				}
				if got := hasher.Digest(); got != test.want {
					t.Errorf("Digest = %x, want %x", got, test.want)
				}
			})
		}
	}
}

func TestUpdateViewRejectsWithoutSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		handle any
		want   error
	}{
		{"string", "abc", ErrNotABuffer},
		{"nil", nil, ErrNotABuffer},
		{"uint16", []uint16{1, 2}, ErrNotABuffer},
		{"integer", 42, ErrNotABuffer},
		{"strided", stridedProvider{data: make([]byte, 16)}, ErrNonContiguousBuffer},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			hasher := newHasher(t, DefaultMode(), Single())
			hasher.Update([]byte("abc"))
			before := hasher.Digest()

			if err := hasher.UpdateView(test.handle); !errors.Is(err, test.want) {
				t.Fatalf("UpdateView error = %v, want %v", err, test.want)
			}
			if after := hasher.Digest(); after != before {
				t.Errorf("rejected UpdateView changed the digest")
			}
		})
	}
}

func TestGuardedConvertsFaults(t *testing.T) {
	err := guarded(func() { panic(fakeFault{addr: 0x1000}) })
	if !errors.Is(err, ErrIO) {
		t.Fatalf("guarded fault error = %v, want ErrIO", err)
	}

	defer func() {
		if recovered := recover(); recovered != "boom" {
			t.Errorf("recovered %v, want the original panic", recovered)
		}
	}()
	_ = guarded(func() { panic("boom") })
}

// fakeFault has the shape of the runtime error raised for memory
// faults under SetPanicOnFault.
type fakeFault struct{ addr uintptr }

func (f fakeFault) Error() string { return "unexpected fault address" }
func (f fakeFault) Addr() uintptr { return f.addr }
func (f fakeFault) RuntimeError() {}

// lockedKey stands in for a secret buffer: it exposes its key only
// through Bytes.
type lockedKey struct{ key []byte }

func (k lockedKey) Bytes() []byte { return k.key }

func TestKeyedModeFromView(t *testing.T) {
	key := lockedKey{key: []byte(testKey)}
	mode, err := KeyedModeFromView(key)
	if err != nil {
		t.Fatalf("KeyedModeFromView: %v", err)
	}
	hasher := newHasher(t, mode, Single())
	hasher.Update([]byte("abc"))
	got := hasher.Digest()
	if want := reference(t, KeyedMode([]byte(testKey)), []byte("abc"), DigestSize); !bytes.Equal(got[:], want) {
		t.Errorf("digest = %x, want %x", got, want)
	}

	// The mode holds its own copy of the key.
	key.key[0] ^= 0xff
	again := newHasher(t, mode, Single())
	again.Update([]byte("abc"))
	if second := again.Digest(); second != got {
		t.Error("changing the source buffer changed the mode")
	}

	if _, err := KeyedModeFromView(42); !errors.Is(err, ErrNotABuffer) {
		t.Errorf("KeyedModeFromView(42) error = %v, want ErrNotABuffer", err)
	}
}
