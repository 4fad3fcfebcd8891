// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/b3/lib/codec"
	"github.com/bureau-foundation/b3/lib/testutil"
)

func TestCheckpointResumes(t *testing.T) {
	modes := []Mode{DefaultMode(), KeyedMode([]byte(testKey)), DeriveKeyMode(testContext)}
	for _, mode := range modes {
		for _, split := range []int{0, 1, 1024, 1025, 16 << 10, 70001} {
			input := testutil.PatternInput(150000)
			first := newHasher(t, mode, Single())
			first.Update(input[:split])

			data, err := first.Checkpoint()
			if err != nil {
				t.Fatalf("Checkpoint: %v", err)
			}
			resumed, err := Restore(data, Options{Threads: Fixed(2)})
			if err != nil {
				t.Fatalf("Restore: %v", err)
			}
			resumed.Update(input[split:])
			got, err := resumed.Finalize(64, 0)
			resumed.Close()
			if err != nil {
				t.Fatalf("Finalize: %v", err)
			}

			if want := reference(t, mode, input, 64); !bytes.Equal(got, want) {
				t.Errorf("%s split at %d: resumed output = %x, want %x", mode, split, got, want)
			}
		}
	}
}

func TestCheckpointIsDeterministic(t *testing.T) {
	one := newHasher(t, DefaultMode(), Single())
	two := newHasher(t, DefaultMode(), Auto())
	input := testutil.PatternInput(40000)
	one.Update(input)
	two.Update(input[:10])
	two.Update(input[10:])

	first, err := one.Checkpoint()
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	second, err := two.Checkpoint()
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("equal states produced different checkpoints")
	}
}

func TestRestoreRejectsInvalid(t *testing.T) {
	valid := checkpoint{
		Version: checkpointVersion,
		Mode:    "default",
		Chunks:  3,
		Stack:   [][]byte{make([]byte, 32), make([]byte, 32)},
		Pending: []byte{1},
	}

	tests := []struct {
		name   string
		mutate func(*checkpoint)
	}{
		{"version", func(c *checkpoint) { c.Version = 2 }},
		{"mode", func(c *checkpoint) { c.Mode = "sha256" }},
		{"stack depth", func(c *checkpoint) { c.Stack = c.Stack[:1] }},
		{"stack entry", func(c *checkpoint) { c.Stack[0] = make([]byte, 31) }},
		{"pending size", func(c *checkpoint) { c.Pending = make([]byte, 1025) }},
		{"pending missing", func(c *checkpoint) { c.Pending = nil }},
		{"chunk limit", func(c *checkpoint) { c.Chunks = 1 << 60 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			state := valid
			state.Stack = [][]byte{make([]byte, 32), make([]byte, 32)}
			test.mutate(&state)
			data, err := codec.Marshal(state)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if _, err := Restore(data, Options{}); !errors.Is(err, ErrInvalidCheckpoint) {
				t.Errorf("Restore error = %v, want ErrInvalidCheckpoint", err)
			}
		})
	}

	if _, err := Restore([]byte{0xff, 0x00}, Options{}); !errors.Is(err, ErrInvalidCheckpoint) {
		t.Errorf("Restore(garbage) error = %v, want ErrInvalidCheckpoint", err)
	}

	keyed := valid
	keyed.Mode = "keyed"
	keyed.Key = make([]byte, 7)
	data, err := codec.Marshal(keyed)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := Restore(data, Options{}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Restore(short key) error = %v, want ErrInvalidKey", err)
	}
}
