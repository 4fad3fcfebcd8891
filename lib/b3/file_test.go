// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/neilotoole/slogt"

	"github.com/bureau-foundation/b3/lib/mmapfile"
	"github.com/bureau-foundation/b3/lib/testutil"
)

func TestUpdateFileStrategiesAgree(t *testing.T) {
	for _, length := range []int{0, 1, 1024, 16 << 10, 16<<10 + 1, 200000} {
		content := testutil.PatternInput(length)
		path := testutil.WriteFile(t, "input", content)
		want := Sum256(content)

		for _, strategy := range []FileStrategy{FileStrategyAuto, FileStrategyMmap, FileStrategyRead} {
			hasher, err := New(DefaultMode(), Options{
				Threads:      Auto(),
				Logger:       slogt.New(t),
				FileStrategy: strategy,
			})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if err := hasher.UpdateFile(path); err != nil {
				if strategy == FileStrategyMmap && errors.Is(err, errors.ErrUnsupported) {
					continue
				}
				t.Fatalf("UpdateFile(%d bytes, %s): %v", length, strategy, err)
			}
			if got := hasher.Digest(); got != want {
				t.Errorf("UpdateFile(%d bytes, %s) = %x, want %x", length, strategy, got, want)
			}
		}
	}
}

func TestUpdateFileAppends(t *testing.T) {
	path := testutil.WriteFile(t, "tail", []byte("world"))
	hasher := newHasher(t, DefaultMode(), Single())
	hasher.Update([]byte("hello "))
	if err := hasher.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	if got, want := hasher.Digest(), Sum256([]byte("hello world")); got != want {
		t.Errorf("Digest = %x, want %x", got, want)
	}
}

func TestUpdateFileMissing(t *testing.T) {
	for _, strategy := range []FileStrategy{FileStrategyAuto, FileStrategyMmap, FileStrategyRead} {
		hasher, err := New(DefaultMode(), Options{FileStrategy: strategy})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		err = hasher.UpdateFile(t.TempDir() + "/missing")
		if !errors.Is(err, ErrIO) {
			t.Errorf("UpdateFile(missing, %s) error = %v, want ErrIO", strategy, err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("UpdateFile(missing, %s) error = %v, want it to wrap os.ErrNotExist", strategy, err)
		}
	}
}

func TestUpdateFileMmapThreshold(t *testing.T) {
	content := testutil.PatternInput(4096)
	path := testutil.WriteFile(t, "input", content)
	hasher, err := New(DefaultMode(), Options{MmapThreshold: 1024, Logger: slogt.New(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := hasher.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	if got, want := hasher.Digest(), Sum256(content); got != want {
		t.Errorf("Digest = %x, want %x", got, want)
	}

	if _, err := New(DefaultMode(), Options{MmapThreshold: -1}); err == nil {
		t.Error("New with a negative mmap threshold should fail")
	}
	if _, err := New(DefaultMode(), Options{FileStrategy: 9}); err == nil {
		t.Error("New with an unknown file strategy should fail")
	}
}

func TestUpdateReader(t *testing.T) {
	content := testutil.PatternInput(readPiece*3 + 11)
	for _, policy := range testPolicies() {
		t.Run(policy.String(), func(t *testing.T) {
			hasher := newHasher(t, DefaultMode(), policy)
			// Short reads make ReadFull assemble each piece.
			n, err := hasher.UpdateReader(iotest.HalfReader(strings.NewReader(string(content))))
			if err != nil {
				t.Fatalf("UpdateReader: %v", err)
			}
			if n != int64(len(content)) {
				t.Errorf("UpdateReader read %d bytes, want %d", n, len(content))
			}
			if got, want := hasher.Digest(), Sum256(content); got != want {
				t.Errorf("Digest = %x, want %x", got, want)
			}
		})
	}
}

func TestUpdateReaderFailureLeavesHasherUnchanged(t *testing.T) {
	hasher := newHasher(t, DefaultMode(), Fixed(2))
	hasher.Update([]byte("abc"))
	before := hasher.Digest()

	failing := io.MultiReader(
		strings.NewReader(string(testutil.PatternInput(readPiece*2))),
		iotest.ErrReader(errors.New("disk on fire")),
	)
	_, err := hasher.UpdateReader(failing)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("UpdateReader error = %v, want ErrIO", err)
	}
	if after := hasher.Digest(); after != before {
		t.Errorf("failed UpdateReader changed the digest: %x -> %x", before, after)
	}
}

func TestReadFromThroughCopy(t *testing.T) {
	content := testutil.PatternInput(100000)
	hasher := newHasher(t, DefaultMode(), Single())
	if _, err := io.Copy(hasher, strings.NewReader(string(content))); err != nil {
		t.Fatalf("io.Copy: %v", err)
	}
	if got, want := hasher.Digest(), Sum256(content); got != want {
		t.Errorf("Digest = %x, want %x", got, want)
	}
}

func TestParseFileStrategy(t *testing.T) {
	for _, value := range []string{"auto", "mmap", "read", "", " MMAP "} {
		strategy, err := ParseFileStrategy(value)
		if err != nil {
			t.Fatalf("ParseFileStrategy(%q): %v", value, err)
		}
		if want := strings.ToLower(strings.TrimSpace(value)); want != "" && strategy.String() != want {
			t.Errorf("ParseFileStrategy(%q) = %s", value, strategy)
		}
	}
	if _, err := ParseFileStrategy("sendfile"); err == nil {
		t.Error("ParseFileStrategy(sendfile) should fail")
	}
}

func TestUpdateViewTruncatedMapping(t *testing.T) {
	for _, policy := range append(testPolicies(), Fixed(3)) {
		t.Run(policy.String(), func(t *testing.T) {
			path := testutil.WriteFile(t, "shrinking", testutil.PatternInput(1<<20))
			mapping, err := mmapfile.Open(path)
			if errors.Is(err, errors.ErrUnsupported) {
				t.Skip("memory maps are not supported on this platform")
			}
			if err != nil {
				t.Fatalf("mmapfile.Open: %v", err)
			}
			defer mapping.Close()

			// Pages past the new end of file now fault when read.
			if err := os.Truncate(path, 100); err != nil {
				t.Fatalf("Truncate: %v", err)
			}

			hasher := newHasher(t, DefaultMode(), policy)
			hasher.Update([]byte("prefix"))
			before := hasher.Digest()

			err = hasher.UpdateView(mapping)
			if !errors.Is(err, ErrIO) {
				t.Fatalf("UpdateView of a truncated mapping = %v, want ErrIO", err)
			}
			if got := hasher.Digest(); got != before {
				t.Errorf("Digest changed after a failed update: %x, want %x", got, before)
			}

			hasher.Update([]byte("suffix"))
			if got, want := hasher.Digest(), Sum256([]byte("prefixsuffix")); got != want {
				t.Errorf("Digest after recovery = %x, want %x", got, want)
			}
		})
	}
}

func TestUpdateReaderIsAtomic(t *testing.T) {
	hasher := newHasher(t, DefaultMode(), Fixed(2))
	content := testutil.PatternInput(3 * readPiece)

	reader, writer := io.Pipe()
	absorbed := make(chan error, 1)
	go func() {
		_, err := hasher.UpdateReader(reader)
		absorbed <- err
	}()

	// The first piece is consumed only once UpdateReader holds the lock.
	if _, err := writer.Write(content[:readPiece]); err != nil {
		t.Fatalf("Write: %v", err)
	}

	digests := make(chan [DigestSize]byte, 1)
	go func() { digests <- hasher.Digest() }()

	select {
	case digest := <-digests:
		t.Fatalf("Digest returned %x while a stream was being absorbed", digest)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := writer.Write(content[readPiece:]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	writer.Close()

	if err := testutil.Receive(t, absorbed, 10*time.Second, "UpdateReader"); err != nil {
		t.Fatalf("UpdateReader: %v", err)
	}
	if got, want := testutil.Receive(t, digests, 10*time.Second, "Digest"), Sum256(content); got != want {
		t.Errorf("Digest = %x, want the digest of the whole stream %x", got, want)
	}
}
