// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/b3/lib/b3"
	"github.com/bureau-foundation/b3/lib/binhash"
	"github.com/bureau-foundation/b3/lib/inputcodec"
)

// job hashes a list of inputs with one Hasher, resetting it between
// inputs so a Fixed pool is started once per invocation.
type job struct {
	hasher     *b3.Hasher
	length     uint64
	seek       uint64
	decompress inputcodec.Format
	raw        bool
	quiet      bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func (j *job) close() {
	if err := j.hasher.Close(); err != nil {
		j.logger.Warn("closing hasher", "error", err)
	}
}

// hashAll prints one checksum line per input, or the raw output of the
// single input with --raw. A failing input is reported and skipped.
func (j *job) hashAll(paths []string) int {
	status := exitOK
	for _, path := range paths {
		output, err := j.hashInput(path, j.length)
		if err != nil {
			fmt.Fprintf(j.stderr, "b3sum: %s: %v\n", path, err)
			status = exitFailure
			continue
		}
		if j.raw {
			if _, err := j.stdout.Write(output); err != nil {
				fmt.Fprintf(j.stderr, "b3sum: writing output: %v\n", err)
				return exitFailure
			}
			continue
		}
		fmt.Fprintln(j.stdout, binhash.FormatLine(output, path))
	}
	return status
}

// checkAll verifies every line of every checksum file. The digest
// length of each line sets how much output is compared.
func (j *job) checkAll(sources []string) int {
	failures := 0
	unreadable := 0
	for _, source := range sources {
		lines, err := j.readChecksums(source)
		if err != nil {
			fmt.Fprintf(j.stderr, "b3sum: %s: %v\n", source, err)
			unreadable++
			continue
		}
		for _, line := range lines {
			output, err := j.hashInput(line.Path, uint64(len(line.Digest)))
			switch {
			case err != nil:
				fmt.Fprintf(j.stderr, "b3sum: %s: %v\n", line.Path, err)
				fmt.Fprintf(j.stdout, "%s: FAILED\n", line.Path)
				failures++
			case !bytes.Equal(output, line.Digest):
				fmt.Fprintf(j.stdout, "%s: FAILED\n", line.Path)
				failures++
			case !j.quiet:
				fmt.Fprintf(j.stdout, "%s: OK\n", line.Path)
			}
		}
	}
	if failures > 0 {
		fmt.Fprintf(j.stderr, "b3sum: WARNING: %d computed checksum(s) did NOT match\n", failures)
	}
	if failures > 0 || unreadable > 0 {
		return exitFailure
	}
	return exitOK
}

func (j *job) readChecksums(source string) ([]binhash.Line, error) {
	if source == "-" {
		return binhash.ParseChecksums(j.stdin)
	}
	file, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return binhash.ParseChecksums(file)
}

// hashInput absorbs one input from scratch and returns length bytes of
// output at the configured seek offset.
func (j *job) hashInput(path string, length uint64) ([]byte, error) {
	j.hasher.Reset()
	start := time.Now()

	var size int64
	var err error
	switch {
	case path == "-":
		size, err = j.absorbStream(j.stdin, path)
	case j.decompress == inputcodec.None:
		var info os.FileInfo
		if info, err = os.Stat(path); err == nil {
			size = info.Size()
			err = j.hasher.UpdateFile(path)
		}
	default:
		var file *os.File
		if file, err = os.Open(path); err == nil {
			size, err = j.absorbStream(file, path)
			file.Close()
		}
	}
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	j.logger.Debug("hashed input",
		"path", path,
		"size", humanize.IBytes(uint64(size)),
		"elapsed", elapsed,
		"rate", rate(size, elapsed),
	)
	return j.hasher.Finalize(length, j.seek)
}

// absorbStream feeds r through the configured decompressor.
func (j *job) absorbStream(r io.Reader, path string) (int64, error) {
	reader, format, err := inputcodec.NewReader(r, j.decompress)
	if err != nil {
		return 0, err
	}
	defer reader.Close()
	if format != inputcodec.None {
		j.logger.Debug("decompressing input", "path", path, "format", format.String())
	}
	return j.hasher.UpdateReader(reader)
}

func rate(size int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "n/a"
	}
	return humanize.IBytes(uint64(float64(size)/elapsed.Seconds())) + "/s"
}
