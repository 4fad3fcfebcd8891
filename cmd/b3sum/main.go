// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/b3/lib/b3"
	"github.com/bureau-foundation/b3/lib/config"
	"github.com/bureau-foundation/b3/lib/inputcodec"
	"github.com/bureau-foundation/b3/lib/secret"
	"github.com/bureau-foundation/b3/lib/version"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// flags holds the parsed command line before config defaults are
// applied.
type flags struct {
	length      uint64
	seek        uint64
	keyed       bool
	keyFile     string
	deriveKey   string
	threads     string
	noMmap      bool
	raw         bool
	check       bool
	quiet       bool
	decompress  string
	configPath  string
	verbose     bool
	showVersion bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var parsed flags
	flagSet := pflag.NewFlagSet("b3sum", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Uint64VarP(&parsed.length, "length", "l", b3.DigestSize, "number of output bytes per digest")
	flagSet.Uint64Var(&parsed.seek, "seek", 0, "starting offset in the output stream")
	flagSet.BoolVar(&parsed.keyed, "keyed", false, "keyed hash with a 32-byte raw key (from --key-file, key_file, or stdin)")
	flagSet.StringVar(&parsed.keyFile, "key-file", "", "file holding the 32-byte key for --keyed (\"-\" for stdin)")
	flagSet.StringVar(&parsed.deriveKey, "derive-key", "", "key derivation mode with this context string")
	flagSet.StringVarP(&parsed.threads, "threads", "t", "", "worker threads: a count, or \"auto\" (default 1)")
	flagSet.BoolVar(&parsed.noMmap, "no-mmap", false, "read files instead of memory-mapping them")
	flagSet.BoolVar(&parsed.raw, "raw", false, "write raw output bytes instead of a checksum line (single input only)")
	flagSet.BoolVarP(&parsed.check, "check", "c", false, "verify the checksums listed in the given files")
	flagSet.BoolVar(&parsed.quiet, "quiet", false, "with --check, print only failures")
	flagSet.StringVar(&parsed.decompress, "decompress", "", "hash decompressed content: none, auto, zstd or lz4")
	flagSet.StringVar(&parsed.configPath, "config", "", "config file (default: $"+config.EnvironmentVariable+")")
	flagSet.BoolVarP(&parsed.verbose, "verbose", "v", false, "log debug details to stderr")
	flagSet.BoolVar(&parsed.showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "b3sum: %v\n", err)
		return exitUsage
	}
	if parsed.showVersion {
		version.Print(stdout, "b3sum")
		return exitOK
	}

	cfg, err := loadConfig(parsed.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "b3sum: %v\n", err)
		return exitUsage
	}

	paths := flagSet.Args()
	if len(paths) == 0 {
		paths = []string{"-"}
	}

	job, err := newJob(flagSet, parsed, cfg, paths, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "b3sum: %v\n", err)
		return exitUsage
	}
	defer job.close()

	if parsed.check {
		return job.checkAll(paths)
	}
	return job.hashAll(paths)
}

// loadConfig loads the named file, then B3_CONFIG, then defaults.
func loadConfig(path string) (*config.Config, error) {
	switch {
	case path != "":
		return config.LoadFile(path)
	case os.Getenv(config.EnvironmentVariable) != "":
		return config.Load()
	default:
		return config.Default(), nil
	}
}

// newJob merges flags over config and builds the hasher shared by all
// inputs.
func newJob(flagSet *pflag.FlagSet, parsed flags, cfg *config.Config, paths []string,
	stdin io.Reader, stdout, stderr io.Writer) (*job, error) {

	if !flagSet.Changed("length") {
		parsed.length = cfg.Length
	}
	if parsed.length == 0 {
		return nil, errors.New("--length must be positive")
	}
	if parsed.raw && (len(paths) > 1 || parsed.check) {
		return nil, errors.New("--raw needs exactly one input and cannot be combined with --check")
	}
	if !flagSet.Changed("threads") {
		parsed.threads = cfg.Threads
	}
	if !flagSet.Changed("decompress") {
		parsed.decompress = cfg.Decompress
	}

	level := parseLevel(cfg.LogLevel)
	if parsed.verbose {
		level = slog.LevelDebug
	}
	logger := newLogger(stderr, level)

	options, err := cfg.HashOptions()
	if err != nil {
		return nil, err
	}
	options.Logger = logger
	if options.Threads, err = b3.ParseThreads(parsed.threads); err != nil {
		return nil, err
	}
	if parsed.noMmap {
		options.FileStrategy = b3.FileStrategyRead
	}
	format, err := inputcodec.ParseFormat(parsed.decompress)
	if err != nil {
		return nil, err
	}

	mode, err := resolveMode(flagSet, parsed, cfg, paths, stdin)
	if err != nil {
		return nil, err
	}
	hasher, err := b3.New(mode, options)
	if err != nil {
		return nil, err
	}

	logger.Debug("b3sum starting",
		"mode", mode.String(),
		"threads", options.Threads.String(),
		"file_strategy", options.FileStrategy.String(),
		"decompress", format.String(),
		"length", parsed.length,
	)
	return &job{
		hasher:     hasher,
		length:     parsed.length,
		seek:       parsed.seek,
		decompress: format,
		raw:        parsed.raw,
		quiet:      parsed.quiet,
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		logger:     logger,
	}, nil
}

// resolveMode picks the hash mode. A key is read into locked memory
// and handed to the hasher through the buffer boundary.
func resolveMode(flagSet *pflag.FlagSet, parsed flags, cfg *config.Config, paths []string, stdin io.Reader) (b3.Mode, error) {
	var context *string
	if flagSet.Changed("derive-key") {
		context = &parsed.deriveKey
	}
	keyed := parsed.keyed || parsed.keyFile != ""
	if !keyed {
		return b3.ModeFromParams(nil, context)
	}
	if context != nil {
		return b3.Mode{}, b3.ErrConflictingMode
	}

	keyPath := parsed.keyFile
	if keyPath == "" {
		keyPath = cfg.KeyFile
	}
	var key *secret.Buffer
	var err error
	if keyPath == "" || keyPath == "-" {
		if slices.Contains(paths, "-") {
			return b3.Mode{}, errors.New("--keyed reads the key from stdin, so inputs must be named files (or use --key-file)")
		}
		key, err = secret.ReadKey(stdin, b3.KeySize)
	} else {
		key, err = secret.ReadKeyFromPath(keyPath, b3.KeySize)
	}
	if err != nil {
		return b3.Mode{}, fmt.Errorf("reading key: %w", err)
	}
	defer key.Close()
	return b3.KeyedModeFromView(key)
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `b3sum prints or checks BLAKE3 checksums.

Usage:
  b3sum [flags] [FILE]...
  b3sum --check [flags] [CHECKSUMFILE]...

With no FILE, or when FILE is -, read standard input.

Examples:
  # 64-byte digests of two files, using every core
  b3sum --length 64 --threads auto a.bin b.bin

  # Keyed hash with the key in a file
  b3sum --key-file key.bin message.txt

  # Verify a checksum list
  b3sum --check SUMS

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
