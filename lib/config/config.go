// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/b3/lib/b3"
	"github.com/bureau-foundation/b3/lib/inputcodec"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "B3_CONFIG"

// Config holds the defaults b3sum applies before parsing flags.
type Config struct {
	// Threads is "auto" or a positive worker count. 1 hashes on the
	// calling goroutine.
	Threads string `yaml:"threads"`

	// Length is the number of output bytes per digest.
	Length uint64 `yaml:"length"`

	// KeyFile is the default key for keyed hashing: a file holding
	// exactly 32 raw bytes.
	KeyFile string `yaml:"key_file"`

	// FileStrategy is auto, mmap or read.
	FileStrategy string `yaml:"file_strategy"`

	// MmapThreshold is the smallest file the auto strategy maps.
	MmapThreshold int64 `yaml:"mmap_threshold"`

	// Decompress is none, auto, zstd or lz4.
	Decompress string `yaml:"decompress"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is named.
func Default() *Config {
	return &Config{
		Threads:       "1",
		Length:        b3.DigestSize,
		FileStrategy:  b3.FileStrategyAuto.String(),
		MmapThreshold: b3.DefaultMmapThreshold,
		Decompress:    inputcodec.None.String(),
		LogLevel:      "warn",
	}
}

// Load loads the file named by B3_CONFIG. It fails if the variable is
// unset: callers decide whether an absent configuration is an error.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of a config file, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads path over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.KeyFile = expandVars(cfg.KeyFile, map[string]string{"HOME": os.Getenv("HOME")})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}, preferring vars over
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := b3.ParseThreads(c.Threads); err != nil {
		errs = append(errs, fmt.Errorf("threads: %w", err))
	}
	if c.Length == 0 {
		errs = append(errs, fmt.Errorf("length must be positive"))
	}
	if _, err := b3.ParseFileStrategy(c.FileStrategy); err != nil {
		errs = append(errs, fmt.Errorf("file_strategy: %w", err))
	}
	if c.MmapThreshold < 0 {
		errs = append(errs, fmt.Errorf("mmap_threshold must not be negative, got %d", c.MmapThreshold))
	}
	if _, err := inputcodec.ParseFormat(c.Decompress); err != nil {
		errs = append(errs, fmt.Errorf("decompress: %w", err))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

// HashOptions converts the hashing fields into b3.Options.
func (c *Config) HashOptions() (b3.Options, error) {
	threads, err := b3.ParseThreads(c.Threads)
	if err != nil {
		return b3.Options{}, err
	}
	strategy, err := b3.ParseFileStrategy(c.FileStrategy)
	if err != nil {
		return b3.Options{}, err
	}
	return b3.Options{
		Threads:       threads,
		FileStrategy:  strategy,
		MmapThreshold: c.MmapThreshold,
	}, nil
}
