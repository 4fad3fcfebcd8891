// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads b3sum defaults from a single file.
//
// The file is named by the --config flag (via [LoadFile]) or the
// B3_CONFIG environment variable (via [Load]). There is no search path
// and no ~/.config discovery: a run either names its configuration or
// uses [Default]. Command-line flags override file values.
//
// Files are YAML. Files ending in .json or .jsonc are JSON with
// comments and trailing commas allowed; they are normalized with
// tidwall/jsonc and then decoded by the same YAML decoder. Unknown keys
// are errors.
//
// ${HOME} and ${VAR:-default} patterns are expanded in key_file.
package config
