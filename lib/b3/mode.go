// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"encoding/binary"

	"lukechampine.com/blake3/guts"

	"github.com/bureau-foundation/b3/lib/byteview"
)

type modeKind uint8

const (
	modeDefault modeKind = iota
	modeKeyed
	modeDeriveKey
)

func (k modeKind) String() string {
	switch k {
	case modeKeyed:
		return "keyed"
	case modeDeriveKey:
		return "derive_key"
	default:
		return "default"
	}
}

// Mode selects one of the three BLAKE3 functions. The zero value is
// the default, unkeyed hash.
type Mode struct {
	kind    modeKind
	key     []byte
	context string
}

// DefaultMode returns the unkeyed hash mode.
func DefaultMode() Mode { return Mode{} }

// KeyedMode returns the keyed hash mode. The key is copied; its
// length is validated by New, which requires exactly KeySize bytes.
func KeyedMode(key []byte) Mode {
	return Mode{kind: modeKeyed, key: append([]byte(nil), key...)}
}

// KeyedModeFromView is KeyedMode for a key behind a buffer handle,
// such as a secret.Buffer. The handle is only read during the call.
func KeyedModeFromView(handle any) (Mode, error) {
	borrow, err := byteview.Acquire(handle)
	if err != nil {
		return Mode{}, err
	}
	defer borrow.Release()
	return KeyedMode(borrow.Bytes()), nil
}

// DeriveKeyMode returns the key derivation mode for a context string.
// The context should be hardcoded, globally unique, and
// application-specific. An empty context is valid.
func DeriveKeyMode(context string) Mode {
	return Mode{kind: modeDeriveKey, context: context}
}

// ModeFromParams builds a Mode from independently supplied
// parameters: a nil key and nil context select the default mode.
// Supplying both fails with ErrConflictingMode.
func ModeFromParams(key []byte, context *string) (Mode, error) {
	switch {
	case key != nil && context != nil:
		return Mode{}, ErrConflictingMode
	case key != nil:
		return KeyedMode(key), nil
	case context != nil:
		return DeriveKeyMode(*context), nil
	default:
		return DefaultMode(), nil
	}
}

// String returns "default", "keyed", or "derive_key".
func (m Mode) String() string { return m.kind.String() }

// keyWords derives the initial chaining value and the domain flags
// applied to every compression in this mode.
func (m Mode) keyWords() ([8]uint32, uint32, error) {
	switch m.kind {
	case modeKeyed:
		if len(m.key) != KeySize {
			return [8]uint32{}, 0, &KeyLengthError{Expected: KeySize, Actual: len(m.key)}
		}
		return wordsFromKey(m.key), guts.FlagKeyedHash, nil

	case modeDeriveKey:
		// The context string is itself hashed, in its own domain, to
		// produce the key for the material that follows.
		var context treeState
		context.init(guts.IV, guts.FlagDeriveKeyContext)
		context.updateInline([]byte(m.context))
		contextKey := guts.ChainingValue(context.rootOutput())
		return contextKey, guts.FlagDeriveKeyMaterial, nil

	default:
		return guts.IV, 0, nil
	}
}

func wordsFromKey(key []byte) (words [8]uint32) {
	for index := range words {
		words[index] = binary.LittleEndian.Uint32(key[4*index:])
	}
	return words
}
