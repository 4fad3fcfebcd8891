// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"fmt"
	"strconv"
	"strings"
)

type policyKind uint8

const (
	policySingle policyKind = iota
	policyAuto
	policyFixed
)

// ThreadPolicy decides where chunk compression runs. It is chosen
// once, when a Hasher is created, and never changes afterwards. The
// zero value is Single.
//
// The policy only affects scheduling: every policy produces the same
// output for the same input.
type ThreadPolicy struct {
	kind    policyKind
	workers int
}

// Single runs all work on the calling goroutine.
func Single() ThreadPolicy { return ThreadPolicy{kind: policySingle} }

// Auto fans large updates out over a transient set of goroutines
// sized to GOMAXPROCS, created and finished within each call.
func Auto() ThreadPolicy { return ThreadPolicy{kind: policyAuto} }

// Fixed runs work on a pool of exactly workers goroutines owned by
// the Hasher and reused across calls until Close. New fails with
// ErrInvalidThreadCount if workers is not positive.
func Fixed(workers int) ThreadPolicy { return ThreadPolicy{kind: policyFixed, workers: workers} }

// ThreadsFromCount maps a max-threads count onto a policy: 1 is
// Single, AutoThreads is Auto, and any larger count is Fixed.
func ThreadsFromCount(count int) (ThreadPolicy, error) {
	switch {
	case count == 1:
		return Single(), nil
	case count == AutoThreads:
		return Auto(), nil
	case count > 1:
		return Fixed(count), nil
	default:
		return ThreadPolicy{}, fmt.Errorf("%w: %d", ErrInvalidThreadCount, count)
	}
}

// ParseThreads parses "auto" or a decimal thread count.
func ParseThreads(value string) (ThreadPolicy, error) {
	trimmed := strings.TrimSpace(value)
	if strings.EqualFold(trimmed, "auto") {
		return Auto(), nil
	}
	count, err := strconv.Atoi(trimmed)
	if err != nil {
		return ThreadPolicy{}, fmt.Errorf("%w: %q", ErrInvalidThreadCount, value)
	}
	return ThreadsFromCount(count)
}

// Workers returns the pool size for Fixed policies, 1 for Single, and
// AutoThreads for Auto.
func (p ThreadPolicy) Workers() int {
	switch p.kind {
	case policyAuto:
		return AutoThreads
	case policyFixed:
		return p.workers
	default:
		return 1
	}
}

// String returns "single", "auto", or "fixed(n)".
func (p ThreadPolicy) String() string {
	switch p.kind {
	case policyAuto:
		return "auto"
	case policyFixed:
		return fmt.Sprintf("fixed(%d)", p.workers)
	default:
		return "single"
	}
}

func (p ThreadPolicy) validate() error {
	if p.kind == policyFixed && p.workers < 1 {
		return fmt.Errorf("%w: fixed pool of %d workers", ErrInvalidThreadCount, p.workers)
	}
	return nil
}
