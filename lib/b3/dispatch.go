// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package b3

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/b3/lib/workerpool"
)

// dispatcher schedules independent, indexed tasks. Implementations
// differ only in where tasks run; callers must not depend on the
// order in which tasks execute, only on each task writing its own
// result slot.
type dispatcher interface {
	// run executes task(0) through task(count-1) and returns after all
	// of them finished. With guard set, memory faults raised while a
	// task reads its input become ErrIO errors instead of crashing
	// the process.
	run(count int, task func(index int), guard bool) error

	// clone returns a dispatcher with the same policy that shares no
	// workers with the receiver.
	clone(logger *slog.Logger) (dispatcher, error)

	close() error
}

func newDispatcher(policy ThreadPolicy, logger *slog.Logger) (dispatcher, error) {
	switch policy.kind {
	case policyAuto:
		return autoDispatcher{}, nil
	case policyFixed:
		pool, err := workerpool.New(workerpool.Options{
			Workers: policy.workers,
			Name:    "b3",
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrThreadPoolInit, err)
		}
		return &fixedDispatcher{pool: pool}, nil
	default:
		return inlineDispatcher{}, nil
	}
}

// inlineDispatcher runs every task on the calling goroutine.
type inlineDispatcher struct{}

func (inlineDispatcher) run(count int, task func(int), guard bool) error {
	for index := range count {
		if err := runTask(task, index, guard); err != nil {
			return err
		}
	}
	return nil
}

func (inlineDispatcher) clone(*slog.Logger) (dispatcher, error) { return inlineDispatcher{}, nil }

func (inlineDispatcher) close() error { return nil }

// autoDispatcher starts a transient errgroup per call, limited to
// GOMAXPROCS goroutines at a time.
type autoDispatcher struct{}

func (autoDispatcher) run(count int, task func(int), guard bool) error {
	var group errgroup.Group
	group.SetLimit(runtime.GOMAXPROCS(0))
	for index := range count {
		group.Go(func() error { return runTask(task, index, guard) })
	}
	return group.Wait()
}

func (autoDispatcher) clone(*slog.Logger) (dispatcher, error) { return autoDispatcher{}, nil }

func (autoDispatcher) close() error { return nil }

// fixedDispatcher runs tasks on a pool owned by one Hasher. After the
// pool is closed, tasks run on the calling goroutine.
type fixedDispatcher struct {
	pool *workerpool.Pool
}

func (d *fixedDispatcher) run(count int, task func(int), guard bool) error {
	err := d.pool.Run(count, func(index int) error { return runTask(task, index, guard) })
	if errors.Is(err, workerpool.ErrClosed) {
		return inlineDispatcher{}.run(count, task, guard)
	}
	return err
}

func (d *fixedDispatcher) clone(logger *slog.Logger) (dispatcher, error) {
	return newDispatcher(Fixed(d.pool.Workers()), logger)
}

func (d *fixedDispatcher) close() error { return d.pool.Close() }

// runTask runs one task, converting a memory fault into an error when
// guard is set. Faults only occur when the task reads from a mapping
// whose backing file shrank or failed underneath it.
func runTask(task func(int), index int, guard bool) error {
	if !guard {
		task(index)
		return nil
	}
	return guarded(func() { task(index) })
}

// guarded runs fn with SetPanicOnFault enabled for the current
// goroutine and turns a fault into an ErrIO error. Any other panic
// propagates unchanged.
func guarded(fn func()) (err error) {
	previous := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(previous)
		if recovered := recover(); recovered != nil {
			fault, ok := recovered.(interface{ Addr() uintptr })
			if !ok {
				panic(recovered)
			}
			err = fmt.Errorf("%w: memory fault at address %#x while reading input", ErrIO, fault.Addr())
		}
	}()
	fn()
	return nil
}
