// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a fixed-size pool of long-lived worker
// goroutines that execute batches of indexed tasks.
//
// A Pool is created with an exact worker count and keeps those workers
// until Close. Each call to [Pool.Run] submits one batch and blocks
// until every task in the batch has finished, so from the caller's
// point of view a batch is synchronous even though its tasks run in
// parallel. Batches from different goroutines may interleave on the
// same workers.
package workerpool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// MaxWorkers is the largest pool that New will start. It matches the
// Go runtime's default ceiling on OS threads (see
// runtime/debug.SetMaxThreads): a pool whose workers could all block
// in system calls at once beyond that ceiling would crash the process
// instead of failing cleanly.
const MaxWorkers = 10000

var (
	// ErrClosed is returned by Run after Close has been called.
	ErrClosed = errors.New("workerpool: pool is closed")

	// ErrInvalidSize is returned by New for worker counts outside
	// [1, MaxWorkers].
	ErrInvalidSize = errors.New("workerpool: invalid worker count")
)

// Options configures a Pool.
type Options struct {
	// Workers is the exact number of worker goroutines. Required.
	Workers int

	// Name identifies the pool in log messages.
	Name string

	// Logger receives debug messages about the pool lifecycle. If
	// nil, nothing is logged.
	Logger *slog.Logger
}

// Pool runs batches of tasks on a fixed set of workers. A Pool must
// not be copied after creation.
type Pool struct {
	workers int
	name    string
	logger  *slog.Logger
	jobs    chan job

	// mu guards closed and orders submissions against Close: Run
	// holds the read lock while queueing jobs, Close takes the write
	// lock before closing the jobs channel.
	mu     sync.RWMutex
	closed bool

	exited sync.WaitGroup
}

type job struct {
	index int
	task  func(int) error
	batch *batch
}

// batch tracks completion of one Run call and keeps its first error.
type batch struct {
	pending sync.WaitGroup
	mu      sync.Mutex
	err     error
}

func (b *batch) finish(err error) {
	if err != nil {
		b.mu.Lock()
		if b.err == nil {
			b.err = err
		}
		b.mu.Unlock()
	}
	b.pending.Done()
}

// New starts a pool with exactly options.Workers workers.
func New(options Options) (*Pool, error) {
	if options.Workers < 1 || options.Workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidSize, options.Workers, MaxWorkers)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool := &Pool{
		workers: options.Workers,
		name:    options.Name,
		logger:  logger,
		jobs:    make(chan job, options.Workers),
	}
	pool.exited.Add(options.Workers)
	for range options.Workers {
		go pool.work()
	}

	logger.Debug("worker pool started", "pool", pool.name, "workers", pool.workers)
	return pool, nil
}

func (p *Pool) work() {
	defer p.exited.Done()
	for next := range p.jobs {
		next.batch.finish(next.task(next.index))
	}
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int { return p.workers }

// Run executes task(0) through task(count-1) on the pool's workers and
// waits for all of them. It returns the first error reported by any
// task; the remaining tasks still run to completion.
//
// Run must not be called from inside a task of the same pool: the
// calling worker would wait on tasks queued behind itself.
func (p *Pool) Run(count int, task func(index int) error) error {
	if count <= 0 {
		return nil
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	work := &batch{}
	work.pending.Add(count)
	for index := range count {
		p.jobs <- job{index: index, task: task, batch: work}
	}
	p.mu.RUnlock()

	work.pending.Wait()
	return work.err
}

// Close stops the workers after they finish all queued tasks. It is
// idempotent and safe to call concurrently with Run.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.exited.Wait()
	p.logger.Debug("worker pool stopped", "pool", p.name, "workers", p.workers)
	return nil
}
