// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package parallel runs the CPU reference kernels across goroutines.
//
// The CPU paths mirror the GPU dispatch shape: a kernel is split into
// independent work items (one per workgroup block, row band or index range)
// and the pool runs them to completion before the next step starts. That
// barrier between ExecuteAll calls plays the role of the pass boundary in a
// compute command buffer.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines pulling work items from a shared
// queue.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queue   chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

var (
	defaultOnce sync.Once
	defaultPool *WorkerPool
)

// Default returns a process-wide pool sized to GOMAXPROCS.
// It is created lazily and never closed.
func Default() *WorkerPool {
	defaultOnce.Do(func() {
		defaultPool = NewWorkerPool(0)
	})
	return defaultPool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers: workers,
		queue:   make(chan func(), queueSize),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			p.drain()
			return
		case work := <-p.queue:
			work()
		}
	}
}

// drain runs whatever is still queued so pending ExecuteAll calls complete.
func (p *WorkerPool) drain() {
	for {
		select {
		case work := <-p.queue:
			work()
		default:
			return
		}
	}
}

// ExecuteAll runs every work item and returns once all of them have finished.
// After Close, the items run on the calling goroutine so no work is dropped.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() || len(work) == 1 {
		for _, fn := range work {
			fn()
		}
		return
	}

	var completion sync.WaitGroup
	completion.Add(len(work))
	for _, fn := range work {
		fn := fn
		wrapped := func() {
			defer completion.Done()
			fn()
		}
		select {
		case p.queue <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	completion.Wait()
}

// Range splits [0, n) into contiguous chunks of at least grain indices and
// calls fn(lo, hi) for each chunk in parallel. It returns when all chunks are
// done. A grain of 0 or less picks one chunk per worker.
func (p *WorkerPool) Range(n, grain int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	chunks := p.workers
	if grain > 0 {
		if c := (n + grain - 1) / grain; c < chunks {
			chunks = c
		}
	}
	if chunks <= 1 {
		fn(0, n)
		return
	}

	size := (n + chunks - 1) / chunks
	work := make([]func(), 0, chunks)
	for lo := 0; lo < n; lo += size {
		lo, hi := lo, min(lo+size, n)
		work = append(work, func() { fn(lo, hi) })
	}
	p.ExecuteAll(work)
}

// Close stops the workers. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still dispatches to its workers.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
