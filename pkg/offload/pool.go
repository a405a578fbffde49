// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package offload implements spec.md §5's optional background-worker
// execution of a pipeline run: "a run may be moved to a worker that holds
// its own AST instance for the duration. The worker boundary marshals only
// Source strings and Recipe values, never ASTs." Grounded on
// pkg/ingestion/embedding.go's embedFunctionsParallel worker pool: a
// buffered job channel, a fixed goroutine count draining it, atomic
// counters instead of a mutex for the depth/in-flight gauges, and a
// WaitGroup for shutdown.
package offload

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kraklabs/jsdeobfuscator/pkg/pipeline"
)

// Result is a completed (or failed) offloaded run.
type Result struct {
	Report *pipeline.RunReport
	Err    error
}

type job struct {
	ctx      context.Context
	source   []byte
	recipe   pipeline.Recipe
	lookup   pipeline.CodeLookup
	resultCh chan Result
}

// Pool is a bounded worker pool executing pipeline.Driver.Run calls in the
// background. Each worker owns the *astx.Node it builds for the duration
// of one run and never shares it with another goroutine, satisfying §5's
// "the AST is NOT shared across runs" and "no half-mutated AST reachable
// after cancellation" (a worker only observes ctx.Done() at the inter-step
// boundaries pipeline.Driver.Run already checks).
type Pool struct {
	driver  *pipeline.Driver
	jobs    chan job
	wg      sync.WaitGroup
	ready   atomic.Bool
	queued  int32
	running int32
}

// NewPool builds a pool with the given worker count and job queue depth.
func NewPool(driver *pipeline.Driver, workers, queueDepth int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = workers
	}
	return &Pool{driver: driver, jobs: make(chan job, queueDepth)}
}

// Start launches the worker goroutines. Per §5, "worker readiness is
// signaled before any work is dispatched": callers should only Submit
// after Start has returned (Ready() also reports the same fact for
// callers that start the pool concurrently with their own setup).
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	offMetrics.init(p)
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	p.ready.Store(true)
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.jobs {
		atomic.AddInt32(&p.queued, -1)
		atomic.AddInt32(&p.running, 1)
		report, err := p.driver.Run(j.ctx, j.source, j.recipe, j.lookup)
		atomic.AddInt32(&p.running, -1)
		j.resultCh <- Result{Report: report, Err: err}
		close(j.resultCh)
	}
}

// Ready reports whether the pool has workers running. Callers should fall
// back to running pipeline.Driver.Run in the foreground when !Ready(),
// per §5's "absent readiness, the driver runs in the foreground".
func (p *Pool) Ready() bool {
	return p.ready.Load()
}

// Submit enqueues a run and returns a channel receiving its single Result.
// Only Source and Recipe values cross the worker boundary (never an AST),
// per §5. Returns false without enqueuing if the pool isn't ready or the
// queue is full, so the caller can fall back to a foreground run.
func (p *Pool) Submit(ctx context.Context, source []byte, recipe pipeline.Recipe, lookup pipeline.CodeLookup) (<-chan Result, bool) {
	if !p.Ready() {
		return nil, false
	}
	resultCh := make(chan Result, 1)
	j := job{ctx: ctx, source: source, recipe: recipe, lookup: lookup, resultCh: resultCh}
	select {
	case p.jobs <- j:
		atomic.AddInt32(&p.queued, 1)
		return resultCh, true
	default:
		return nil, false
	}
}

// QueueDepth returns the number of jobs currently waiting for a worker.
func (p *Pool) QueueDepth() int { return int(atomic.LoadInt32(&p.queued)) }

// InFlight returns the number of jobs currently executing.
func (p *Pool) InFlight() int { return int(atomic.LoadInt32(&p.running)) }

// Close stops accepting new jobs and waits for in-flight workers to drain.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
