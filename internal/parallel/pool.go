package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Result is the outcome of one submitted job.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Pool runs submitted jobs with bounded concurrency.
type Pool struct {
	maxWorkers int
	semaphore  chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	results    []Result
	errors     []error
	failFast   bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewPool creates a pool. A maxWorkers of 0 or less means no limit.
// With failFast the pool context is cancelled on the first error, so jobs
// still waiting for a slot are dropped.
func NewPool(ctx context.Context, maxWorkers int, failFast bool) *Pool {
	ctx, cancel := context.WithCancel(ctx)
	if maxWorkers < 0 {
		maxWorkers = 0
	}
	return &Pool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		failFast:   failFast,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Submit starts fn once a worker slot is free. Jobs submitted after the
// pool context is done never run and leave no result.
func (p *Pool) Submit(name string, fn func(ctx context.Context) error) {
	if p.ctx.Err() != nil {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.maxWorkers > 0 {
			select {
			case p.semaphore <- struct{}{}:
				defer func() { <-p.semaphore }()
			case <-p.ctx.Done():
				return
			}
		}
		if p.ctx.Err() != nil {
			return
		}

		start := time.Now()
		err := fn(p.ctx)
		result := Result{Name: name, Err: err, Duration: time.Since(start)}

		p.mu.Lock()
		defer p.mu.Unlock()
		p.results = append(p.results, result)
		if err != nil {
			p.errors = append(p.errors, fmt.Errorf("%s: %w", name, err))
			if p.failFast {
				p.cancel()
			}
		}
	}()
}

// Wait blocks until every started job has finished and returns their
// results in completion order, plus the failures.
func (p *Pool) Wait() ([]Result, []error) {
	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	results := make([]Result, len(p.results))
	copy(results, p.results)
	errs := make([]error, len(p.errors))
	copy(errs, p.errors)
	return results, errs
}
