// Package runner bounds concurrent pipeline runs with a semaphore so batch
// workloads (evaluation suites, bulk re-answering) do not overwhelm the
// completion provider.
package runner

import (
	"context"
	"sync"
)

// Pool limits how many tasks run at once.
type Pool struct {
	semaphore chan struct{}
}

// New creates a pool. A non-positive maxConcurrency defaults to 4.
func New(maxConcurrency int) *Pool {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Pool{semaphore: make(chan struct{}, maxConcurrency)}
}

// Do runs fn once a slot is free. It returns the context error when the
// caller is cancelled before a slot opens.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	select {
	case p.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.semaphore }()
	fn()
	return nil
}

// ForEach runs fn for every index in [0, n) with bounded concurrency and
// waits for all of them. Results keyed by index stay ordered on the caller
// side. Cancellation stops dispatching new tasks; running ones finish.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(i int)) error {
	var wg sync.WaitGroup
	var dispatchErr error
	for i := 0; i < n; i++ {
		select {
		case p.semaphore <- struct{}{}:
		case <-ctx.Done():
			dispatchErr = ctx.Err()
		}
		if dispatchErr != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-p.semaphore }()
			fn(i)
		}(i)
	}
	wg.Wait()
	return dispatchErr
}
