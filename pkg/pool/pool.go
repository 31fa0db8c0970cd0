// Package pool provides a fixed-size worker pool with a bounded intake
// queue. Extraction work is I/O-bound, so the pool exists to cap the
// number of concurrent yt-dlp invocations, not to spread CPU load.
package pool

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSaturated is returned when every worker is busy and the
	// queue is full. Callers should surface this as backpressure
	// rather than waiting.
	ErrSaturated = errors.New("worker queue is full")
	// ErrClosed is returned for submissions after Shutdown started.
	ErrClosed = errors.New("pool is shut down")
)

// Pool runs submitted tasks on a fixed set of workers.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New starts workers goroutines consuming from a queue of queueSize
// pending tasks. Both sizes are fixed for the life of the pool.
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	p := &Pool{tasks: make(chan func(), queueSize)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Future holds the pending result of a submitted task.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Wait blocks until the task finishes or ctx expires. The task itself
// keeps running after a ctx expiry; only the wait is abandoned.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit enqueues fn and returns a Future for its result. It never
// blocks: a full queue fails with ErrSaturated, a stopped pool with
// ErrClosed.
func Submit[T any](p *Pool, fn func() (T, error)) (*Future[T], error) {
	f := &Future[T]{done: make(chan struct{})}
	task := func() {
		f.val, f.err = fn()
		close(f.done)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	select {
	case p.tasks <- task:
		return f, nil
	default:
		return nil, ErrSaturated
	}
}

// Shutdown stops intake and waits for queued and running tasks to
// drain, or for ctx to expire, whichever comes first.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
