package packdb

import (
	"context"
	"sync"
)

type futureState int

const (
	futurePending futureState = iota
	futureRunning
	futureResolved
	futureCancelled
)

// Future is the deferred result of an operation submitted to an
// AsyncController. It resolves exactly once, either with the
// operation's result or with the error it returned.
type Future[T any] struct {
	mu    sync.Mutex
	state futureState
	done  chan struct{}
	val   T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Done returns a channel that is closed once the future has resolved
// or been cancelled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx is cancelled. A
// cancelled future yields ErrCancelled.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel drops the task if it is still queued. Once the worker has
// started the task it runs to completion and Cancel reports false.
func (f *Future[T]) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != futurePending {
		return false
	}
	f.state = futureCancelled
	f.err = ErrCancelled
	close(f.done)
	return true
}

// begin transitions the future to running. Reports false when the
// future was cancelled while queued, in which case the worker skips
// the task.
func (f *Future[T]) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != futurePending {
		return false
	}
	f.state = futureRunning
	return true
}

// resolve stores the task outcome and wakes all waiters.
func (f *Future[T]) resolve(val T, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != futureRunning {
		return
	}
	f.state = futureResolved
	f.val = val
	f.err = err
	close(f.done)
}
