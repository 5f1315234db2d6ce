package nico

import (
	"context"

	errors "github.com/Laisky/errors/v2"
)

// Future is the deferred result of a fetch. It settles exactly once,
// either with a value or with an error.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// settle must be called exactly once.
func (f *Future[T]) settle(val T, err error) {
	f.val, f.err = val, err
	close(f.done)
}

// Done is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles and returns its outcome.
// If ctx ends first, Wait gives up with ctx's error; the request keeps running
// and its outcome remains available to later calls.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, errors.Wrap(ctx.Err(), "wait for search result")
	}
}
