package lifecycle

import (
	"context"
	"fmt"
	"sync"
)

// Once runs an action at most once and replays its outcome.
//
// The first caller of Do runs the action. Concurrent callers block until it
// settles and receive the same value and error. Later callers receive the
// stored outcome without running anything. Failures are remembered, not
// retried. A panic inside the action is recovered and stored as an error.
type Once[T any] struct {
	fn   func(ctx context.Context) (T, error)
	once sync.Once
	done chan struct{}

	value T
	err   error
}

// NewOnce wraps fn so that it runs at most once.
func NewOnce[T any](fn func(ctx context.Context) (T, error)) *Once[T] {
	return &Once[T]{
		fn:   fn,
		done: make(chan struct{}),
	}
}

// Do runs the action on first use and returns its (possibly replayed) outcome.
//
// The context of the first caller is the one handed to the action.
func (o *Once[T]) Do(ctx context.Context) (T, error) {
	o.once.Do(func() {
		defer close(o.done)
		o.value, o.err = o.run(ctx)
	})
	<-o.done
	return o.value, o.err
}

// Done reports whether the action has settled.
func (o *Once[T]) Done() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

func (o *Once[T]) run(ctx context.Context) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("guarded action panicked: %v", r)
		}
	}()
	return o.fn(ctx)
}

// OnceFunc returns a function that runs fn at most once and replays its error.
func OnceFunc(fn func(ctx context.Context) error) func(ctx context.Context) error {
	o := NewOnce(func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return func(ctx context.Context) error {
		_, err := o.Do(ctx)
		return err
	}
}
