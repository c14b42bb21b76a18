package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultCloseTimeout bounds how long shutdown waits for the listener to stop.
const DefaultCloseTimeout = 2 * time.Second

const (
	defaultTimeoutMessage = "timeout"
	defaultTimeoutCode    = "TIMEOUT_ERROR"
)

// ErrTimeout matches every *TimeoutError via errors.Is.
var ErrTimeout = errors.New("timeout")

// TimeoutError is returned when a guarded action does not settle before its deadline.
type TimeoutError struct {
	Message string
	Code    string
	After   time.Duration
}

func (e *TimeoutError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrTimeout) true for any TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// TimeoutOption customizes the error produced by WithTimeout.
type TimeoutOption func(*TimeoutError)

// WithTimeoutMessage overrides the timeout error message.
func WithTimeoutMessage(msg string) TimeoutOption {
	return func(e *TimeoutError) {
		e.Message = msg
	}
}

// WithTimeoutCode overrides the timeout error code.
func WithTimeoutCode(code string) TimeoutOption {
	return func(e *TimeoutError) {
		e.Code = code
	}
}

type result[T any] struct {
	value T
	err   error
}

// WithTimeout runs fn and returns its outcome if it settles within d.
//
// fn receives a context that is cancelled when the deadline passes, so it can
// abandon its work; WithTimeout itself does not wait for it to do so. A result
// arriving after the deadline is discarded. If the parent context ends before
// either happens, its error is returned.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error), opts ...TimeoutOption) (T, error) {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		var r result[T]
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("guarded action panicked: %v", p)
			}
			ch <- r
		}()
		r.value, r.err = fn(tctx)
	}()

	var zero T
	select {
	case r := <-ch:
		return r.value, r.err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		terr := &TimeoutError{
			Message: defaultTimeoutMessage,
			Code:    defaultTimeoutCode,
			After:   d,
		}
		for _, opt := range opts {
			opt(terr)
		}
		return zero, terr
	}
}
