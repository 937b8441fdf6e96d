package async

import (
	"context"
	"sync"
)

// Result holds the eventual outcome of a background operation. The zero value
// is not usable; construct with New or Run.
//
// A Result completes at most once. Late completions after the first are
// ignored, which makes it safe for uncoordinated callbacks to attempt
// completion without checking ownership first.
type Result[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// New returns an unresolved Result that a producer completes later via
// Complete or Fail.
func New[T any]() *Result[T] {
	return &Result[T]{done: make(chan struct{})}
}

// Run starts fn on its own goroutine and returns a Result that completes with
// fn's outcome. The goroutine is never cancelled; abandoning the Result is
// cheap and the late write lands on Result-owned state only.
func Run[T any](fn func() (T, error)) *Result[T] {
	r := New[T]()
	go func() {
		v, err := fn()
		r.complete(v, err)
	}()
	return r
}

// Complete resolves the Result with a value. No-op if already completed.
func (r *Result[T]) Complete(v T) { r.complete(v, nil) }

// Fail resolves the Result with an error. No-op if already completed.
func (r *Result[T]) Fail(err error) {
	var zero T
	r.complete(zero, err)
}

func (r *Result[T]) complete(v T, err error) {
	r.once.Do(func() {
		r.val = v
		r.err = err
		close(r.done)
	})
}

// Done returns a channel closed when the Result has completed.
func (r *Result[T]) Done() <-chan struct{} { return r.done }

// Wait blocks until the Result completes or ctx is cancelled.
func (r *Result[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryGet returns the value without blocking. The second return is false while
// the Result is unresolved or resolved with an error, so pollers can treat
// both as "not yet available".
func (r *Result[T]) TryGet() (T, bool) {
	select {
	case <-r.done:
		if r.err != nil {
			var zero T
			return zero, false
		}
		return r.val, true
	default:
		var zero T
		return zero, false
	}
}

// Err returns the completion error, or nil while unresolved.
func (r *Result[T]) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
