package wallet

import (
	"context"
	"sync"
)

// future turns a pair of callbacks into a single awaited result. Only the
// first resolution counts.
type future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *future[T] {
	return &future[T]{done: make(chan struct{})}
}

func (f *future[T]) resolve(value T, err error) bool {
	first := false
	f.once.Do(func() {
		f.value = value
		f.err = err
		first = true
		close(f.done)
	})
	return first
}

func (f *future[T]) wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
