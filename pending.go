package xccproxy

import (
	"context"
	"sync"

	"xccproxy/continuation"
)

// Pending is the handle of one suspended operation. It resolves exactly once,
// to the peer's value or to the operation's default.
type Pending[T any] struct {
	id    continuation.CallID
	done  chan struct{}
	once  sync.Once
	value T
}

func newPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

func (p *Pending[T]) resolve(v T) {
	p.once.Do(func() {
		p.value = v
		close(p.done)
	})
}

// ID is the call id of the continuation, empty if nothing was dispatched.
func (p *Pending[T]) ID() continuation.CallID {
	return p.id
}

// Done is closed once the value is available.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Await waits for the value. The error is only ever ctx.Err(): the operation
// itself cannot fail.
func (p *Pending[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, nil
	case <-ctx.Done():
		var t T
		return t, ctx.Err()
	}
}

func (p *Pending[T]) TryValue() (T, bool) {
	select {
	case <-p.done:
		return p.value, true
	default:
		var t T
		return t, false
	}
}
