// Package runtime is the execution environment around the proxy: it runs
// dispatched invocations off the caller's goroutine and, once an invocation
// resolves, performs the chained call into the proxy's continuation.
package runtime

import (
	"context"
	"errors"
	"sync"

	"xccproxy/continuation"
	"xccproxy/dispatch"
	"xccproxy/identity"
	"xccproxy/outcome"

	"github.com/gotomicro/ekit/bean/option"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

var ErrClosed = errors.New("runtime: closed")

var _ dispatch.Submitter = (*Runtime)(nil)

// Executor performs one invocation and reports how it ended. It never
// returns a Go error: every failure is part of the outcome.
type Executor interface {
	Execute(ctx context.Context, inv dispatch.Invocation) outcome.Raw
}

type ExecutorFunc func(ctx context.Context, inv dispatch.Invocation) outcome.Raw

func (f ExecutorFunc) Execute(ctx context.Context, inv dispatch.Invocation) outcome.Raw {
	return f(ctx, inv)
}

type Runtime struct {
	executor Executor
	registry *continuation.Registry
	inFlight int64
	sem      *semaphore.Weighted
	logger   zerolog.Logger

	mutex  sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// RuntimeWithInFlight -> how many invocations may execute at the same time
func RuntimeWithInFlight(n int64) option.Option[Runtime] {
	return func(r *Runtime) {
		r.inFlight = n
	}
}

func RuntimeWithLogger(logger zerolog.Logger) option.Option[Runtime] {
	return func(r *Runtime) {
		r.logger = logger
	}
}

func NewRuntime(executor Executor, registry *continuation.Registry, opts ...option.Option[Runtime]) *Runtime {
	r := &Runtime{
		executor: executor,
		registry: registry,
		inFlight: 64,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sem = semaphore.NewWeighted(r.inFlight)
	return r
}

// Submit schedules inv and returns at once. Cancelling ctx afterwards does
// not cancel the invocation.
func (r *Runtime) Submit(ctx context.Context, inv dispatch.Invocation) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.closed {
		return ErrClosed
	}
	r.wg.Add(1)
	go r.run(context.WithoutCancel(ctx), inv)
	return nil
}

func (r *Runtime) run(ctx context.Context, inv dispatch.Invocation) {
	defer r.wg.Done()
	// never fails, the context cannot be cancelled
	_ = r.sem.Acquire(ctx, 1)
	raw := r.executor.Execute(ctx, inv)
	r.sem.Release(1)

	// the chained call runs as the proxy itself, called by itself
	cbCtx := identity.With(ctx, identity.Context{
		Signer:      inv.Signer,
		Predecessor: inv.Then.Account,
		Current:     inv.Then.Account,
	})
	if err := r.registry.Deliver(cbCtx, inv.Then.ID, raw); err != nil {
		r.logger.Error().Err(err).
			Str("call_id", string(inv.Then.ID)).
			Str("continuation", inv.Then.Name).
			Msg("runtime: chained call failed")
	}
}

// Close stops accepting invocations and waits for the scheduled ones.
func (r *Runtime) Close() error {
	r.mutex.Lock()
	r.closed = true
	r.mutex.Unlock()
	r.wg.Wait()
	return nil
}
