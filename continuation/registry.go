// Package continuation keeps the handlers that resume suspended operations
// once their remote outcome arrives.
package continuation

import (
	"context"
	"sync"

	"xccproxy/identity"
	"xccproxy/internal/errs"
	"xccproxy/outcome"

	"github.com/google/uuid"
	"github.com/gotomicro/ekit/bean/option"
	"github.com/rs/zerolog"
)

// CallID identifies one pending call. It is random, so knowing one grants
// nothing beyond what the proxy handed out.
type CallID string

// Handler resumes one operation with the outcome of its invocation.
type Handler func(ctx context.Context, raw outcome.Raw)

// Target is the chained call a dispatched invocation resumes into: the
// continuation Name on the proxy Account for call ID.
type Target struct {
	Account identity.AccountID
	Name    string
	ID      CallID
}

type entry struct {
	name    string
	handler Handler
}

// Registry holds the pending continuations of one proxy. Only the proxy's own
// execution context may deliver to them.
type Registry struct {
	self   identity.AccountID
	logger zerolog.Logger

	mutex   sync.Mutex
	pending map[CallID]entry
}

func RegistryWithLogger(logger zerolog.Logger) option.Option[Registry] {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(self identity.AccountID, opts ...option.Option[Registry]) *Registry {
	r := &Registry{
		self:    self,
		logger:  zerolog.Nop(),
		pending: make(map[CallID]entry, 16),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Self() identity.AccountID {
	return r.self
}

// Register adds a pending continuation and returns the id to deliver to.
func (r *Registry) Register(name string, handler Handler) CallID {
	id := CallID(uuid.NewString())
	r.mutex.Lock()
	r.pending[id] = entry{name: name, handler: handler}
	r.mutex.Unlock()
	return id
}

// Discard drops a continuation whose invocation was never issued.
func (r *Registry) Discard(id CallID) {
	r.mutex.Lock()
	delete(r.pending, id)
	r.mutex.Unlock()
}

// Deliver resumes continuation id with raw. The caller identity in ctx must
// have the proxy itself as predecessor, otherwise nothing is resolved and
// ErrUnauthorizedContinuation is returned. A continuation runs at most once.
func (r *Registry) Deliver(ctx context.Context, id CallID, raw outcome.Raw) error {
	caller, ok := identity.FromContext(ctx)
	if !ok || caller.Predecessor != r.self {
		r.logger.Warn().
			Str("call_id", string(id)).
			Str("predecessor", string(caller.Predecessor)).
			Msg("continuation: rejected delivery from a foreign caller")
		return errs.ErrUnauthorizedContinuation
	}
	r.mutex.Lock()
	e, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mutex.Unlock()
	if !ok {
		return errs.ErrContinuationNotFound
	}
	r.logger.Debug().Str("call_id", string(id)).Str("continuation", e.name).Msg("continuation: resolving")
	e.handler(ctx, raw)
	return nil
}

// Pending counts the continuations still waiting for an outcome.
func (r *Registry) Pending() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.pending)
}
