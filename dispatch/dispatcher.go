// Package dispatch issues invocations against the peer and chains each of
// them to the continuation that resumes the calling operation.
package dispatch

import (
	"context"

	"xccproxy/budget"
	"xccproxy/continuation"
	"xccproxy/identity"
	"xccproxy/internal/errs"

	"github.com/gotomicro/ekit/bean/option"
)

//go:generate mockgen -source=dispatcher.go -destination=dispatcher_mock.go -package=dispatch Submitter

// Invocation is one outbound request to the peer.
type Invocation struct {
	ID      continuation.CallID
	Target  identity.AccountID
	Service string
	Method  string
	// encoded by the transport
	Args any
	// pointer the transport decodes a successful response into
	Reply   any
	Budget  budget.Gas
	Deposit uint64
	// originator of the chain of calls
	Signer identity.AccountID
	// chained call resuming the operation once this one resolved
	Then continuation.Target
}

// Submitter schedules an invocation and returns without waiting for it. The
// surrounding runtime implements it.
type Submitter interface {
	Submit(ctx context.Context, inv Invocation) error
}

// Call is what an operation asks the dispatcher to issue.
type Call struct {
	Target       identity.AccountID
	Service      string
	Method       string
	Args         any
	Reply        any
	Continuation string
	Handler      continuation.Handler
}

// PendingInvocation is the receipt of a dispatched call.
type PendingInvocation struct {
	ID         continuation.CallID
	Invocation Invocation
}

type Dispatcher struct {
	registry  *continuation.Registry
	submitter Submitter
	ceiling   budget.Gas
}

// DispatcherWithCeiling -> the budget attached to every invocation
func DispatcherWithCeiling(g budget.Gas) option.Option[Dispatcher] {
	return func(d *Dispatcher) {
		d.ceiling = g
	}
}

func NewDispatcher(registry *continuation.Registry, submitter Submitter,
	opts ...option.Option[Dispatcher]) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		submitter: submitter,
		ceiling:   budget.DefaultCeiling,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch registers the continuation of call, then submits exactly one
// invocation carrying the fixed budget and no deposit. It returns as soon as
// the invocation is scheduled; the continuation runs when the outcome arrives.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (*PendingInvocation, error) {
	if call.Target.Empty() {
		return nil, errs.ErrEmptyPeer
	}
	if d.ceiling == 0 {
		return nil, errs.ErrInvalidBudget
	}
	self := d.registry.Self()
	signer := self
	if caller, ok := identity.FromContext(ctx); ok && !caller.Signer.Empty() {
		signer = caller.Signer
	}
	id := d.registry.Register(call.Continuation, call.Handler)
	inv := Invocation{
		ID:      id,
		Target:  call.Target,
		Service: call.Service,
		Method:  call.Method,
		Args:    call.Args,
		Reply:   call.Reply,
		Budget:  d.ceiling,
		Deposit: 0,
		Signer:  signer,
		Then: continuation.Target{
			Account: self,
			Name:    call.Continuation,
			ID:      id,
		},
	}
	if err := d.submitter.Submit(ctx, inv); err != nil {
		d.registry.Discard(id)
		return nil, err
	}
	return &PendingInvocation{ID: id, Invocation: inv}, nil
}
