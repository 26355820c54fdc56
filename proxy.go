// Package xccproxy forwards greeting operations to a remote peer and turns the
// peer's asynchronous answer into a value the caller can always consume.
package xccproxy

import (
	"context"
	"io"

	"xccproxy/config"
	"xccproxy/continuation"
	"xccproxy/dispatch"
	"xccproxy/identity"
	"xccproxy/outcome"
	"xccproxy/rpc"
	"xccproxy/runtime"
	"xccproxy/state"

	"github.com/gotomicro/ekit/bean/option"
	"github.com/rs/zerolog"
)

type Proxy struct {
	cfg        config.ProxyConfig
	registry   *continuation.Registry
	dispatcher *dispatch.Dispatcher
	runtime    *runtime.Runtime
	executor   runtime.Executor
	logger     zerolog.Logger

	inFlight     int64
	clientOpts   []option.Option[rpc.Client]
	executorOpts []option.Option[runtime.RPCExecutor]
}

func ProxyWithLogger(logger zerolog.Logger) option.Option[Proxy] {
	return func(p *Proxy) {
		p.logger = logger
	}
}

// ProxyWithExecutor replaces the rpc transport to the peer.
func ProxyWithExecutor(e runtime.Executor) option.Option[Proxy] {
	return func(p *Proxy) {
		p.executor = e
	}
}

// ProxyWithClientOptions configures the rpc clients dialed to the peer.
func ProxyWithClientOptions(opts ...option.Option[rpc.Client]) option.Option[Proxy] {
	return func(p *Proxy) {
		p.clientOpts = append(p.clientOpts, opts...)
	}
}

// ProxyWithExecutorOptions configures the codec of the outgoing invocations.
func ProxyWithExecutorOptions(opts ...option.Option[runtime.RPCExecutor]) option.Option[Proxy] {
	return func(p *Proxy) {
		p.executorOpts = append(p.executorOpts, opts...)
	}
}

func ProxyWithInFlight(n int64) option.Option[Proxy] {
	return func(p *Proxy) {
		p.inFlight = n
	}
}

func New(cfg config.ProxyConfig, opts ...option.Option[Proxy]) (*Proxy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Proxy{
		cfg:      cfg,
		logger:   zerolog.Nop(),
		inFlight: 64,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.executor == nil {
		p.executor = runtime.NewRPCExecutor(runtime.RPCDialer(p.clientOpts...), p.executorOpts...)
	}
	p.registry = continuation.NewRegistry(cfg.Account, continuation.RegistryWithLogger(p.logger))
	p.runtime = runtime.NewRuntime(p.executor, p.registry,
		runtime.RuntimeWithInFlight(p.inFlight),
		runtime.RuntimeWithLogger(p.logger))
	p.dispatcher = dispatch.NewDispatcher(p.registry, p.runtime)
	return p, nil
}

// Open builds the proxy of account from its stored configuration.
func Open(ctx context.Context, store state.Store, account identity.AccountID,
	opts ...option.Option[Proxy]) (*Proxy, error) {
	cfg, err := config.Load(ctx, store, account)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

func (p *Proxy) Config() config.ProxyConfig {
	return p.cfg
}

// Deliver resumes the operation waiting on id. Only the proxy's own execution
// identity is accepted, see continuation.Registry.Deliver.
func (p *Proxy) Deliver(ctx context.Context, id continuation.CallID, raw outcome.Raw) error {
	return p.registry.Deliver(ctx, id, raw)
}

// Close waits for the invocations in flight, then releases the transport.
func (p *Proxy) Close() error {
	if err := p.runtime.Close(); err != nil {
		return err
	}
	if c, ok := p.executor.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// forward dispatches one invocation of method whose reply decodes into reply.
// The returned handle resolves through n: the extracted value on success, the
// default otherwise.
func forward[R any, T any](ctx context.Context, p *Proxy, method, cont string, args any,
	reply R, extract func(R) T, n outcome.Normalizer[T]) *Pending[T] {
	pending := newPending[T]()
	inv, err := p.dispatcher.Dispatch(ctx, dispatch.Call{
		Target:       p.cfg.PeerAddress,
		Service:      peerService,
		Method:       method,
		Args:         args,
		Reply:        reply,
		Continuation: cont,
		Handler: func(ctx context.Context, raw outcome.Raw) {
			pending.resolve(n.Normalize(p.logger, outcome.Resolve(raw, extract)))
		},
	})
	if err != nil {
		pending.resolve(n.Normalize(p.logger, outcome.Fail[T](outcome.ReasonDispatch, err.Error())))
		return pending
	}
	pending.id = inv.ID
	return pending
}
