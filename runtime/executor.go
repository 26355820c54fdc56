package runtime

import (
	"context"
	"strconv"
	"sync"

	"xccproxy/budget"
	"xccproxy/dispatch"
	"xccproxy/identity"
	"xccproxy/outcome"
	"xccproxy/rpc"
	"xccproxy/rpc/compress"
	"xccproxy/rpc/message"
	"xccproxy/rpc/serialize"
	"xccproxy/rpc/serialize/json"

	"github.com/gotomicro/ekit/bean/option"
)

var _ Executor = (*RPCExecutor)(nil)

// Dialer opens the transport to one peer address.
type Dialer func(address string) (rpc.Proxy, error)

// RPCDialer dials peers with rpc.NewClient.
func RPCDialer(opts ...option.Option[rpc.Client]) Dialer {
	return func(address string) (rpc.Proxy, error) {
		c, err := rpc.NewClient(address, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// RPCExecutor performs invocations over the rpc transport, one client per
// peer address.
type RPCExecutor struct {
	dial       Dialer
	serializer serialize.Serializer
	compressor compress.Compressor

	mutex   sync.Mutex
	proxies map[identity.AccountID]rpc.Proxy
}

func ExecutorWithSerializer(s serialize.Serializer) option.Option[RPCExecutor] {
	return func(e *RPCExecutor) {
		e.serializer = s
	}
}

func ExecutorWithCompressor(c compress.Compressor) option.Option[RPCExecutor] {
	return func(e *RPCExecutor) {
		e.compressor = c
	}
}

func NewRPCExecutor(dial Dialer, opts ...option.Option[RPCExecutor]) *RPCExecutor {
	e := &RPCExecutor{
		dial:       dial,
		serializer: json.Serializer{},
		compressor: compress.DoNothingCompressor{},
		proxies:    make(map[identity.AccountID]rpc.Proxy, 4),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *RPCExecutor) proxy(target identity.AccountID) (rpc.Proxy, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if p, ok := e.proxies[target]; ok {
		return p, nil
	}
	p, err := e.dial(string(target))
	if err != nil {
		return nil, err
	}
	e.proxies[target] = p
	return p, nil
}

// Execute sends inv and decodes a successful response into inv.Reply.
func (e *RPCExecutor) Execute(ctx context.Context, inv dispatch.Invocation) outcome.Raw {
	p, err := e.proxy(inv.Target)
	if err != nil {
		return outcome.RawFailure(outcome.ReasonTransport, err.Error())
	}
	data, err := e.serializer.Encode(inv.Args)
	if err != nil {
		return outcome.RawFailure(outcome.ReasonDispatch, err.Error())
	}
	data, err = e.compressor.Compress(data)
	if err != nil {
		return outcome.RawFailure(outcome.ReasonDispatch, err.Error())
	}
	req := &message.Request{
		Compresser:  e.compressor.Code(),
		Serializer:  e.serializer.Code(),
		ServiceName: inv.Service,
		MethodName:  inv.Method,
		Data:        data,
	}
	req.SetMeta(budget.MetaBudget, inv.Budget.String())
	req.SetMeta(budget.MetaDeposit, strconv.FormatUint(inv.Deposit, 10))
	req.SetMeta(identity.MetaSigner, string(inv.Signer))
	req.SetMeta(identity.MetaPredecessor, string(inv.Then.Account))
	if err = req.Validate(); err != nil {
		return outcome.RawFailure(outcome.ReasonDispatch, err.Error())
	}
	resp, err := p.Invoke(ctx, req)
	if err != nil {
		return outcome.RawFailure(outcome.ReasonTransport, err.Error())
	}
	switch resp.Status {
	case message.StatusOK:
	case message.StatusBudgetExceeded:
		return outcome.RawFailure(outcome.ReasonBudgetExceeded, string(resp.Error))
	case message.StatusRejected:
		return outcome.RawFailure(outcome.ReasonRejected, string(resp.Error))
	default:
		return outcome.RawFailure(outcome.ReasonRemoteFault, string(resp.Error))
	}
	if len(resp.Data) > 0 && inv.Reply != nil {
		body, err := e.compressor.Uncompress(resp.Data)
		if err != nil {
			return outcome.RawFailure(outcome.ReasonDecode, err.Error())
		}
		if err = e.serializer.Decode(body, inv.Reply); err != nil {
			return outcome.RawFailure(outcome.ReasonDecode, err.Error())
		}
	}
	return outcome.RawSuccess(inv.Reply)
}

// Close closes the clients that can be closed.
func (e *RPCExecutor) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	for target, p := range e.proxies {
		if c, ok := p.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		delete(e.proxies, target)
	}
	return nil
}
