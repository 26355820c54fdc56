package runtime

import (
	"context"
	"errors"
	"testing"

	"xccproxy/budget"
	"xccproxy/continuation"
	"xccproxy/dispatch"
	"xccproxy/identity"
	"xccproxy/outcome"
	"xccproxy/rpc"
	"xccproxy/rpc/compress/lz4"
	"xccproxy/rpc/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type greetingReply struct {
	Greeting string `json:"greeting"`
}

func TestRPCExecutor_Execute(t *testing.T) {
	c := lz4.Compressor{}
	testCases := []struct {
		name string

		mock func(ctrl *gomock.Controller) rpc.Proxy
		want outcome.Raw
	}{
		{
			name: "ok",
			mock: func(ctrl *gomock.Controller) rpc.Proxy {
				p := rpc.NewMockProxy(ctrl)
				p.EXPECT().Invoke(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, req *message.Request) (*message.Response, error) {
						assert.Equal(t, "greeter", req.ServiceName)
						assert.Equal(t, "GetGreeting", req.MethodName)
						assert.Equal(t, (9 * budget.TGas).String(), req.Meta[budget.MetaBudget])
						assert.Equal(t, "0", req.Meta[budget.MetaDeposit])
						assert.Equal(t, "alice.test", req.Meta[identity.MetaSigner])
						assert.Equal(t, "proxy.test", req.Meta[identity.MetaPredecessor])
						data, err := c.Compress([]byte(`{"greeting":"hello"}`))
						require.NoError(t, err)
						return &message.Response{Data: data}, nil
					})
				return p
			},
			want: outcome.RawSuccess(&greetingReply{Greeting: "hello"}),
		},
		{
			name: "transport",
			mock: func(ctrl *gomock.Controller) rpc.Proxy {
				p := rpc.NewMockProxy(ctrl)
				p.EXPECT().Invoke(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("connection refused"))
				return p
			},
			want: outcome.RawFailure(outcome.ReasonTransport, "connection refused"),
		},
		{
			name: "remote fault",
			mock: func(ctrl *gomock.Controller) rpc.Proxy {
				p := rpc.NewMockProxy(ctrl)
				p.EXPECT().Invoke(gomock.Any(), gomock.Any()).
					Return(&message.Response{Status: message.StatusRemoteFault, Error: []byte("boom")}, nil)
				return p
			},
			want: outcome.RawFailure(outcome.ReasonRemoteFault, "boom"),
		},
		{
			name: "budget exceeded",
			mock: func(ctrl *gomock.Controller) rpc.Proxy {
				p := rpc.NewMockProxy(ctrl)
				p.EXPECT().Invoke(gomock.Any(), gomock.Any()).
					Return(&message.Response{Status: message.StatusBudgetExceeded, Error: []byte("out of gas")}, nil)
				return p
			},
			want: outcome.RawFailure(outcome.ReasonBudgetExceeded, "out of gas"),
		},
		{
			name: "rejected",
			mock: func(ctrl *gomock.Controller) rpc.Proxy {
				p := rpc.NewMockProxy(ctrl)
				p.EXPECT().Invoke(gomock.Any(), gomock.Any()).
					Return(&message.Response{Status: message.StatusRejected, Error: []byte("no such method")}, nil)
				return p
			},
			want: outcome.RawFailure(outcome.ReasonRejected, "no such method"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			p := tc.mock(ctrl)
			e := NewRPCExecutor(func(address string) (rpc.Proxy, error) {
				assert.Equal(t, "hello.test", address)
				return p, nil
			}, ExecutorWithCompressor(c))
			inv := newInvocation("id", "GetGreeting")
			inv.Budget = 9 * budget.TGas
			inv.Reply = &greetingReply{}
			assert.Equal(t, tc.want, e.Execute(context.Background(), inv))
		})
	}
}

func TestRPCExecutor_Decode(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := rpc.NewMockProxy(ctrl)
	p.EXPECT().Invoke(gomock.Any(), gomock.Any()).
		Return(&message.Response{Data: []byte("not json")}, nil)
	e := NewRPCExecutor(func(address string) (rpc.Proxy, error) {
		return p, nil
	})
	inv := newInvocation("id", "GetGreeting")
	inv.Reply = &greetingReply{}
	raw := e.Execute(context.Background(), inv)
	require.NotNil(t, raw.Failure)
	assert.Equal(t, outcome.ReasonDecode, raw.Failure.Reason)
}

func TestRPCExecutor_DialOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := rpc.NewMockProxy(ctrl)
	p.EXPECT().Invoke(gomock.Any(), gomock.Any()).Times(2).
		Return(&message.Response{}, nil)
	dials := 0
	e := NewRPCExecutor(func(address string) (rpc.Proxy, error) {
		dials++
		return p, nil
	})
	for i := 0; i < 2; i++ {
		e.Execute(context.Background(), dispatch.Invocation{Target: "hello.test", Then: continuation.Target{Account: self}})
	}
	assert.Equal(t, 1, dials)
	require.NoError(t, e.Close())
}

func TestRPCExecutor_DialFailed(t *testing.T) {
	e := NewRPCExecutor(func(address string) (rpc.Proxy, error) {
		return nil, errors.New("bad address")
	})
	raw := e.Execute(context.Background(), newInvocation("id", "GetGreeting"))
	assert.Equal(t, outcome.RawFailure(outcome.ReasonTransport, "bad address"), raw)
}

func TestRPCExecutor_UnframeableMeta(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := rpc.NewMockProxy(ctrl)
	e := NewRPCExecutor(func(address string) (rpc.Proxy, error) {
		return p, nil
	})
	inv := newInvocation("id", "GetGreeting")
	inv.Signer = "alice\nbob"
	raw := e.Execute(context.Background(), inv)
	require.NotNil(t, raw.Failure)
	assert.Equal(t, outcome.ReasonDispatch, raw.Failure.Reason)
}
