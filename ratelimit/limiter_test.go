package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"xccproxy/peer"
	"xccproxy/rpc"
	"xccproxy/rpc/message"

	"github.com/go-redis/redis/v9"
	"github.com/stretchr/testify/assert"
)

func okHandler(cnt *int) rpc.Handler {
	return func(ctx context.Context, req *message.Request) *message.Response {
		*cnt++
		return &message.Response{MessageId: req.MessageId}
	}
}

func TestLimiters(t *testing.T) {
	testCases := []struct {
		name string

		limiter    Limiter
		calls      int
		wantServed int
	}{
		{
			name:       "fixed window",
			limiter:    NewFixWindowLimiter(time.Minute, 2),
			calls:      5,
			wantServed: 2,
		},
		{
			name:       "slide window",
			limiter:    NewSlideWindowLimiter(3, time.Minute),
			calls:      5,
			wantServed: 3,
		},
		{
			name:       "mark limited",
			limiter:    NewSlideWindowLimiter(1, time.Minute).OnReject(MarkLimited),
			calls:      3,
			wantServed: 3,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			served := 0
			h := tc.limiter.Build()(okHandler(&served))
			rejected := 0
			for i := 0; i < tc.calls; i++ {
				resp := h(context.Background(), &message.Request{ServiceName: peer.ServiceName, MethodName: peer.MethodGetGreeting})
				if resp.Status == message.StatusRejected {
					rejected++
				}
			}
			assert.Equal(t, tc.wantServed, served)
			assert.Equal(t, tc.calls-tc.wantServed, rejected)
		})
	}
}

func TestFixWindowLimiter_NewWindow(t *testing.T) {
	served := 0
	h := NewFixWindowLimiter(20*time.Millisecond, 1).Build()(okHandler(&served))
	req := &message.Request{}
	assert.Equal(t, message.StatusOK, h(context.Background(), req).Status)
	assert.Equal(t, message.StatusRejected, h(context.Background(), req).Status)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, message.StatusOK, h(context.Background(), req).Status)
	assert.Equal(t, 2, served)
}

func TestMarkLimited(t *testing.T) {
	var limited []bool
	h := NewFixWindowLimiter(time.Minute, 1).OnReject(MarkLimited).Build()(
		func(ctx context.Context, req *message.Request) *message.Response {
			limited = append(limited, Limited(ctx))
			return &message.Response{}
		})
	h(context.Background(), &message.Request{})
	h(context.Background(), &message.Request{})
	assert.Equal(t, []bool{false, true}, limited)
}

func TestMethodLimiter(t *testing.T) {
	served := 0
	h := NewMethodLimiter(peer.ServiceName, peer.MethodSetGreeting,
		NewFixWindowLimiter(time.Minute, 1)).Build()(okHandler(&served))
	set := &message.Request{ServiceName: peer.ServiceName, MethodName: peer.MethodSetGreeting}
	get := &message.Request{ServiceName: peer.ServiceName, MethodName: peer.MethodGetGreeting}
	assert.Equal(t, message.StatusOK, h(context.Background(), set).Status)
	assert.Equal(t, message.StatusRejected, h(context.Background(), set).Status)
	for i := 0; i < 3; i++ {
		assert.Equal(t, message.StatusOK, h(context.Background(), get).Status)
	}
	assert.Equal(t, 4, served)
}

type fakeEval struct {
	redis.Cmdable
	result *redis.Cmd
}

func (f *fakeEval) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.result
}

func TestRedisSlideWindowLimiter(t *testing.T) {
	testCases := []struct {
		name string

		result     *redis.Cmd
		wantStatus message.Status
	}{
		{
			name:       "allowed",
			result:     redis.NewCmdResult(int64(0), nil),
			wantStatus: message.StatusOK,
		},
		{
			name:       "limited",
			result:     redis.NewCmdResult(int64(1), nil),
			wantStatus: message.StatusRejected,
		},
		{
			name:       "redis down",
			result:     redis.NewCmdResult(nil, errors.New("connection refused")),
			wantStatus: message.StatusOK,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			served := 0
			l := NewRedisSlideWindowLimiter(&fakeEval{result: tc.result}, "greeter", 1, time.Second)
			resp := l.Build()(okHandler(&served))(context.Background(), &message.Request{})
			assert.Equal(t, tc.wantStatus, resp.Status)
		})
	}
}
