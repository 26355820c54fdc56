package ratelimit

import (
	"context"

	"xccproxy/rpc"
	"xccproxy/rpc/message"
)

var _ Limiter = (*MethodLimiter)(nil)

// MethodLimiter applies Limiter to one method only.
type MethodLimiter struct {
	Limiter
	Service string
	Method  string
}

func NewMethodLimiter(service, method string, limiter Limiter) *MethodLimiter {
	return &MethodLimiter{
		Limiter: limiter,
		Service: service,
		Method:  method,
	}
}

func (m *MethodLimiter) Build() rpc.HandlerMiddleware {
	limited := m.Limiter.Build()
	return func(next rpc.Handler) rpc.Handler {
		guarded := limited(next)
		return func(ctx context.Context, req *message.Request) *message.Response {
			if req.ServiceName == m.Service && req.MethodName == m.Method {
				return guarded(ctx, req)
			}
			return next(ctx, req)
		}
	}
}
