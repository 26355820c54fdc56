package rpc

import (
	"context"

	"xccproxy/rpc/message"
)

//go:generate mockgen -source=types.go -destination=types_mock.go -package=rpc

// Proxy sends one request and waits for its response.
type Proxy interface {
	Invoke(ctx context.Context, req *message.Request) (*message.Response, error)
}

type Service interface {
	Name() string
}

// ProxyFunc adapts a function to Proxy.
type ProxyFunc func(ctx context.Context, req *message.Request) (*message.Response, error)

func (f ProxyFunc) Invoke(ctx context.Context, req *message.Request) (*message.Response, error) {
	return f(ctx, req)
}

// Middleware decorates the client side of a call.
type Middleware func(next Proxy) Proxy

// Chain wraps p so that the first middleware runs first.
func Chain(p Proxy, mdls ...Middleware) Proxy {
	for i := len(mdls) - 1; i >= 0; i-- {
		p = mdls[i](p)
	}
	return p
}

// Handler serves one decoded request on the server side.
type Handler func(ctx context.Context, req *message.Request) *message.Response

// HandlerMiddleware decorates the server side of a call.
type HandlerMiddleware func(next Handler) Handler
