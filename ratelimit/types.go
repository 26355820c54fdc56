// Package ratelimit guards a peer server against callers issuing more
// invocations than it is willing to serve.
package ratelimit

import (
	"context"
	"fmt"

	"xccproxy/rpc"
	"xccproxy/rpc/message"
)

type Limiter interface {
	Build() rpc.HandlerMiddleware
}

type rejectStrategy func(ctx context.Context, req *message.Request, next rpc.Handler) *message.Response

var defaultRejection rejectStrategy = func(ctx context.Context, req *message.Request, next rpc.Handler) *message.Response {
	return &message.Response{
		Version:    req.Version,
		Compresser: req.Compresser,
		Serializer: req.Serializer,
		MessageId:  req.MessageId,
		Status:     message.StatusRejected,
		Error:      []byte(fmt.Sprintf("ratelimit: too many requests for %s.%s", req.ServiceName, req.MethodName)),
	}
}

type limitedKey struct{}

// MarkLimited lets the request through but marks its context, see Limited.
var MarkLimited rejectStrategy = func(ctx context.Context, req *message.Request, next rpc.Handler) *message.Response {
	return next(context.WithValue(ctx, limitedKey{}, true), req)
}

// Limited reports whether a limiter let this request through over its rate.
func Limited(ctx context.Context) bool {
	limited, _ := ctx.Value(limitedKey{}).(bool)
	return limited
}
