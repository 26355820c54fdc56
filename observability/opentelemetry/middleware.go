package opentelemetry

import (
	"context"

	"xccproxy/observability"
	"xccproxy/rpc"
	"xccproxy/rpc/message"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "xccproxy/observability/opentelemetry"

// MiddlewareBuilder traces rpc invocations. The client side injects the span
// context into the request metadata, the server side continues from it.
type MiddlewareBuilder struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewMiddlewareBuilder falls back to the global tracer provider and
// propagator for nil arguments.
func NewMiddlewareBuilder(tracer trace.Tracer, propagator propagation.TextMapPropagator) *MiddlewareBuilder {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	return &MiddlewareBuilder{tracer: tracer, propagator: propagator}
}

func (b *MiddlewareBuilder) attrs(req *message.Request, component string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("rpc.system", "xccproxy"),
		attribute.String("rpc.service", req.ServiceName),
		attribute.String("rpc.method", req.MethodName),
		attribute.String("rpc.component", component),
		attribute.String("net.host.ip", observability.GetOutboundIP()),
	}
}

func (b *MiddlewareBuilder) BuildClient() rpc.Middleware {
	return func(next rpc.Proxy) rpc.Proxy {
		return rpc.ProxyFunc(func(ctx context.Context, req *message.Request) (resp *message.Response, err error) {
			ctx, span := b.tracer.Start(ctx, req.ServiceName+"/"+req.MethodName,
				trace.WithAttributes(b.attrs(req, "client")...),
				trace.WithSpanKind(trace.SpanKindClient))
			defer func() {
				switch {
				case err != nil:
					span.SetStatus(codes.Error, "client failed")
					span.RecordError(err)
				case resp.Status != message.StatusOK:
					span.SetAttributes(attribute.String("rpc.status", resp.Status.String()))
					span.SetStatus(codes.Error, string(resp.Error))
				default:
					span.SetStatus(codes.Ok, "OK")
				}
				span.End()
			}()
			carrier := propagation.MapCarrier{}
			b.propagator.Inject(ctx, carrier)
			for key, value := range carrier {
				req.SetMeta(key, value)
			}
			resp, err = next.Invoke(ctx, req)
			return
		})
	}
}

func (b *MiddlewareBuilder) BuildServer() rpc.HandlerMiddleware {
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *message.Request) *message.Response {
			ctx = b.propagator.Extract(ctx, propagation.MapCarrier(req.Meta))
			ctx, span := b.tracer.Start(ctx, req.ServiceName+"/"+req.MethodName,
				trace.WithAttributes(b.attrs(req, "server")...),
				trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
			resp := next(ctx, req)
			if resp.Status != message.StatusOK {
				span.SetAttributes(attribute.String("rpc.status", resp.Status.String()))
				span.SetStatus(codes.Error, string(resp.Error))
			} else {
				span.SetStatus(codes.Ok, "OK")
			}
			return resp
		}
	}
}
