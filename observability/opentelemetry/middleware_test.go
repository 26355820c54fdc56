package opentelemetry

import (
	"context"
	"testing"

	"xccproxy/rpc"
	"xccproxy/rpc/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestMiddlewareBuilder(t *testing.T) {
	testCases := []struct {
		name string

		status     message.Status
		wantStatus codes.Code
	}{
		{
			name:       "ok",
			status:     message.StatusOK,
			wantStatus: codes.Ok,
		},
		{
			name:       "remote fault",
			status:     message.StatusRemoteFault,
			wantStatus: codes.Error,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			exporter := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			b := NewMiddlewareBuilder(tp.Tracer("test"), propagation.TraceContext{})

			// the client middleware hands the request straight to the server one
			server := b.BuildServer()(func(ctx context.Context, req *message.Request) *message.Response {
				return &message.Response{Status: tc.status}
			})
			client := rpc.Chain(rpc.ProxyFunc(func(ctx context.Context, req *message.Request) (*message.Response, error) {
				assert.NotEmpty(t, req.Meta["traceparent"])
				return server(context.Background(), req), nil
			}), b.BuildClient())

			_, err := client.Invoke(context.Background(), &message.Request{ServiceName: "greeter", MethodName: "GetGreeting"})
			require.NoError(t, err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 2)
			// the server span ends first
			serverSpan, clientSpan := spans[0], spans[1]
			assert.Equal(t, trace.SpanKindServer, serverSpan.SpanKind)
			assert.Equal(t, trace.SpanKindClient, clientSpan.SpanKind)
			assert.Equal(t, "greeter/GetGreeting", clientSpan.Name)
			assert.Equal(t, clientSpan.SpanContext.TraceID(), serverSpan.SpanContext.TraceID())
			assert.Equal(t, clientSpan.SpanContext.SpanID(), serverSpan.Parent.SpanID())
			assert.Equal(t, tc.wantStatus, clientSpan.Status.Code)
			assert.Equal(t, tc.wantStatus, serverSpan.Status.Code)
		})
	}
}
