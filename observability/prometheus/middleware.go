package prometheus

import (
	"context"
	"time"

	"xccproxy/observability"
	"xccproxy/rpc"
	"xccproxy/rpc/message"

	"github.com/prometheus/client_golang/prometheus"
)

// MiddlewareBuilder records latency, errors and calls in flight for every
// rpc method, on the client or the server side.
type MiddlewareBuilder struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
	// defaults to prometheus.DefaultRegisterer
	Registerer prometheus.Registerer

	// for the address label, as a process rarely listens on more than one
	Port string

	summary *prometheus.SummaryVec
	errCnt  *prometheus.CounterVec
	active  *prometheus.GaugeVec
}

func (b *MiddlewareBuilder) register(kind string) {
	address := observability.GetOutboundIP()
	if b.Port != "" {
		address = address + ":" + b.Port
	}
	labels := map[string]string{
		"address": address,
		"kind":    kind,
	}
	b.summary = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:   b.Namespace,
		Subsystem:   b.Subsystem,
		Name:        b.Name + "_response",
		Help:        b.Help,
		ConstLabels: labels,
		Objectives: map[float64]float64{
			0.5:   0.01,
			0.75:  0.01,
			0.9:   0.01,
			0.99:  0.001,
			0.999: 0.0001,
		},
	}, []string{"service", "method", "status"})
	b.errCnt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   b.Namespace,
		Subsystem:   b.Subsystem,
		Name:        b.Name + "_error_cnt",
		Help:        b.Help,
		ConstLabels: labels,
	}, []string{"service", "method", "status"})
	b.active = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   b.Namespace,
		Subsystem:   b.Subsystem,
		Name:        b.Name + "_active_req_cnt",
		Help:        b.Help,
		ConstLabels: labels,
	}, []string{"service", "method"})
	reg := b.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(b.summary, b.errCnt, b.active)
}

func (b *MiddlewareBuilder) observe(req *message.Request, start time.Time, status string, failed bool) {
	if failed {
		b.errCnt.WithLabelValues(req.ServiceName, req.MethodName, status).Inc()
	}
	b.summary.WithLabelValues(req.ServiceName, req.MethodName, status).
		Observe(float64(time.Since(start).Milliseconds()))
}

// BuildClient measures the invocations a client sends. A transport error is
// reported with status "transport".
func (b *MiddlewareBuilder) BuildClient() rpc.Middleware {
	b.register("client")
	return func(next rpc.Proxy) rpc.Proxy {
		return rpc.ProxyFunc(func(ctx context.Context, req *message.Request) (resp *message.Response, err error) {
			active := b.active.WithLabelValues(req.ServiceName, req.MethodName)
			active.Inc()
			start := time.Now()
			defer func() {
				active.Dec()
				if err != nil {
					b.observe(req, start, "transport", true)
					return
				}
				b.observe(req, start, resp.Status.String(), resp.Status != message.StatusOK)
			}()
			resp, err = next.Invoke(ctx, req)
			return
		})
	}
}

// BuildServer measures the invocations a server handles.
func (b *MiddlewareBuilder) BuildServer() rpc.HandlerMiddleware {
	b.register("server")
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *message.Request) *message.Response {
			active := b.active.WithLabelValues(req.ServiceName, req.MethodName)
			active.Inc()
			start := time.Now()
			resp := next(ctx, req)
			active.Dec()
			b.observe(req, start, resp.Status.String(), resp.Status != message.StatusOK)
			return resp
		}
	}
}
