package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"xccproxy/observability"
	"xccproxy/state"
	etcdstore "xccproxy/state/etcd"
	"xccproxy/state/memory"
	redisstore "xccproxy/state/redis"

	"github.com/go-redis/redis/v9"
	"github.com/gotomicro/ekit/bean/option"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func setupLogger(cfg fileConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return observability.InitLogger("xccproxy", level, cfg.Log.Console)
}

func openStore(cfg storeConfig) (state.Store, error) {
	switch cfg.Backend {
	case "memory":
		return memory.NewStore(), nil
	case "etcd":
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   cfg.Endpoints,
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		var opts []option.Option[etcdstore.Store]
		if cfg.Prefix != "" {
			opts = append(opts, etcdstore.StoreWithPrefix(cfg.Prefix))
		}
		return etcdstore.NewStore(client, opts...), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		var opts []option.Option[redisstore.Store]
		if cfg.Prefix != "" {
			opts = append(opts, redisstore.StoreWithPrefix(cfg.Prefix))
		}
		return redisstore.NewStore(rdb, opts...), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// setupTracing installs a global tracer provider. Spans are printed only
// when stdout tracing is on.
func setupTracing(cfg traceConfig) (func(ctx context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	if !cfg.Stdout {
		return func(ctx context.Context) error { return nil }, nil
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// serveMetrics exposes /metrics until ctx is done.
func serveMetrics(ctx context.Context, address string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	logger.Info().Str("address", address).Msg("metrics: serving")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
