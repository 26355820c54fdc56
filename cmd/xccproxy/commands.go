package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xccproxy"
	"xccproxy/config"
	"xccproxy/identity"
	"xccproxy/internal/errs"
	otelmdl "xccproxy/observability/opentelemetry"
	prommdl "xccproxy/observability/prometheus"
	"xccproxy/peer"
	"xccproxy/ratelimit"
	"xccproxy/rpc"
	"xccproxy/rpc/compress/gzip"
	"xccproxy/rpc/compress/lz4"
	"xccproxy/rpc/compress/snappy"
	"xccproxy/rpc/compress/zlib"
	"xccproxy/rpc/serialize/proto"
	"xccproxy/runtime"
	"xccproxy/state"
	"xccproxy/state/memory"

	"github.com/go-redis/redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runServePeer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)
	shutdown, err := setupTracing(cfg.Trace)
	if err != nil {
		return err
	}
	defer func() {
		_ = shutdown(context.Background())
	}()

	mdls := []rpc.HandlerMiddleware{
		otelmdl.NewMiddlewareBuilder(nil, nil).BuildServer(),
		(&prommdl.MiddlewareBuilder{
			Namespace: "xccproxy",
			Subsystem: "peer",
			Name:      "greeter",
			Help:      "invocations served by the greeter",
		}).BuildServer(),
	}
	limiter, closeLimiter := peerLimiter(cfg.Peer, cfg.Store, logger)
	defer func() {
		_ = closeLimiter()
	}()
	if limiter != nil {
		mdls = append(mdls, limiter.Build())
	}
	server := rpc.NewServer(
		rpc.ServerWithAccount(identity.AccountID(cfg.Peer.Address)),
		rpc.ServerWithLogger(logger),
		rpc.ServerWithMiddlewares(mdls...))
	server.RegisterSerializer(proto.Serializer{})
	server.RegisterCompressor(gzip.Compressor{})
	server.RegisterCompressor(lz4.Compressor{})
	server.RegisterCompressor(snappy.Compressor{})
	server.RegisterCompressor(zlib.Compressor{})
	server.MustRegister(peer.NewGreeter(
		peer.GreeterWithGreeting(cfg.Peer.Greeting),
		peer.GreeterWithLogger(logger)))

	listener, err := net.Listen("tcp", cfg.Peer.Address)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info().Str("address", listener.Addr().String()).Msg("greeter: serving")
		return server.Serve(listener)
	})
	eg.Go(func() error {
		<-ctx.Done()
		return server.Close()
	})
	if cfg.Metrics.Address != "" {
		eg.Go(func() error {
			return serveMetrics(ctx, cfg.Metrics.Address, logger)
		})
	}
	return eg.Wait()
}

// peerLimiter also returns the release of whatever the limiter holds open.
func peerLimiter(cfg peerConfig, store storeConfig, logger zerolog.Logger) (ratelimit.Limiter, func() error) {
	noop := func() error { return nil }
	if cfg.Rate <= 0 {
		return nil, noop
	}
	if cfg.RateKey != "" {
		rdb := redis.NewClient(&redis.Options{Addr: store.RedisAddr})
		return ratelimit.NewRedisSlideWindowLimiter(rdb, cfg.RateKey, cfg.Rate, time.Second).WithLogger(logger), rdb.Close
	}
	return ratelimit.NewSlideWindowLimiter(cfg.Rate, time.Second), noop
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()
	saved, err := initialize(cmd.Context(), store, cfg.Proxy)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "initialized %s -> %s\n", saved.Account, saved.PeerAddress)
	return nil
}

// initialize runs as the proxy account itself, the only caller allowed to.
func initialize(ctx context.Context, store state.Store, cfg proxyConfig) (config.ProxyConfig, error) {
	account := identity.AccountID(cfg.Account)
	ctx = identity.With(ctx, identity.Context{
		Signer:      account,
		Predecessor: account,
		Current:     account,
	})
	return config.Initialize(ctx, store, config.ProxyConfig{
		Account:     account,
		PeerAddress: identity.AccountID(cfg.PeerAddress),
	})
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	wait, err := time.ParseDuration(timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	logger := setupLogger(cfg)
	shutdown, err := setupTracing(cfg.Trace)
	if err != nil {
		return err
	}
	defer func() {
		_ = shutdown(context.Background())
	}()

	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()
	// nothing survives between two runs in memory
	if _, ok := store.(*memory.Store); ok {
		if _, err = initialize(cmd.Context(), store, cfg.Proxy); err != nil {
			return err
		}
	}

	c, err := compressorByName(cfg.Proxy.Compressor)
	if err != nil {
		return err
	}
	p, err := xccproxy.Open(cmd.Context(), store, identity.AccountID(cfg.Proxy.Account),
		xccproxy.ProxyWithLogger(logger),
		xccproxy.ProxyWithInFlight(cfg.Proxy.InFlight),
		xccproxy.ProxyWithExecutorOptions(runtime.ExecutorWithCompressor(c)),
		xccproxy.ProxyWithClientOptions(rpc.ClientWithMiddlewares(
			otelmdl.NewMiddlewareBuilder(nil, nil).BuildClient())))
	if errors.Is(err, errs.ErrNotInitialized) {
		return fmt.Errorf("%w: run xccproxy init first", err)
	}
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if signer != "" {
		ctx = identity.With(ctx, identity.Context{
			Signer:      identity.AccountID(signer),
			Predecessor: identity.AccountID(signer),
			Current:     p.Config().Account,
		})
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	var res any
	switch args[0] {
	case "greeting":
		res, err = p.QueryGreeting(ctx).Await(ctx)
	case "set-greeting":
		if len(args) < 2 {
			return errors.New("set-greeting needs the new greeting")
		}
		res, err = p.ChangeGreeting(ctx, args[1]).Await(ctx)
	case "signer":
		res, err = p.QuerySignerAccountID(ctx).Await(ctx)
	case "current":
		res, err = p.QueryCurrentAccountID(ctx).Await(ctx)
	case "predecessor":
		res, err = p.QueryPredecessorAccountID(ctx).Await(ctx)
	default:
		return fmt.Errorf("unknown operation %q", args[0])
	}
	if err != nil {
		// the invocation may still be in flight, do not wait for it
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%v\n", res)
	return p.Close()
}
