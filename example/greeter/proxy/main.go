package main

import (
	"context"
	"os"
	"time"

	"xccproxy"
	"xccproxy/config"
	"xccproxy/rpc/compress/snappy"
	"xccproxy/runtime"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	p, err := xccproxy.New(config.ProxyConfig{
		Account:     "proxy.local",
		PeerAddress: "127.0.0.1:8081",
	},
		xccproxy.ProxyWithLogger(logger),
		xccproxy.ProxyWithExecutorOptions(runtime.ExecutorWithCompressor(snappy.Compressor{})))
	if err != nil {
		logger.Fatal().Err(err).Msg("proxy")
	}
	defer func() {
		_ = p.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// both are in flight before either is awaited
	changed := p.ChangeGreeting(ctx, "howdy")
	who := p.QueryPredecessorAccountID(ctx)
	ok, _ := changed.Await(ctx)
	predecessor, _ := who.Await(ctx)
	greeting, _ := p.QueryGreeting(ctx).Await(ctx)
	logger.Info().
		Bool("changed", ok).
		Str("greeting", greeting).
		Str("predecessor", predecessor).
		Msg("done")
}
