package main

import (
	"fmt"
	"strings"

	"xccproxy/rpc/compress"
	"xccproxy/rpc/compress/gzip"
	"xccproxy/rpc/compress/lz4"
	"xccproxy/rpc/compress/snappy"
	"xccproxy/rpc/compress/zlib"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

type fileConfig struct {
	Proxy   proxyConfig   `toml:"proxy"`
	Peer    peerConfig    `toml:"peer"`
	Store   storeConfig   `toml:"store"`
	Log     logConfig     `toml:"log"`
	Metrics metricsConfig `toml:"metrics"`
	Trace   traceConfig   `toml:"trace"`
}

type proxyConfig struct {
	Account     string `toml:"account"`
	PeerAddress string `toml:"peer_address"`
	InFlight    int64  `toml:"in_flight"`
	Compressor  string `toml:"compressor"`
}

type peerConfig struct {
	Address  string `toml:"address"`
	Greeting string `toml:"greeting"`
	// requests per second, 0 for no limit
	Rate int `toml:"rate"`
	// share the limit through redis under this key
	RateKey string `toml:"rate_key"`
}

type storeConfig struct {
	Backend   string   `toml:"backend"`
	Endpoints []string `toml:"endpoints"`
	RedisAddr string   `toml:"redis_addr"`
	Prefix    string   `toml:"prefix"`
}

type logConfig struct {
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
}

type metricsConfig struct {
	Address string `toml:"address"`
}

type traceConfig struct {
	Stdout bool `toml:"stdout"`
}

func defaultConfig() fileConfig {
	return fileConfig{
		Proxy: proxyConfig{
			Account:     "proxy.local",
			PeerAddress: "127.0.0.1:8081",
			InFlight:    64,
			Compressor:  "none",
		},
		Peer: peerConfig{
			Address:  "127.0.0.1:8081",
			Greeting: "Hello",
		},
		Store: storeConfig{
			Backend:   "memory",
			Endpoints: []string{"localhost:2379"},
			RedisAddr: "localhost:6379",
		},
		Log: logConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// loadConfig overlays the file at path on the defaults. An empty path keeps
// the defaults.
func loadConfig(path string) (fileConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return fileConfig{}, err
	}
	return cfg, nil
}

func (c fileConfig) validate() error {
	switch c.Store.Backend {
	case "memory", "etcd", "redis":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if _, err := compressorByName(c.Proxy.Compressor); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Proxy.InFlight <= 0 {
		return fmt.Errorf("config: in_flight must be positive, got %d", c.Proxy.InFlight)
	}
	return nil
}

func compressorByName(name string) (compress.Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return compress.DoNothingCompressor{}, nil
	case "gzip":
		return gzip.Compressor{}, nil
	case "lz4":
		return lz4.Compressor{}, nil
	case "snappy":
		return snappy.Compressor{}, nil
	case "zlib":
		return zlib.Compressor{}, nil
	default:
		return nil, fmt.Errorf("config: unknown compressor %q", name)
	}
}
