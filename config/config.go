// Package config holds the proxy configuration, written once at
// initialization and read-only afterwards.
package config

import (
	"context"
	"encoding/json"
	"errors"

	"xccproxy/identity"
	"xccproxy/internal/errs"
	"xccproxy/state"
)

// ProxyConfig names the proxy and the peer it forwards to.
type ProxyConfig struct {
	Account     identity.AccountID `json:"account"`
	PeerAddress identity.AccountID `json:"peer_address"`
}

func (c ProxyConfig) Validate() error {
	if c.Account.Empty() {
		return errs.ErrEmptyAccount
	}
	if c.PeerAddress.Empty() {
		return errs.ErrEmptyPeer
	}
	return nil
}

func key(account identity.AccountID) string {
	return "config/" + string(account)
}

// Initialize stores cfg for cfg.Account. Only the proxy account itself may do
// it, and only once: a second call returns errs.ErrAlreadyInitialized and
// the stored configuration is kept.
func Initialize(ctx context.Context, store state.Store, cfg ProxyConfig) (ProxyConfig, error) {
	if err := cfg.Validate(); err != nil {
		return ProxyConfig{}, err
	}
	caller, ok := identity.FromContext(ctx)
	if !ok || caller.Predecessor != cfg.Account {
		return ProxyConfig{}, errs.ErrUnauthorizedInit
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return ProxyConfig{}, err
	}
	err = store.Create(ctx, key(cfg.Account), data)
	if errors.Is(err, errs.ErrKeyExists) {
		return ProxyConfig{}, errs.ErrAlreadyInitialized
	}
	if err != nil {
		return ProxyConfig{}, err
	}
	return cfg, nil
}

// Load reads the configuration of account, errs.ErrNotInitialized if there
// is none.
func Load(ctx context.Context, store state.Store, account identity.AccountID) (ProxyConfig, error) {
	data, err := store.Get(ctx, key(account))
	if errors.Is(err, errs.ErrKeyNotFound) {
		return ProxyConfig{}, errs.ErrNotInitialized
	}
	if err != nil {
		return ProxyConfig{}, err
	}
	var cfg ProxyConfig
	if err = json.Unmarshal(data, &cfg); err != nil {
		return ProxyConfig{}, err
	}
	return cfg, nil
}
