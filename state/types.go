// Package state is the durable key/value storage behind the proxy
// configuration.
package state

import "context"

//go:generate mockgen -source=types.go -destination=types_mock.go -package=state Store

// Store keeps write-once values.
type Store interface {
	// Create stores value under key unless the key already exists, in which
	// case it returns errs.ErrKeyExists and leaves the stored value alone.
	Create(ctx context.Context, key string, value []byte) error
	// Get returns errs.ErrKeyNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Close() error
}
