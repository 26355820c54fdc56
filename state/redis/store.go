package redis

import (
	"context"
	"errors"

	"xccproxy/internal/errs"
	"xccproxy/state"

	"github.com/go-redis/redis/v9"
	"github.com/gotomicro/ekit/bean/option"
)

var _ state.Store = (*Store)(nil)

// Store keeps the values in redis. Create relies on SETNX.
type Store struct {
	client redis.Cmdable
	prefix string
}

func StoreWithPrefix(prefix string) option.Option[Store] {
	return func(s *Store) {
		s.prefix = prefix
	}
}

func NewStore(client redis.Cmdable, opts ...option.Option[Store]) *Store {
	s := &Store{
		client: client,
		prefix: "xccproxy:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, key string, value []byte) error {
	ok, err := s.client.SetNX(ctx, s.prefix+key, value, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrKeyExists
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.ErrKeyNotFound
	}
	return val, err
}

func (s *Store) Close() error {
	if c, ok := s.client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
