package etcd

import (
	"context"

	"xccproxy/internal/errs"
	"xccproxy/state"

	"github.com/gotomicro/ekit/bean/option"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var _ state.Store = (*Store)(nil)

// Store keeps the values in etcd. Create is a transaction that only puts
// when the key has never been created.
type Store struct {
	client *clientv3.Client
	kv     clientv3.KV
	prefix string
}

func StoreWithPrefix(prefix string) option.Option[Store] {
	return func(s *Store) {
		s.prefix = prefix
	}
}

func NewStore(client *clientv3.Client, opts ...option.Option[Store]) *Store {
	s := &Store{
		client: client,
		kv:     client.KV,
		prefix: "/xccproxy/",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, key string, value []byte) error {
	key = s.prefix + key
	resp, err := s.kv.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(value))).
		Commit()
	if err != nil {
		return err
	}
	if !resp.Succeeded {
		return errs.ErrKeyExists
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.kv.Get(ctx, s.prefix+key)
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, errs.ErrKeyNotFound
	}
	return resp.Kvs[0].Value, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
