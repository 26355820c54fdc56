package memory

import (
	"context"
	"sync"

	"xccproxy/internal/errs"
	"xccproxy/state"
)

var _ state.Store = (*Store)(nil)

// Store keeps the values in process memory.
type Store struct {
	mutex sync.RWMutex
	data  map[string][]byte
}

func NewStore() *Store {
	return &Store{data: make(map[string][]byte, 4)}
}

func (s *Store) Create(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.data[key]; ok {
		return errs.ErrKeyExists
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	val, ok := s.data[key]
	if !ok {
		return nil, errs.ErrKeyNotFound
	}
	return append([]byte(nil), val...), nil
}

func (s *Store) Close() error {
	return nil
}
