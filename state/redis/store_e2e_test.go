//go:build e2e

package redis

import (
	"context"
	"testing"

	"xccproxy/internal/errs"

	"github.com/go-redis/redis/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_e2e(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	s := NewStore(rdb, StoreWithPrefix("xccproxy-test:"+uuid.NewString()+":"))
	t.Cleanup(func() {
		_ = s.Close()
	})
	ctx := context.Background()

	_, err := s.Get(ctx, "config")
	assert.Equal(t, errs.ErrKeyNotFound, err)

	require.NoError(t, s.Create(ctx, "config", []byte("v1")))
	assert.Equal(t, errs.ErrKeyExists, s.Create(ctx, "config", []byte("v2")))

	val, err := s.Get(ctx, "config")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(val))
}
