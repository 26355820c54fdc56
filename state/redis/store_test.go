package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"xccproxy/internal/errs"

	"github.com/go-redis/redis/v9"
	"github.com/stretchr/testify/assert"
)

// fakeCmdable answers the two commands the store issues.
type fakeCmdable struct {
	redis.Cmdable
	setNX func(key string, value any) *redis.BoolCmd
	get   func(key string) *redis.StringCmd
}

func (f *fakeCmdable) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	return f.setNX(key, value)
}

func (f *fakeCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	return f.get(key)
}

func TestStore_Create(t *testing.T) {
	testCases := []struct {
		name string

		result  *redis.BoolCmd
		wantErr error
	}{
		{
			name:   "created",
			result: redis.NewBoolResult(true, nil),
		},
		{
			name:    "exists",
			result:  redis.NewBoolResult(false, nil),
			wantErr: errs.ErrKeyExists,
		},
		{
			name:    "redis error",
			result:  redis.NewBoolResult(false, errors.New("connection refused")),
			wantErr: errors.New("connection refused"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(&fakeCmdable{
				setNX: func(key string, value any) *redis.BoolCmd {
					assert.Equal(t, "xccproxy:config", key)
					assert.Equal(t, []byte("v1"), value)
					return tc.result
				},
			})
			err := s.Create(context.Background(), "config", []byte("v1"))
			assert.Equal(t, tc.wantErr, err)
		})
	}
}

func TestStore_Get(t *testing.T) {
	testCases := []struct {
		name string

		result  *redis.StringCmd
		want    []byte
		wantErr error
	}{
		{
			name:   "found",
			result: redis.NewStringResult("v1", nil),
			want:   []byte("v1"),
		},
		{
			name:    "missing",
			result:  redis.NewStringResult("", redis.Nil),
			wantErr: errs.ErrKeyNotFound,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(&fakeCmdable{
				get: func(key string) *redis.StringCmd {
					return tc.result
				},
			}, StoreWithPrefix(""))
			val, err := s.Get(context.Background(), "config")
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.want, val)
		})
	}
}
