//go:build e2e

package ratelimit

import (
	"context"
	"testing"
	"time"

	"xccproxy/ratelimit"
	"xccproxy/rpc/message"

	"github.com/go-redis/redis/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRedisSlideWindowLimiter_Build(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	mdl := ratelimit.NewRedisSlideWindowLimiter(rdb, "greeter:"+uuid.NewString(), 1, time.Second*3).Build()
	cnt := 0
	handler := mdl(func(ctx context.Context, req *message.Request) *message.Response {
		cnt++
		return &message.Response{}
	})
	resp := handler(context.Background(), &message.Request{})
	assert.Equal(t, message.StatusOK, resp.Status)

	resp = handler(context.Background(), &message.Request{})
	assert.Equal(t, message.StatusRejected, resp.Status)

	// wait for the window to slide past the first request
	time.Sleep(time.Second * 3)
	resp = handler(context.Background(), &message.Request{})
	assert.Equal(t, message.StatusOK, resp.Status)
	assert.Equal(t, 2, cnt)
}
