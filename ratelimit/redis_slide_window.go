package ratelimit

import (
	"context"
	_ "embed"
	"time"

	"xccproxy/rpc"
	"xccproxy/rpc/message"

	"github.com/go-redis/redis/v9"
	"github.com/rs/zerolog"
)

//go:embed lua/slide_window.lua
var luaSlideWindow string

var _ Limiter = (*RedisSlideWindowLimiter)(nil)

// RedisSlideWindowLimiter shares one sliding window between every server
// using the same key.
type RedisSlideWindowLimiter struct {
	client   redis.Cmdable
	key      string
	maxRate  int
	interval int64
	onReject rejectStrategy
	logger   zerolog.Logger
}

func NewRedisSlideWindowLimiter(client redis.Cmdable, key string, maxRate int, interval time.Duration) *RedisSlideWindowLimiter {
	return &RedisSlideWindowLimiter{
		client:   client,
		key:      key,
		maxRate:  maxRate,
		interval: interval.Milliseconds(),
		onReject: defaultRejection,
		logger:   zerolog.Nop(),
	}
}

func (l *RedisSlideWindowLimiter) OnReject(onReject rejectStrategy) *RedisSlideWindowLimiter {
	l.onReject = onReject
	return l
}

func (l *RedisSlideWindowLimiter) WithLogger(logger zerolog.Logger) *RedisSlideWindowLimiter {
	l.logger = logger
	return l
}

func (l *RedisSlideWindowLimiter) Build() rpc.HandlerMiddleware {
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *message.Request) *message.Response {
			limited, err := l.limit(ctx)
			if err != nil {
				// redis down, serve rather than reject everything
				l.logger.Warn().Err(err).Str("key", l.key).Msg("ratelimit: redis unavailable")
				return next(ctx, req)
			}
			if limited {
				return l.onReject(ctx, req, next)
			}
			return next(ctx, req)
		}
	}
}

func (l *RedisSlideWindowLimiter) limit(ctx context.Context) (bool, error) {
	now := time.Now().UnixMilli()
	return l.client.Eval(ctx, luaSlideWindow, []string{l.key}, l.maxRate, l.interval, now).Bool()
}
