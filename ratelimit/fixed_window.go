package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"xccproxy/rpc"
	"xccproxy/rpc/message"
)

var _ Limiter = (*FixWindowLimiter)(nil)

type FixWindowLimiter struct {
	interval int64
	// at most maxRate requests per interval
	maxRate     int64
	cnt         int64
	windowStart int64
	onReject    rejectStrategy
}

func NewFixWindowLimiter(interval time.Duration, maxRate int64) *FixWindowLimiter {
	return &FixWindowLimiter{
		interval:    interval.Nanoseconds(),
		maxRate:     maxRate,
		windowStart: time.Now().UnixNano(),
		onReject:    defaultRejection,
	}
}

func (l *FixWindowLimiter) OnReject(onReject rejectStrategy) *FixWindowLimiter {
	l.onReject = onReject
	return l
}

func (l *FixWindowLimiter) Build() rpc.HandlerMiddleware {
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *message.Request) *message.Response {
			now := time.Now().UnixNano()
			window := atomic.LoadInt64(&l.windowStart)
			if window+l.interval < now {
				// whoever loses the CAS sees the window another goroutine opened
				if atomic.CompareAndSwapInt64(&l.windowStart, window, now) {
					atomic.StoreInt64(&l.cnt, 0)
				}
			}
			if atomic.AddInt64(&l.cnt, 1) > l.maxRate {
				return l.onReject(ctx, req, next)
			}
			return next(ctx, req)
		}
	}
}
