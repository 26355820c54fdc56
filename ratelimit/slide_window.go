package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"

	"xccproxy/rpc"
	"xccproxy/rpc/message"
)

var _ Limiter = (*SlideWindowLimiter)(nil)

type SlideWindowLimiter struct {
	maxRate int
	// timestamps of the requests inside the window, oldest first
	queue    *list.List
	mutex    sync.Mutex
	interval time.Duration
	onReject rejectStrategy
}

func NewSlideWindowLimiter(maxRate int, interval time.Duration) *SlideWindowLimiter {
	return &SlideWindowLimiter{
		maxRate:  maxRate,
		interval: interval,
		queue:    list.New(),
		onReject: defaultRejection,
	}
}

func (l *SlideWindowLimiter) OnReject(onReject rejectStrategy) *SlideWindowLimiter {
	l.onReject = onReject
	return l
}

func (l *SlideWindowLimiter) Build() rpc.HandlerMiddleware {
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *message.Request) *message.Response {
			if l.allow(time.Now()) {
				return next(ctx, req)
			}
			return l.onReject(ctx, req, next)
		}
	}
}

func (l *SlideWindowLimiter) allow(now time.Time) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.queue.Len() < l.maxRate {
		l.queue.PushBack(now)
		return true
	}
	windowStart := now.Add(-l.interval)
	for e := l.queue.Front(); e != nil && e.Value.(time.Time).Before(windowStart); e = l.queue.Front() {
		l.queue.Remove(e)
	}
	if l.queue.Len() >= l.maxRate {
		return false
	}
	l.queue.PushBack(now)
	return true
}
