// Package ratelimiter implements the per-sink windowed-quota permit
// store described by the dispatcher's rate law: at most capacity sends
// may begin per one-second window.
package ratelimiter

import (
	"context"
	"sync/atomic"
	"time"
)

// RateLimiter is a windowed quota, not an accumulating token bucket: a
// background tick resets available permits to capacity once per second,
// discarding any unused permits from the previous window. An initial
// full bucket lets the first second absorb a burst up to capacity.
type RateLimiter struct {
	capacity  int64
	available atomic.Int64
}

// New creates a limiter initialized at full capacity. Call Run to start
// its refill loop; the constructor itself starts no goroutine.
func New(capacity int) *RateLimiter {
	rl := &RateLimiter{capacity: int64(capacity)}
	rl.available.Store(int64(capacity))
	return rl
}

// Acquire blocks until one permit is available, then consumes it. It
// returns ctx.Err() without consuming a permit if ctx is done first.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	for {
		current := rl.available.Load()
		if current > 0 && rl.available.CompareAndSwap(current, current-1) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
			// Re-check; a refill or a competing release may have
			// happened. A short poll interval keeps Acquire responsive
			// without a per-waiter wakeup channel.
		}
	}
}

// Run resets available permits to capacity once per second until ctx is
// canceled. The caller owns this goroutine's lifecycle (cmd/dispatcher
// starts every limiter through sink.RunLimiters; the orchestrator does
// not); it is never started as a side effect of New, per the
// no-hidden-daemon rule.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.available.Store(rl.capacity)
		}
	}
}

// Available reports the current permit count, for tests and reporting.
func (rl *RateLimiter) Available() int64 {
	return rl.available.Load()
}
