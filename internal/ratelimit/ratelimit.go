// Package ratelimit implements the sliding-window admission control that
// caps outbound document downloads per second.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter admits at most N events in any trailing one-second window.
// Admission timestamps are kept in a FIFO guarded by a single mutex, so
// the evict-check-append sequence is atomic: concurrent callers cannot
// race past the window check.
type Limiter struct {
	mu     sync.Mutex
	window []time.Time
	max    int
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter admitting at most maxPerSecond events per
// trailing second. Non-positive values fall back to 5.
func New(maxPerSecond int) *Limiter {
	if maxPerSecond <= 0 {
		maxPerSecond = 5
	}
	return &Limiter{
		max:   maxPerSecond,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Acquire blocks until admitting one more event would not exceed the cap
// in any trailing one-second window, records the admission, and returns.
// It returns early only when the context is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	if len(l.window) >= l.max {
		wait := time.Second - now.Sub(l.window[0])
		if wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
			now = l.now()
			l.evict(now)
		}
	}

	l.window = append(l.window, now)
	return nil
}

// evict drops admissions older than one second. Caller holds the lock.
func (l *Limiter) evict(now time.Time) {
	i := 0
	for i < len(l.window) && now.Sub(l.window[i]) >= time.Second {
		i++
	}
	if i > 0 {
		l.window = append(l.window[:0], l.window[i:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
