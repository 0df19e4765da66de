// Package ratelimit bounds concurrent backend calls and paces call starts.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Limiter grants up to N concurrency slots and, when a minimum inter-call
// interval is configured, additionally spaces out acquisitions globally:
// each Acquire reserves the next start time after the previous acquisition
// by any caller, not per caller.
type Limiter struct {
	sem         *semaphore.Weighted
	minInterval time.Duration

	mu   sync.Mutex
	next time.Time // earliest start time for the next acquisition

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter with the given number of slots. minInterval of zero
// disables pacing. Fewer than one slot is treated as one.
func New(slots int, minInterval time.Duration) *Limiter {
	if slots < 1 {
		slots = 1
	}
	return &Limiter{
		sem:         semaphore.NewWeighted(int64(slots)),
		minInterval: minInterval,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Acquire takes a slot, waiting for one to free up and for the pacing
// interval to elapse. On error the slot is not held.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if l.minInterval <= 0 {
		return nil
	}

	l.mu.Lock()
	now := l.now()
	var wait time.Duration
	if l.next.After(now) {
		wait = l.next.Sub(now)
		l.next = l.next.Add(l.minInterval)
	} else {
		l.next = now.Add(l.minInterval)
	}
	l.mu.Unlock()

	if wait > 0 {
		if err := l.sleep(ctx, wait); err != nil {
			l.sem.Release(1)
			return err
		}
	}
	return nil
}

// Release returns a slot. Must be called exactly once per successful Acquire.
func (l *Limiter) Release() {
	l.sem.Release(1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
