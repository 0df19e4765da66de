// Package retry executes fallible operations with bounded exponential backoff.
package retry

import (
	"context"
	"time"
)

// Options controls retry behavior. MaxRetries is the number of retries after
// the first attempt, so an operation runs at most MaxRetries+1 times.
type Options struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Exponential bool

	// Retryable classifies errors; a nil predicate retries everything.
	Retryable func(error) bool

	// Sleep replaces the backoff sleep, for tests. Defaults to a
	// context-aware timer wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultOptions returns the retry policy used for backend calls.
func DefaultOptions(retryable func(error) bool) Options {
	return Options{
		MaxRetries:  3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Exponential: true,
		Retryable:   retryable,
	}
}

// Delay returns the backoff before retry number attempt (0-based):
// min(base<<attempt, max) when exponential, flat base otherwise.
func (o Options) Delay(attempt int) time.Duration {
	if !o.Exponential {
		return o.BaseDelay
	}
	d := o.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if o.MaxDelay > 0 && d >= o.MaxDelay {
			return o.MaxDelay
		}
	}
	if o.MaxDelay > 0 && d > o.MaxDelay {
		return o.MaxDelay
	}
	return d
}

// Do runs op, retrying retryable failures with backoff. The last error is
// returned unchanged once attempts are exhausted; non-retryable errors
// propagate immediately without sleeping.
func Do(ctx context.Context, opts Options, op func(ctx context.Context) error) error {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if opts.Retryable != nil && !opts.Retryable(err) {
			return err
		}
		if attempt >= opts.MaxRetries {
			return err
		}
		if serr := sleep(ctx, opts.Delay(attempt)); serr != nil {
			return serr
		}
	}
}

// DoValue runs op, retrying like Do, and returns its result.
func DoValue[T any](ctx context.Context, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, opts, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
