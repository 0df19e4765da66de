package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchOptions controls ProcessBatches.
type BatchOptions struct {
	// BatchSize is the number of items per batch; <= 0 processes everything
	// in one batch.
	BatchSize int
	// Concurrency caps in-flight transforms within a batch; <= 0 means 4.
	Concurrency int
	// InterBatchDelay sleeps between batches, not after the last one.
	InterBatchDelay time.Duration
	// OnProgress is invoked with (completed, total) after each batch.
	OnProgress func(completed, total int)

	// Sleep replaces the inter-batch sleep, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Outcome is the per-item result of a batch transform. A failed item carries
// its error here instead of aborting the batch.
type Outcome[R any] struct {
	Value R
	Err   error
}

// ProcessBatches runs fn over items in fixed-size batches. Each batch's
// transforms race freely under the concurrency cap, but a batch fully joins
// before the next one starts and the output order always matches the input
// order. Only context cancellation returns an error; per-item failures are
// reported in the outcomes.
func ProcessBatches[T, R any](ctx context.Context, items []T, opts BatchOptions, fn func(ctx context.Context, index int, item T) (R, error)) ([]Outcome[R], error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = len(items)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	outcomes := make([]Outcome[R], len(items))

	for start := 0; start < len(items); start += batchSize {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		end := min(start+batchSize, len(items))

		var g errgroup.Group
		g.SetLimit(concurrency)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				value, err := fn(ctx, i, items[i])
				outcomes[i] = Outcome[R]{Value: value, Err: err}
				return nil
			})
		}
		// Transforms never return group errors; Wait is the batch join.
		_ = g.Wait()

		if opts.OnProgress != nil {
			opts.OnProgress(end, len(items))
		}

		if opts.InterBatchDelay > 0 && end < len(items) {
			if err := sleep(ctx, opts.InterBatchDelay); err != nil {
				return outcomes, err
			}
		}
	}

	return outcomes, nil
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
