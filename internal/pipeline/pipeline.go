// Package pipeline provides the cost-bounded multi-stage persona generation
// pipeline: drafting on a cheap local backend, quality gating through a
// judge, and optional refinement of weak candidates on a frontier backend,
// all under a shared monetary budget.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonathan/persona-foundry/internal/cost"
	"github.com/jonathan/persona-foundry/internal/judge"
	"github.com/jonathan/persona-foundry/internal/llm"
	"github.com/jonathan/persona-foundry/internal/ratelimit"
	"github.com/jonathan/persona-foundry/internal/retry"
)

const (
	draftTemperature  = 0.9
	refineTemperature = 0.7

	// maxBarrenBatches stops the draft loop after this many consecutive
	// batches that produced no usable personas, so a misbehaving backend
	// cannot spin an unbounded run forever.
	maxBarrenBatches = 3
)

// Event is a progress update emitted while the pipeline runs. Events are
// written to the configured channel in order; the caller must consume them.
type Event struct {
	Stage     string `json:"stage"`
	Message   string `json:"message"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Config holds the immutable run parameters.
type Config struct {
	// BatchSize is the number of personas requested per draft batch and the
	// batch size for judging. Defaults to 5.
	BatchSize int
	// Concurrency caps concurrent backend calls. Defaults to 4.
	Concurrency int
	// QualityThreshold is the minimum judge score for acceptance without
	// refinement, in [0,1].
	QualityThreshold float64
	// Hybrid routes below-threshold drafts to the frontier backend. It only
	// takes effect when a configured frontier backend is present.
	Hybrid bool
	// MinCallInterval spaces out backend call starts globally. Zero disables
	// pacing.
	MinCallInterval time.Duration
	// InterBatchDelay sleeps between draft/judge batches.
	InterBatchDelay time.Duration
	// Retry overrides the backend retry policy; zero value uses the default
	// transient-failure policy.
	Retry *retry.Options
	// Progress receives ordered progress events when non-nil.
	Progress chan<- Event
	// Verbose prints detailed step logging.
	Verbose bool
}

// withDefaults fills unset config values.
func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// Pipeline orchestrates the three generation stages. It performs no network
// I/O itself; all calls go through the backends and the judge.
type Pipeline struct {
	cfg      Config
	local    llm.Backend
	frontier llm.Backend
	judge    judge.Judge
	tracker  *cost.Tracker
	limiter  *ratelimit.Limiter
	retry    retry.Options
}

// New assembles a pipeline. frontier may be nil for local-only runs; judge
// and tracker are required.
func New(cfg Config, local, frontier llm.Backend, j judge.Judge, tracker *cost.Tracker) *Pipeline {
	cfg = cfg.withDefaults()

	retryOpts := retry.DefaultOptions(llm.IsTransient)
	if cfg.Retry != nil {
		retryOpts = *cfg.Retry
	}

	return &Pipeline{
		cfg:      cfg,
		local:    local,
		frontier: frontier,
		judge:    j,
		tracker:  tracker,
		limiter:  ratelimit.New(cfg.Concurrency, cfg.MinCallInterval),
		retry:    retryOpts,
	}
}

// hybridEnabled reports whether weak drafts have a frontier tier to route to.
func (p *Pipeline) hybridEnabled() bool {
	return p.cfg.Hybrid && p.frontier != nil && p.frontier.IsConfigured()
}

// call issues one backend call under the rate limiter and retry policy,
// recording token usage for every attempt that returned a response.
func (p *Pipeline) call(ctx context.Context, backend llm.Backend, tier cost.Tier, prompt string, temperature float32) (*llm.Response, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.limiter.Release()

	return retry.DoValue(ctx, p.retry, func(ctx context.Context) (*llm.Response, error) {
		resp, err := backend.Generate(ctx, llm.Request{
			Prompt:      prompt,
			Temperature: temperature,
		})
		if resp != nil {
			p.tracker.AddUsage(tier, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}
		return resp, err
	})
}

// emit sends a progress event when a progress channel is configured.
func (p *Pipeline) emit(stage, message string, completed, total int) {
	if p.cfg.Progress == nil {
		return
	}
	p.cfg.Progress <- Event{
		Stage:     stage,
		Message:   message,
		Completed: completed,
		Total:     total,
	}
}

// verbosef prints detail lines in verbose mode.
func (p *Pipeline) verbosef(format string, args ...any) {
	if p.cfg.Verbose {
		fmt.Printf("[VERBOSE] "+format+"\n", args...)
	}
}

// warnf prints a warning; warnings never abort a run.
func (p *Pipeline) warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
