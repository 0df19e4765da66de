package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/persona-foundry/internal/cost"
	"github.com/jonathan/persona-foundry/internal/llm"
	"github.com/jonathan/persona-foundry/internal/persona"
)

// Result is the immutable outcome of one pipeline run.
type Result struct {
	// Personas is the merged accepted-and-refined set, sorted by identifier
	// for deterministic ordering independent of completion timing.
	Personas []*persona.Persona `json:"personas"`

	DraftedCount int `json:"drafted_count"`
	PassingCount int `json:"passing_count"`
	RefinedCount int `json:"refined_count"`

	Budget   cost.Snapshot  `json:"budget"`
	Elapsed  time.Duration  `json:"elapsed"`
	Metadata map[string]any `json:"metadata"`
}

// Generate runs the full Draft -> QualityGate -> Refine sequence and
// assembles the final report. It blocks until the run completes; internal
// work is concurrent. Only configuration errors and cancellation fail the
// run; budget exhaustion and per-item failures are recorded in the result.
func (p *Pipeline) Generate(ctx context.Context, research string, count int) (*Result, error) {
	start := time.Now()

	if count <= 0 {
		return nil, fmt.Errorf("requested persona count must be positive, got %d", count)
	}
	if p.local == nil || !p.local.IsConfigured() {
		return nil, fmt.Errorf("local backend: %w", llm.ErrNotConfigured)
	}
	if p.judge == nil {
		return nil, fmt.Errorf("judge is required")
	}

	mode := "local-only"
	if p.hybridEnabled() {
		mode = "hybrid"
	}
	p.verbosef("starting %s pipeline for %d personas", mode, count)

	drafted, err := p.runDraftStage(ctx, research, count)
	if err != nil {
		return nil, err
	}

	accepted, needsWork := p.runQualityGate(ctx, drafted)

	var refined []*persona.Persona
	if p.hybridEnabled() && len(needsWork) > 0 {
		refined = p.runRefineStage(ctx, needsWork, research)
	}

	merged := make([]*persona.Persona, 0, len(accepted)+len(refined))
	merged = append(merged, accepted...)
	merged = append(merged, refined...)
	persona.SortByID(merged)

	return &Result{
		Personas:     merged,
		DraftedCount: len(drafted),
		PassingCount: len(accepted),
		RefinedCount: len(refined),
		Budget:       p.tracker.Snapshot(),
		Elapsed:      time.Since(start),
		Metadata: map[string]any{
			"mode":              mode,
			"quality_threshold": p.cfg.QualityThreshold,
			"needs_refinement":  len(needsWork),
			"budget_exceeded":   p.tracker.IsOverBudget(),
		},
	}, nil
}
