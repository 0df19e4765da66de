package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/persona-foundry/internal/cost"
	"github.com/jonathan/persona-foundry/internal/persona"
)

// errBudgetExhausted marks judge calls skipped because the budget ran out
// before the item was reached.
var errBudgetExhausted = fmt.Errorf("budget exhausted before evaluation")

// runQualityGate scores each drafted persona through the judge under bounded
// concurrency and partitions them into accepted and needs-improvement sets,
// preserving draft order. In local-only mode every persona is accepted
// regardless of score, since there is no tier to route rejects to; the
// evaluations are still recorded as annotations. A judge failure marks only
// that persona, never the batch.
func (p *Pipeline) runQualityGate(ctx context.Context, items []*persona.Persona) (accepted, needsWork []*persona.Persona) {
	outcomes, batchErr := ProcessBatches(ctx, items, BatchOptions{
		BatchSize:       p.cfg.BatchSize,
		Concurrency:     p.cfg.Concurrency,
		InterBatchDelay: p.cfg.InterBatchDelay,
		OnProgress: func(completed, total int) {
			p.emit("quality_gate", fmt.Sprintf("evaluated %d/%d personas", completed, total), completed, total)
		},
	}, func(ctx context.Context, _ int, item *persona.Persona) (*persona.Evaluation, error) {
		if p.tracker.IsOverBudget() {
			return nil, errBudgetExhausted
		}
		eval, usage, err := p.judge.Evaluate(ctx, item)
		// Usage incurred before a failure still counts against the budget.
		p.tracker.AddUsage(cost.TierJudge, usage.InputTokens, usage.OutputTokens)
		return eval, err
	})

	hybrid := p.hybridEnabled()

	for i, item := range items {
		outcomeErr := outcomes[i].Err
		if outcomeErr == nil && outcomes[i].Value == nil {
			// The batch loop stopped (cancellation) before this item ran;
			// it must not pass through as evaluated.
			outcomeErr = batchErr
			if outcomeErr == nil {
				outcomeErr = ctx.Err()
			}
			if outcomeErr == nil {
				outcomeErr = fmt.Errorf("persona was never evaluated")
			}
		}
		if outcomeErr != nil {
			item.EvaluationError = outcomeErr.Error()
			p.verbosef("evaluation failed for %s: %v", item.ID, outcomeErr)
			if hybrid {
				needsWork = append(needsWork, item)
			} else {
				accepted = append(accepted, item)
			}
			continue
		}

		item.Evaluation = outcomes[i].Value
		if !hybrid || item.Evaluation.OverallScore >= p.cfg.QualityThreshold {
			accepted = append(accepted, item)
		} else {
			needsWork = append(needsWork, item)
		}
	}
	return accepted, needsWork
}
