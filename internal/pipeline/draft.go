package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/persona-foundry/internal/cost"
	"github.com/jonathan/persona-foundry/internal/llm"
	"github.com/jonathan/persona-foundry/internal/persona"
	"github.com/jonathan/persona-foundry/internal/prompts"
)

// runDraftStage generates candidate personas from the local backend in
// batches until the requested count is reached or the budget is exhausted.
// Coming back with fewer personas than requested is a normal outcome, not an
// error; only configuration failures and cancellation abort the stage.
func (p *Pipeline) runDraftStage(ctx context.Context, research string, count int) ([]*persona.Persona, error) {
	drafted := make([]*persona.Persona, 0, count)
	barren := 0

	for batchIndex := 0; len(drafted) < count; batchIndex++ {
		if p.tracker.IsOverBudget() {
			p.verbosef("draft stage stopping: budget exhausted after %d personas", len(drafted))
			break
		}

		batchCount := min(p.cfg.BatchSize, count-len(drafted))
		prompt := prompts.Draft(research, batchCount, len(drafted))

		resp, err := p.call(ctx, p.local, cost.TierLocal, prompt, draftTemperature)
		switch {
		case errors.Is(err, llm.ErrNotConfigured):
			// The stage must never silently return zero drafts because the
			// backend is absent.
			return nil, fmt.Errorf("local backend: %w", err)
		case ctx.Err() != nil:
			return drafted, ctx.Err()
		case err != nil:
			p.warnf("draft batch %d failed after retries: %v", batchIndex, err)
			barren++
		default:
			items := parseDraftBatch(resp.Content, batchIndex)
			if len(items) == 0 {
				p.warnf("draft batch %d produced no usable personas", batchIndex)
				barren++
			} else {
				barren = 0
				for _, item := range items {
					if len(drafted) < count {
						drafted = append(drafted, item)
					}
				}
			}
		}

		p.emit("draft", fmt.Sprintf("drafted %d/%d personas", len(drafted), count), len(drafted), count)

		if barren >= maxBarrenBatches {
			p.warnf("draft stage stopping after %d consecutive empty batches", barren)
			break
		}
		if p.cfg.InterBatchDelay > 0 && len(drafted) < count {
			if err := sleepCtx(ctx, p.cfg.InterBatchDelay); err != nil {
				return drafted, err
			}
		}
	}

	return drafted, nil
}

// parseDraftBatch decodes a batch response leniently: markdown fences and
// surrounding prose are stripped, non-object array entries are discarded,
// and missing id/name fields are synthesized from the batch index and
// position. A malformed response yields zero items rather than an error.
func parseDraftBatch(content string, batchIndex int) []*persona.Persona {
	payload := llm.ExtractJSONPayload(content)

	var entries []any
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		// Some models return a single object instead of a one-element array.
		var single map[string]any
		if err := json.Unmarshal([]byte(payload), &single); err != nil {
			return nil
		}
		entries = []any{single}
	}

	personas := make([]*persona.Persona, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		personas = append(personas, persona.FromObject(obj, batchIndex, len(personas)))
	}
	return personas
}
