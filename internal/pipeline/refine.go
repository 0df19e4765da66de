package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/persona-foundry/internal/cost"
	"github.com/jonathan/persona-foundry/internal/llm"
	"github.com/jonathan/persona-foundry/internal/persona"
	"github.com/jonathan/persona-foundry/internal/prompts"
)

// runRefineStage re-generates needs-improvement personas through the frontier
// backend, seeded with the judge's feedback. The budget is checked before
// every call; once exhausted, the remaining items stay unrefined and are
// dropped from the output. A failed or unparseable refinement drops only
// that persona.
func (p *Pipeline) runRefineStage(ctx context.Context, items []*persona.Persona, research string) []*persona.Persona {
	refined := make([]*persona.Persona, 0, len(items))

	for i, item := range items {
		if p.tracker.IsOverBudget() {
			p.warnf("budget exhausted; leaving %d personas unrefined", len(items)-i)
			break
		}
		if ctx.Err() != nil {
			break
		}

		prompt, err := prompts.Refine(item, research)
		if err != nil {
			p.warnf("could not build refine prompt for %s: %v", item.ID, err)
			continue
		}

		resp, err := p.call(ctx, p.frontier, cost.TierFrontier, prompt, refineTemperature)
		if err != nil {
			p.warnf("refinement failed for %s: %v", item.ID, err)
			continue
		}

		improved := parseRefined(resp.Content, item)
		if improved == nil {
			p.warnf("refinement for %s returned no usable persona", item.ID)
			continue
		}

		refined = append(refined, improved)
		p.emit("refine", fmt.Sprintf("refined %s", item.ID), len(refined), len(items))
	}

	return refined
}

// parseRefined decodes a refined persona, keeping the original identifier and
// evaluation annotation so downstream ordering and reporting stay stable.
func parseRefined(content string, original *persona.Persona) *persona.Persona {
	payload := llm.ExtractJSONPayload(content)

	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil
	}

	improved := persona.FromObject(obj, 0, 0)
	improved.ID = original.ID
	if name, ok := obj["name"].(string); !ok || name == "" {
		improved.Name = original.Name
	}
	improved.Evaluation = original.Evaluation
	improved.Refined = true
	return improved
}
