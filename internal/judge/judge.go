// Package judge scores persona candidates on a 0-1 scale with per-criterion
// reasoning, using a text backend as the evaluator.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/persona-foundry/internal/llm"
	"github.com/jonathan/persona-foundry/internal/persona"
	"github.com/jonathan/persona-foundry/internal/prompts"
	"github.com/jonathan/persona-foundry/internal/retry"
)

// Judge evaluates a persona candidate. Token usage is reported even when the
// evaluation itself fails, so spend incurred before the failure is never lost.
type Judge interface {
	Evaluate(ctx context.Context, p *persona.Persona) (*persona.Evaluation, llm.Usage, error)
}

// DefaultCriteria are the dimensions the LLM judge scores.
var DefaultCriteria = []string{"realism", "coherence", "specificity", "relevance"}

// LLMJudge implements Judge by prompting a backend for structured scores.
type LLMJudge struct {
	backend  llm.Backend
	research string
	criteria []string
	retry    retry.Options
}

// NewLLMJudge creates a judge backed by the given backend. The research
// corpus grounds the relevance criterion.
func NewLLMJudge(backend llm.Backend, research string) *LLMJudge {
	return &LLMJudge{
		backend:  backend,
		research: research,
		criteria: DefaultCriteria,
		retry:    retry.DefaultOptions(llm.IsTransient),
	}
}

// judgeVerdict is the wire shape the judge prompt asks for.
type judgeVerdict struct {
	OverallScore float64 `json:"overall_score"`
	Criteria     map[string]struct {
		Score     float64 `json:"score"`
		Reasoning string  `json:"reasoning"`
	} `json:"criteria"`
}

// Evaluate scores one persona. The returned usage covers all backend calls
// made, including failed attempts that still consumed tokens.
func (j *LLMJudge) Evaluate(ctx context.Context, p *persona.Persona) (*persona.Evaluation, llm.Usage, error) {
	var usage llm.Usage

	doc, err := p.MarshalAttributes()
	if err != nil {
		return nil, usage, err
	}

	resp, err := retry.DoValue(ctx, j.retry, func(ctx context.Context) (*llm.Response, error) {
		r, callErr := j.backend.Generate(ctx, llm.Request{
			Prompt:      j.buildPrompt(doc),
			Temperature: 0.0,
		})
		if r != nil {
			usage.Add(r.Usage)
		}
		return r, callErr
	})
	if err != nil {
		return nil, usage, fmt.Errorf("judge call failed for %s: %w", p.ID, err)
	}

	eval, err := parseVerdict(resp.Content)
	if err != nil {
		return nil, usage, fmt.Errorf("judge returned unparseable verdict for %s: %w", p.ID, err)
	}
	return eval, usage, nil
}

// buildPrompt asks for one score per criterion plus an overall score.
func (j *LLMJudge) buildPrompt(personaDoc string) string {
	var sb strings.Builder

	sb.WriteString(prompts.MustGet("generation.json", "judge-header"))

	sb.WriteString("Return ONLY valid JSON with this exact structure:\n{\n")
	sb.WriteString("  \"overall_score\": number, // 0.0-1.0\n")
	sb.WriteString("  \"criteria\": {\n")
	for i, criterion := range j.criteria {
		sb.WriteString(fmt.Sprintf("    %q: {\"score\": number, \"reasoning\": string}", criterion))
		if i < len(j.criteria)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  }\n}\n\n")

	sb.WriteString("Persona:\n")
	sb.WriteString(personaDoc)
	sb.WriteString("\n\nResearch data:\n\"\"\"\n")
	sb.WriteString(j.research)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// parseVerdict decodes the judge response leniently and clamps scores to [0,1].
func parseVerdict(content string) (*persona.Evaluation, error) {
	payload := llm.ExtractJSONPayload(content)

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return nil, err
	}

	eval := &persona.Evaluation{
		OverallScore: clamp01(verdict.OverallScore),
		Criteria:     make(map[string]persona.CriterionScore, len(verdict.Criteria)),
	}
	for name, c := range verdict.Criteria {
		eval.Criteria[name] = persona.CriterionScore{
			Score:     clamp01(c.Score),
			Reasoning: c.Reasoning,
		}
	}
	return eval, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
