package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/persona-foundry/internal/cost"
	"github.com/jonathan/persona-foundry/internal/llm"
	"github.com/jonathan/persona-foundry/internal/persona"
	"github.com/jonathan/persona-foundry/internal/pricing"
)

// mockBackend scripts generation responses per call.
type mockBackend struct {
	mu         sync.Mutex
	provider   string
	model      string
	configured bool
	generate   func(call int, req llm.Request) (*llm.Response, error)
	calls      int
	prompts    []string
}

func newMockBackend(generate func(call int, req llm.Request) (*llm.Response, error)) *mockBackend {
	return &mockBackend{
		provider:   "gemini",
		model:      "gemini-2.5-flash-lite",
		configured: true,
		generate:   generate,
	}
}

func (m *mockBackend) Provider() string   { return m.provider }
func (m *mockBackend) Model() string      { return m.model }
func (m *mockBackend) IsConfigured() bool { return m.configured }

func (m *mockBackend) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	m.prompts = append(m.prompts, req.Prompt)
	m.mu.Unlock()
	return m.generate(call, req)
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// draftArrayJSON renders persona objects with the given ids as a response
// body, optionally wrapped in a markdown fence.
func draftArrayJSON(fenced bool, ids ...string) string {
	body := "["
	for i, id := range ids {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"id": %q, "name": "Persona %s", "occupation": "tester"}`, id, id)
	}
	body += "]"
	if fenced {
		return "```json\n" + body + "\n```"
	}
	return body
}

// mockJudge scores personas by ID, with optional per-ID errors.
type mockJudge struct {
	mu     sync.Mutex
	scores map[string]float64
	errs   map[string]error
	usage  llm.Usage
	seen   []string
}

func (j *mockJudge) Evaluate(_ context.Context, p *persona.Persona) (*persona.Evaluation, llm.Usage, error) {
	j.mu.Lock()
	j.seen = append(j.seen, p.ID)
	j.mu.Unlock()

	if err := j.errs[p.ID]; err != nil {
		return nil, j.usage, err
	}
	score, ok := j.scores[p.ID]
	if !ok {
		score = 0.9
	}
	return &persona.Evaluation{
		OverallScore: score,
		Criteria: map[string]persona.CriterionScore{
			"realism": {Score: score, Reasoning: "scripted"},
		},
	}, j.usage, nil
}

// newTestTracker builds a tracker over the default gemini pricing.
func newTestTracker(maxBudget *float64) *cost.Tracker {
	return cost.NewTracker(pricing.Default(), map[cost.Tier]cost.ModelRef{
		cost.TierLocal:    {Provider: "gemini", Model: "gemini-2.5-flash-lite"},
		cost.TierFrontier: {Provider: "gemini", Model: "gemini-2.5-pro"},
		cost.TierJudge:    {Provider: "gemini", Model: "gemini-2.5-flash"},
	}, maxBudget)
}
