package judge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-foundry/internal/llm"
	"github.com/jonathan/persona-foundry/internal/persona"
)

// fakeBackend returns canned responses in order.
type fakeBackend struct {
	responses []*llm.Response
	errs      []error
	calls     int
}

func (f *fakeBackend) Provider() string   { return "gemini" }
func (f *fakeBackend) Model() string      { return "fake-judge" }
func (f *fakeBackend) IsConfigured() bool { return true }

func (f *fakeBackend) Generate(_ context.Context, _ llm.Request) (*llm.Response, error) {
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], f.errs[i]
}

func testPersona() *persona.Persona {
	return &persona.Persona{
		ID:   "p-1",
		Name: "Sam",
		Attributes: map[string]any{
			"occupation": "teacher",
		},
	}
}

func TestEvaluateParsesVerdictAndUsage(t *testing.T) {
	backend := &fakeBackend{
		responses: []*llm.Response{{
			Content: "```json\n{\"overall_score\": 0.82, \"criteria\": {\"realism\": {\"score\": 0.9, \"reasoning\": \"plausible\"}}}\n```",
			Usage:   llm.Usage{InputTokens: 120, OutputTokens: 40},
		}},
		errs: []error{nil},
	}
	j := NewLLMJudge(backend, "research corpus")

	eval, usage, err := j.Evaluate(context.Background(), testPersona())
	require.NoError(t, err)
	assert.InDelta(t, 0.82, eval.OverallScore, 1e-9)
	assert.Equal(t, "plausible", eval.Criteria["realism"].Reasoning)
	assert.Equal(t, 120, usage.InputTokens)
	assert.Equal(t, 40, usage.OutputTokens)
}

func TestEvaluateClampsScores(t *testing.T) {
	backend := &fakeBackend{
		responses: []*llm.Response{{
			Content: `{"overall_score": 1.7, "criteria": {"realism": {"score": -0.2, "reasoning": ""}}}`,
		}},
		errs: []error{nil},
	}
	j := NewLLMJudge(backend, "")

	eval, _, err := j.Evaluate(context.Background(), testPersona())
	require.NoError(t, err)
	assert.Equal(t, 1.0, eval.OverallScore)
	assert.Equal(t, 0.0, eval.Criteria["realism"].Score)
}

func TestEvaluateReportsUsageOnParseFailure(t *testing.T) {
	backend := &fakeBackend{
		responses: []*llm.Response{{
			Content: "I am not able to produce a score right now.",
			Usage:   llm.Usage{InputTokens: 80, OutputTokens: 12},
		}},
		errs: []error{nil},
	}
	j := NewLLMJudge(backend, "")

	eval, usage, err := j.Evaluate(context.Background(), testPersona())
	assert.Error(t, err)
	assert.Nil(t, eval)
	assert.Equal(t, 80, usage.InputTokens, "usage incurred before the failure must be reported")
}

func TestEvaluateDoesNotRetryNonTransientErrors(t *testing.T) {
	backend := &fakeBackend{
		responses: []*llm.Response{nil},
		errs:      []error{errors.New("invalid request")},
	}
	j := NewLLMJudge(backend, "")

	_, _, err := j.Evaluate(context.Background(), testPersona())
	assert.Error(t, err)
	assert.Equal(t, 1, backend.calls)
}
