// Package prompts builds the generation and refinement prompts sent to the
// text backends. The fixed template text lives in embedded JSON files; only
// the dynamic parts are assembled in code.
package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/persona-foundry/internal/persona"
)

const generationFile = "generation.json"

// Draft builds the prompt asking the local backend for a batch of candidate
// personas grounded in the research corpus. startIndex numbers the batch so
// that identifiers stay unique across batches.
func Draft(research string, count, startIndex int) string {
	return Format(MustGet(generationFile, "draft"), map[string]string{
		"Count":    strconv.Itoa(count),
		"Start":    fmt.Sprintf("%03d", startIndex),
		"Research": research,
	})
}

// Refine builds the prompt asking the frontier backend to improve a persona
// that failed the quality gate, seeded with the judge's per-criterion
// feedback.
func Refine(p *persona.Persona, research string) (string, error) {
	doc, err := p.MarshalAttributes()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(Format(MustGet(generationFile, "refine-header"), map[string]string{
		"Persona": doc,
	}))

	if p.Evaluation != nil && len(p.Evaluation.Criteria) > 0 {
		sb.WriteString("Judge feedback to address:\n")
		for criterion, score := range p.Evaluation.Criteria {
			sb.WriteString(fmt.Sprintf("- %s (%.2f): %s\n", criterion, score.Score, score.Reasoning))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(Format(MustGet(generationFile, "refine-footer"), map[string]string{
		"ID":       p.ID,
		"Research": research,
	}))

	return sb.String(), nil
}
