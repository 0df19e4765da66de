// Package persona provides type definitions for synthesized personas and their
// quality evaluations, shared across the generation pipeline.
package persona

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Persona is a single synthesized persona candidate. The draft stage creates
// it, the quality gate annotates Evaluation (or EvaluationError), and the
// refine stage may replace its attributes and set Refined.
type Persona struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes,omitempty"`

	Evaluation      *Evaluation `json:"evaluation,omitempty"`
	Refined         bool        `json:"refined,omitempty"`
	EvaluationError string      `json:"evaluation_error,omitempty"`
}

// CriterionScore is a single judging criterion result.
type CriterionScore struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// Evaluation is the judge's verdict for one persona. OverallScore is in [0,1].
type Evaluation struct {
	OverallScore float64                   `json:"overall_score"`
	Criteria     map[string]CriterionScore `json:"criteria,omitempty"`
}

// FromObject builds a Persona from a decoded JSON object. The "id" and "name"
// keys are lifted into the struct fields; everything else stays in Attributes.
// Missing id/name are synthesized from the batch index and position so that
// every persona has a stable, sortable identifier.
func FromObject(obj map[string]any, batchIndex, position int) *Persona {
	p := &Persona{Attributes: make(map[string]any)}

	for k, v := range obj {
		switch k {
		case "id":
			if s, ok := v.(string); ok && s != "" {
				p.ID = s
				continue
			}
		case "name":
			if s, ok := v.(string); ok && s != "" {
				p.Name = s
				continue
			}
		}
		p.Attributes[k] = v
	}

	if p.ID == "" {
		p.ID = fmt.Sprintf("persona-%03d-%02d", batchIndex, position)
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("Persona %d", position+1)
	}
	return p
}

// MarshalAttributes renders the persona's identity and attributes as indented
// JSON for inclusion in judge and refine prompts.
func (p *Persona) MarshalAttributes() (string, error) {
	doc := make(map[string]any, len(p.Attributes)+2)
	for k, v := range p.Attributes {
		doc[k] = v
	}
	doc["id"] = p.ID
	doc["name"] = p.Name

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal persona %s: %w", p.ID, err)
	}
	return string(data), nil
}

// SortByID orders personas by identifier for deterministic output regardless
// of the completion order of concurrent stage work.
func SortByID(personas []*Persona) {
	sort.Slice(personas, func(i, j int) bool {
		return personas[i].ID < personas[j].ID
	})
}
