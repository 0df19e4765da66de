package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromObjectLiftsIDAndName(t *testing.T) {
	p := FromObject(map[string]any{
		"id":         "persona-007",
		"name":       "Maya Chen",
		"occupation": "nurse",
		"age":        float64(34),
	}, 2, 3)

	assert.Equal(t, "persona-007", p.ID)
	assert.Equal(t, "Maya Chen", p.Name)
	assert.Equal(t, "nurse", p.Attributes["occupation"])
	assert.NotContains(t, p.Attributes, "id")
	assert.NotContains(t, p.Attributes, "name")
}

func TestFromObjectSynthesizesMissingIdentity(t *testing.T) {
	p := FromObject(map[string]any{"occupation": "nurse"}, 2, 3)

	assert.Equal(t, "persona-002-03", p.ID)
	assert.Equal(t, "Persona 4", p.Name)
}

func TestFromObjectKeepsNonStringIDInAttributes(t *testing.T) {
	p := FromObject(map[string]any{"id": float64(7), "name": ""}, 0, 0)

	// Unusable id/name values stay in attributes and identity is synthesized.
	assert.Equal(t, "persona-000-00", p.ID)
	assert.Equal(t, "Persona 1", p.Name)
	assert.Equal(t, float64(7), p.Attributes["id"])
}

func TestMarshalAttributesIncludesIdentity(t *testing.T) {
	p := FromObject(map[string]any{"occupation": "nurse"}, 0, 0)

	doc, err := p.MarshalAttributes()
	require.NoError(t, err)
	assert.Contains(t, doc, `"id": "persona-000-00"`)
	assert.Contains(t, doc, `"occupation": "nurse"`)
}

func TestSortByID(t *testing.T) {
	personas := []*Persona{
		{ID: "persona-001-02"},
		{ID: "persona-000-01"},
		{ID: "persona-001-00"},
	}

	SortByID(personas)

	assert.Equal(t, "persona-000-01", personas[0].ID)
	assert.Equal(t, "persona-001-00", personas[1].ID)
	assert.Equal(t, "persona-001-02", personas[2].ID)
}
