package schemas

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

// TestPersonaSchemaIsWellFormed guards against the schema file drifting into
// something gojsonschema cannot compile.
func TestPersonaSchemaIsWellFormed(t *testing.T) {
	data, err := os.ReadFile("persona.schema.json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "array", doc["type"])

	_, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	require.NoError(t, err)
}

func TestPersonaSchemaAcceptsTypicalOutput(t *testing.T) {
	data, err := os.ReadFile("persona.schema.json")
	require.NoError(t, err)

	document := `[
		{
			"id": "persona-000-00",
			"name": "Dana Whitfield",
			"attributes": {"occupation": "ICU nurse", "goals": ["less paperwork"]},
			"refined": true,
			"evaluation": {
				"overall_score": 0.82,
				"criteria": {"realism": {"score": 0.9, "reasoning": "grounded in interviews"}}
			}
		}
	]`

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(data),
		gojsonschema.NewStringLoader(document),
	)
	require.NoError(t, err)
	assert.True(t, result.Valid(), "errors: %v", result.Errors())
}

func TestPersonaSchemaRejectsMissingName(t *testing.T) {
	data, err := os.ReadFile("persona.schema.json")
	require.NoError(t, err)

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(data),
		gojsonschema.NewStringLoader(`[{"id": "p-1"}]`),
	)
	require.NoError(t, err)
	assert.False(t, result.Valid())
}
