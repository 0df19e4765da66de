package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsTemplate(t *testing.T) {
	tmpl, err := Get("generation.json", "draft")
	require.NoError(t, err)
	assert.Contains(t, tmpl, "user personas")
	assert.Contains(t, tmpl, "{{.Count}}")
}

func TestGetUnknownFile(t *testing.T) {
	_, err := Get("nonexistent.json", "draft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no template file")
}

func TestGetUnknownKey(t *testing.T) {
	_, err := Get("generation.json", "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGetPanicsOnMissingTemplate(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("nonexistent.json", "draft")
	})
	assert.NotPanics(t, func() {
		assert.NotEmpty(t, MustGet("generation.json", "judge-header"))
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{
			"substitutes placeholders",
			"Synthesize {{.Count}} personas for {{.Audience}}",
			map[string]string{"Count": "5", "Audience": "commuters"},
			"Synthesize 5 personas for commuters",
		},
		{
			"no placeholders",
			"No placeholders here",
			map[string]string{"Key": "Value"},
			"No placeholders here",
		},
		{
			"unmatched placeholder stays",
			"Hello {{.Name}}",
			map[string]string{},
			"Hello {{.Name}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, tt.data))
		})
	}
}

func TestGetCachesParsedFile(t *testing.T) {
	first, err := Get("generation.json", "draft")
	require.NoError(t, err)

	second, err := Get("generation.json", "draft")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
