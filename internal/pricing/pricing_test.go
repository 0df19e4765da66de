package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryCost(t *testing.T) {
	entry := Entry{InputPerMTok: 0.30, OutputPerMTok: 2.50}

	assert.InDelta(t, 0.30, entry.Cost(1_000_000, 0), 1e-9)
	assert.InDelta(t, 2.50, entry.Cost(0, 1_000_000), 1e-9)
	assert.InDelta(t, 0.0, entry.Cost(0, 0), 1e-9)
	assert.InDelta(t, 0.0003+0.0025, entry.Cost(1000, 1000), 1e-9)
}

func TestDefaultTableLookup(t *testing.T) {
	table := Default()

	entry, ok := table.Lookup("gemini", "gemini-2.5-flash")
	require.True(t, ok)
	assert.Greater(t, entry.InputPerMTok, 0.0)

	_, ok = table.Lookup("gemini", "some-unknown-model")
	assert.False(t, ok)
}

func TestFreeProvidersResolveToZero(t *testing.T) {
	table := Default()

	entry, ok := table.Lookup("ollama", "llama3.1:8b")
	require.True(t, ok)
	assert.Zero(t, entry.Cost(1_000_000, 1_000_000))
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	content := `
gemini:
  gemini-2.5-flash:
    input_per_mtok: 0.99
    output_per_mtok: 1.99
openai:
  gpt-4o:
    input_per_mtok: 2.50
    output_per_mtok: 10.00
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadFile(path)
	require.NoError(t, err)

	// Override applied
	entry, ok := table.Lookup("gemini", "gemini-2.5-flash")
	require.True(t, ok)
	assert.InDelta(t, 0.99, entry.InputPerMTok, 1e-9)

	// New provider added
	entry, ok = table.Lookup("openai", "gpt-4o")
	require.True(t, ok)
	assert.InDelta(t, 10.00, entry.OutputPerMTok, 1e-9)

	// Defaults preserved
	_, ok = table.Lookup("gemini", "gemini-2.5-pro")
	assert.True(t, ok)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
