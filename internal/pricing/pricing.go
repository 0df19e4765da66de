// Package pricing provides the read-only (provider, model) price table used
// to convert token counters into USD cost.
package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry holds the USD price per million tokens for one (provider, model) pair.
type Entry struct {
	InputPerMTok  float64 `yaml:"input_per_mtok" json:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok" json:"output_per_mtok"`
}

// Cost computes the USD cost for the given token counts.
func (e Entry) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1_000_000*e.InputPerMTok +
		float64(outputTokens)/1_000_000*e.OutputPerMTok
}

// freeProviders are local runtimes that never bill per token.
var freeProviders = map[string]bool{
	"ollama": true,
	"local":  true,
}

// Table is an immutable lookup of model prices.
type Table struct {
	entries map[string]Entry
}

func key(provider, model string) string {
	return provider + "/" + model
}

// Default returns the built-in price table for the providers the pipeline
// ships with.
func Default() *Table {
	return &Table{entries: map[string]Entry{
		key("gemini", "gemini-2.5-flash-lite"): {InputPerMTok: 0.10, OutputPerMTok: 0.40},
		key("gemini", "gemini-2.5-flash"):      {InputPerMTok: 0.30, OutputPerMTok: 2.50},
		key("gemini", "gemini-2.5-pro"):        {InputPerMTok: 1.25, OutputPerMTok: 10.00},
	}}
}

// LoadFile reads price overrides from a YAML file shaped as
// provider -> model -> {input_per_mtok, output_per_mtok} and merges them over
// the built-in defaults.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file %s: %w", path, err)
	}

	var raw map[string]map[string]Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file %s: %w", path, err)
	}

	table := Default()
	for provider, models := range raw {
		for model, entry := range models {
			table.entries[key(provider, model)] = entry
		}
	}
	return table, nil
}

// Lookup returns the price entry for a (provider, model) pair. Free local
// runtimes resolve to a zero entry; the second return value reports whether
// the pair was recognized at all.
func (t *Table) Lookup(provider, model string) (Entry, bool) {
	if freeProviders[provider] {
		return Entry{}, true
	}
	entry, ok := t.entries[key(provider, model)]
	return entry, ok
}

// Entries returns a copy of the table keyed by "provider/model", for display.
func (t *Table) Entries() map[string]Entry {
	out := make(map[string]Entry, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}
