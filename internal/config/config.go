// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Input
	Research string `json:"research,omitempty"` // Path to research data (.json/.yaml/.md/.txt/.html)
	Count    int    `json:"count,omitempty" validate:"omitempty,gt=0"`

	// Models
	Provider      string `json:"provider,omitempty"`       // LLM provider (currently gemini)
	LocalModel    string `json:"local_model,omitempty"`    // Cheap draft model
	FrontierModel string `json:"frontier_model,omitempty"` // Expensive refinement model (enables hybrid)
	JudgeModel    string `json:"judge_model,omitempty"`    // Quality scoring model

	// Pipeline tuning
	BatchSize   int `json:"batch_size,omitempty" validate:"omitempty,gt=0"`
	Concurrency int `json:"concurrency,omitempty" validate:"omitempty,gt=0"`
	// QualityThreshold is a pointer so an explicit 0 survives the defaults
	// merge; nil means unset.
	QualityThreshold *float64 `json:"quality_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxBudget        float64  `json:"max_budget,omitempty" validate:"gte=0"` // USD; 0 means unbounded
	Hybrid           bool     `json:"hybrid,omitempty"`

	// Integration
	PricingFile string `json:"pricing_file,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL for audit records
	WebhookURL  string `json:"webhook_url,omitempty" validate:"omitempty,url"`
	Output      string `json:"output,omitempty"` // Path for the generated personas JSON

	// Behavior
	APIKey  string `json:"api_key,omitempty"` // Gemini API key
	Verbose bool   `json:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// MergeWithDefaults returns a copy of the config with zero-valued fields
// replaced by the corresponding defaults. Booleans are left alone; false is
// indistinguishable from unset.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.LocalModel == "" {
		result.LocalModel = defaults.LocalModel
	}
	if result.FrontierModel == "" {
		result.FrontierModel = defaults.FrontierModel
	}
	if result.JudgeModel == "" {
		result.JudgeModel = defaults.JudgeModel
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}

	// Numeric fields: use default if zero
	if result.Count == 0 {
		result.Count = defaults.Count
	}
	if result.BatchSize == 0 {
		result.BatchSize = defaults.BatchSize
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.QualityThreshold == nil {
		result.QualityThreshold = defaults.QualityThreshold
	}

	return result
}

// Validate checks the configuration values. Required fields are not checked
// here; they are enforced by CLI flag validation after merging.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Hybrid && c.FrontierModel == "" {
		return fmt.Errorf("config error: 'hybrid' requires 'frontier_model'")
	}
	return nil
}
