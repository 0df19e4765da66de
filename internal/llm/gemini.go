package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiBackend implements Backend for Google Gemini models.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini backend for a specific model. An empty
// API key yields an unconfigured backend rather than an error, so that an
// optional frontier tier can simply be absent.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	if apiKey == "" {
		return &GeminiBackend{model: model}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiBackend{client: client, model: model}, nil
}

// Provider returns the pricing provider identifier.
func (b *GeminiBackend) Provider() string { return "gemini" }

// Model returns the configured model name.
func (b *GeminiBackend) Model() string { return b.model }

// IsConfigured reports whether the backend holds a usable client and model.
func (b *GeminiBackend) IsConfigured() bool {
	return b.client != nil && b.model != ""
}

// Generate issues a single generation call and reports provider token usage.
func (b *GeminiBackend) Generate(ctx context.Context, req Request) (*Response, error) {
	if !b.IsConfigured() {
		return nil, fmt.Errorf("gemini model %q: %w", b.model, ErrNotConfigured)
	}

	model := b.client.GenerativeModel(b.model)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return nil, err
	}

	out := &Response{Content: text}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

// Close releases the underlying client.
func (b *GeminiBackend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
