// Package llm provides text-generation backend abstractions and the Gemini
// implementation used by the persona pipeline.
package llm

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrNotConfigured is returned by a backend that has no usable credentials or
// model. Callers treat it as a fatal configuration error, never retried.
var ErrNotConfigured = errors.New("backend is not configured")

// Usage reports token consumption for a single backend call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates another usage record into this one.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Request describes a single generation call.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Response is the result of a generation call, including the token usage the
// provider reported for it.
type Response struct {
	Content string
	Usage   Usage
}

// Backend is an abstraction over text-generation providers. The pipeline uses
// one backend per tier role (local draft generation, frontier refinement,
// judging).
type Backend interface {
	// Provider returns the provider identifier used for pricing lookups.
	Provider() string
	// Model returns the model identifier used for pricing lookups.
	Model() string
	// IsConfigured reports whether the backend can issue calls.
	IsConfigured() bool
	// Generate issues a single generation call.
	Generate(ctx context.Context, req Request) (*Response, error)
}

// IsTransient reports whether an error is a transient network or provider
// failure worth retrying: timeouts, connection resets, rate limiting, 5xx.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, fragment := range []string{
		"connection reset",
		"connection refused",
		"broken pipe",
		"unexpected EOF",
		"deadline exceeded",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
