// Package llm abstracts completion providers behind a narrow interface so
// the extraction and scoring phases are testable without a real model and
// swappable across vendors.
package llm

import (
	"context"

	"github.com/moatscan/moatscan/internal/model"
)

// Provider defines the interface for LLM completion providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the model's text response
	Complete(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Request is one completion call
type Request struct {
	// System is the system instruction (provider-dependent placement)
	System string

	// Prompt is the user prompt
	Prompt string

	// Model overrides the configured model when non-empty
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling; extraction and scoring run low
	Temperature float64

	// JSONResponse asks the provider for a JSON-typed response where the
	// vendor API supports it; callers must still parse defensively
	JSONResponse bool
}

// Response is the provider's reply with token accounting
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "gemini", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, proxies)
	BaseURL string

	// Timeout per request, seconds
	Timeout int

	// MaxTokens default for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   60,
		MaxTokens: 4096,
	}
}

// ConfigFromModel converts the pipeline's LLM config section
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		MaxTokens: c.MaxTokens,
	}
}
