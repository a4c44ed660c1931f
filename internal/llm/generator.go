// Package llm provides answer generation backed by a chat model.
package llm

import (
	"context"
	"errors"
)

// Sentinel errors for generation.
var (
	// ErrInvalidConfig indicates invalid generator configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrGenerationFailed indicates the model call failed.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrEmptyResponse indicates the model returned no choices.
	ErrEmptyResponse = errors.New("model returned empty response")
)

// Generator produces an answer from a system and user prompt.
type Generator interface {
	// Generate returns the model's answer for the given prompts.
	Generate(ctx context.Context, system, user string) (string, error)

	// Close releases any resources held by the generator.
	Close() error
}

// Config holds generation parameters.
type Config struct {
	// Provider selects the backend. Currently only "openai".
	Provider string

	// Model is the chat model name. Default: "gpt-4o-mini".
	Model string

	// APIKey authenticates against the provider. Required.
	APIKey string

	// BaseURL overrides the provider endpoint, for OpenAI-compatible
	// servers.
	BaseURL string

	// Temperature controls sampling randomness. Default: 0.2.
	Temperature float64

	// MaxTokens caps the answer length. Default: 1024.
	MaxTokens int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
}
