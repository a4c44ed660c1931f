package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// OpenAIGenerator generates answers via the OpenAI chat completions API
// (or any compatible endpoint) using langchaingo.
type OpenAIGenerator struct {
	model  llms.Model
	config Config
	logger *zap.Logger
}

// NewOpenAIGenerator creates a generator backed by OpenAI.
// A missing API key is a configuration error: unlike retrieval, generation
// has no degraded mode to fall back to.
func NewOpenAIGenerator(config Config, logger *zap.Logger) (*OpenAIGenerator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}

	opts := []openai.Option{
		openai.WithModel(config.Model),
		openai.WithToken(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	logger.Info("openai generator initialized",
		zap.String("model", config.Model),
		zap.Float64("temperature", config.Temperature),
		zap.Int("max_tokens", config.MaxTokens),
	)

	return &OpenAIGenerator{
		model:  model,
		config: config,
		logger: logger,
	}, nil
}

// Generate returns the model's answer for the given prompts.
func (g *OpenAIGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := g.model.GenerateContent(ctx, messages,
		llms.WithTemperature(g.config.Temperature),
		llms.WithMaxTokens(g.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Content, nil
}

// Close releases resources. The underlying client holds none.
func (g *OpenAIGenerator) Close() error {
	return nil
}
