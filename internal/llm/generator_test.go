package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// stubModel implements llms.Model with canned output.
type stubModel struct {
	response *llms.ContentResponse
	err      error
	gotMsgs  []llms.MessageContent
}

func (s *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.gotMsgs = messages
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func TestNewOpenAIGeneratorRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIGenerator(Config{Model: "gpt-4o-mini"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigApplyDefaults(t *testing.T) {
	config := Config{APIKey: "sk-test"}
	config.ApplyDefaults()

	assert.Equal(t, "openai", config.Provider)
	assert.Equal(t, "gpt-4o-mini", config.Model)
	assert.InDelta(t, 0.2, config.Temperature, 0.001)
	assert.Equal(t, 1024, config.MaxTokens)
}

func TestGenerate(t *testing.T) {
	stub := &stubModel{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "The charity funds schools."}},
	}}
	g := &OpenAIGenerator{model: stub, config: Config{Temperature: 0.2, MaxTokens: 100}, logger: zap.NewNop()}

	answer, err := g.Generate(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "The charity funds schools.", answer)

	require.Len(t, stub.gotMsgs, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, stub.gotMsgs[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, stub.gotMsgs[1].Role)
}

func TestGenerateModelError(t *testing.T) {
	stub := &stubModel{err: errors.New("rate limited")}
	g := &OpenAIGenerator{model: stub, config: Config{}, logger: zap.NewNop()}

	_, err := g.Generate(context.Background(), "system", "user")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateEmptyResponse(t *testing.T) {
	stub := &stubModel{response: &llms.ContentResponse{}}
	g := &OpenAIGenerator{model: stub, config: Config{}, logger: zap.NewNop()}

	_, err := g.Generate(context.Background(), "system", "user")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
