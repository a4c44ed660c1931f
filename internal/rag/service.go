// Package rag orchestrates the question answering pipeline: retrieval,
// context assembly, prompt formatting, and generation.
package rag

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/charityd/internal/contextbuilder"
	"github.com/fyrsmithlabs/charityd/internal/llm"
	"github.com/fyrsmithlabs/charityd/internal/prompts"
	"github.com/fyrsmithlabs/charityd/internal/retriever"
	"github.com/fyrsmithlabs/charityd/internal/session"
)

var tracer = otel.Tracer("charityd.rag")

// sourcePreviewLength truncates source text in responses.
const sourcePreviewLength = 200

// Config holds orchestration parameters.
type Config struct {
	// MaxContextTokens is the token budget for the assembled context.
	// Default: 2000.
	MaxContextTokens int

	// IncludeSources annotates context chunks with their charity name.
	IncludeSources bool
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxContextTokens == 0 {
		c.MaxContextTokens = 2000
	}
}

// Request is a question about a charity.
type Request struct {
	// Query is the user's question.
	Query string `json:"query"`

	// CharityName selects the charity collection. Empty targets the
	// default collection.
	CharityName string `json:"charity_name,omitempty"`

	// TopK overrides the configured result count when positive.
	TopK int `json:"top_k,omitempty"`

	// SessionID threads the conversation; empty skips history recording.
	SessionID string `json:"session_id,omitempty"`
}

// Source describes one retrieved chunk backing an answer.
type Source struct {
	// Text is a truncated preview of the chunk.
	Text string `json:"text"`

	// Similarity is the chunk's relevance score.
	Similarity float32 `json:"similarity"`
}

// Response is a structured answer.
type Response struct {
	// Answer is the generated or fallback answer text.
	Answer string `json:"answer"`

	// Sources lists the chunks the answer is grounded in. Empty when the
	// fallback fired.
	Sources []Source `json:"sources,omitempty"`

	// ChunkCount is the number of retrieved chunks used.
	ChunkCount int `json:"chunk_count"`

	// Grounded is false when no relevant context was found and the
	// fallback template answered.
	Grounded bool `json:"grounded"`

	// DurationMS is the end-to-end processing time in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}

// Service answers questions about indexed charities.
type Service struct {
	config    Config
	retriever *retriever.Retriever
	generator llm.Generator
	sessions  session.Store
	logger    *zap.Logger
}

// New creates a Service. The session store may be nil to disable history.
func New(config Config, r *retriever.Retriever, generator llm.Generator, sessions session.Store, logger *zap.Logger) (*Service, error) {
	if r == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	return &Service{
		config:    config,
		retriever: r,
		generator: generator,
		sessions:  sessions,
		logger:    logger,
	}, nil
}

// Query answers a question about a charity. Retrieval failures degrade to
// the fallback answer; only generation failures surface as errors.
func (s *Service) Query(ctx context.Context, req Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "Service.Query")
	defer span.End()

	start := time.Now()

	span.SetAttributes(
		attribute.String("charity", req.CharityName),
		attribute.Int("top_k", req.TopK),
	)

	results := s.retriever.Retrieve(ctx, req.Query, req.CharityName, req.TopK)

	contextBlock := contextbuilder.Build(results, s.config.MaxContextTokens, s.config.IncludeSources)

	var (
		answer   string
		grounded bool
		err      error
	)
	if contextBlock == contextbuilder.NoRelevantInformation {
		answer = prompts.FormatFallback(req.Query, req.CharityName)
	} else {
		grounded = true
		system, user := prompts.FormatRAGPrompt(req.Query, contextBlock, req.CharityName)
		answer, err = s.generator.Generate(ctx, system, user)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("generating answer: %w", err)
		}
	}

	s.recordTurn(req.SessionID, req.Query, answer)

	resp := &Response{
		Answer:     answer,
		ChunkCount: len(results),
		Grounded:   grounded,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if grounded {
		resp.Sources = make([]Source, len(results))
		for i, r := range results {
			resp.Sources[i] = Source{
				Text:       truncate(r.Text, sourcePreviewLength),
				Similarity: r.Similarity,
			}
		}
	}

	span.SetAttributes(
		attribute.Int("chunk_count", resp.ChunkCount),
		attribute.Bool("grounded", grounded),
	)
	span.SetStatus(codes.Ok, "success")

	s.logger.Info("query answered",
		zap.String("charity", req.CharityName),
		zap.Int("chunks", resp.ChunkCount),
		zap.Bool("grounded", grounded),
		zap.Int64("duration_ms", resp.DurationMS),
	)

	return resp, nil
}

// recordTurn appends the question and answer to the session history.
func (s *Service) recordTurn(sessionID, query, answer string) {
	if s.sessions == nil || sessionID == "" {
		return
	}
	if err := s.sessions.Append(sessionID, session.Message{Role: "user", Content: query}); err != nil {
		s.logger.Warn("recording user turn failed", zap.Error(err))
	}
	if err := s.sessions.Append(sessionID, session.Message{Role: "assistant", Content: answer}); err != nil {
		s.logger.Warn("recording assistant turn failed", zap.Error(err))
	}
}

// truncate shortens text to max runes with an ellipsis.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
