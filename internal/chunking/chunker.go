// Package chunking splits documents into retrievable chunks.
//
// Three strategies are supported: fixed-size word windows with overlap,
// paragraph accumulation, and sentence-based semantic accumulation. All
// strategies measure size with the tokens estimator so chunk budgets are
// comparable across strategies and with the context builder.
package chunking

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/charityd/internal/tokens"
)

// Chunk is a contiguous span of document text, the atomic retrievable unit.
type Chunk struct {
	// ID is a sequential, strategy-relative identifier ("chunk_0", ...).
	// IDs are stable within one chunking run only.
	ID string

	// Text is the chunk content. Never empty for emitted chunks.
	Text string

	// TokenCount is the estimated token count of Text.
	TokenCount int

	// Metadata carries document-level metadata (charity_name at minimum
	// once the chunk flows through the indexing pipeline).
	Metadata map[string]any

	// Embedding is attached after embedding; nil before.
	Embedding []float32
}

// Stats summarizes a chunking run.
type Stats struct {
	TotalChunks int     `json:"total_chunks"`
	AvgTokens   float64 `json:"avg_tokens"`
	MinTokens   int     `json:"min_tokens"`
	MaxTokens   int     `json:"max_tokens"`
	TotalTokens int     `json:"total_tokens"`
}

// Chunker splits documents into chunks under a configured strategy.
//
// Chunk is a pure function of its input: the chunker keeps no state across
// calls and never returns an error for well-formed string input.
type Chunker struct {
	config Config
	logger *zap.Logger
}

// NewChunker creates a Chunker with the given configuration.
func NewChunker(config Config, logger *zap.Logger) (*Chunker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &Chunker{config: config, logger: logger}, nil
}

// Config returns the chunker's configuration.
func (c *Chunker) Config() Config {
	return c.config
}

// Chunk splits text into chunks using the configured strategy.
//
// Empty input yields no chunks. Metadata is attached to every chunk as-is.
func (c *Chunker) Chunk(text string, metadata map[string]any) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []Chunk
	switch c.config.Strategy {
	case StrategyFixed:
		chunks = c.chunkFixed(text, metadata)
	case StrategyParagraph:
		chunks = c.chunkParagraph(text, metadata)
	case StrategySemantic:
		chunks = c.chunkSemantic(text, metadata)
	}

	c.logger.Debug("chunked document",
		zap.String("strategy", string(c.config.Strategy)),
		zap.Int("chunks", len(chunks)),
	)

	return chunks
}

// chunkFixed slides a window of chunk_size*0.75 words with overlap*0.75
// words of overlap. The window always advances by at least one word, so
// chunking terminates for any finite input. Windows whose token estimate
// is below MinChunkSize are dropped.
func (c *Chunker) chunkFixed(text string, metadata map[string]any) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	wordsPerChunk := int(float64(c.config.ChunkSize) * 0.75)
	if wordsPerChunk < 1 {
		wordsPerChunk = 1
	}
	overlapWords := int(float64(c.config.Overlap) * 0.75)

	step := wordsPerChunk - overlapWords
	if step < 1 {
		step = 1
	}

	var chunks []Chunk
	chunkID := 0
	for start := 0; start < len(words); start += step {
		end := start + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}

		chunkText := strings.Join(words[start:end], " ")
		tokenCount := tokens.Estimate(chunkText)

		if tokenCount >= c.config.MinChunkSize {
			chunks = append(chunks, Chunk{
				ID:         fmt.Sprintf("chunk_%d", chunkID),
				Text:       chunkText,
				TokenCount: tokenCount,
				Metadata:   metadata,
			})
			chunkID++
		}

		if end == len(words) {
			break
		}
	}

	return chunks
}

// chunkParagraph splits on blank lines and accumulates paragraphs while
// the running token total stays within ChunkSize. A single paragraph that
// alone exceeds the budget is split with the fixed strategy and its
// sub-chunks are renumbered into the parent sequence.
func (c *Chunker) chunkParagraph(text string, metadata map[string]any) []Chunk {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []Chunk
	var current []string
	currentTokens := 0
	chunkID := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			ID:         fmt.Sprintf("chunk_%d", chunkID),
			Text:       strings.Join(current, "\n\n"),
			TokenCount: currentTokens,
			Metadata:   metadata,
		})
		chunkID++
		current = nil
		currentTokens = 0
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		paraTokens := tokens.Estimate(para)

		switch {
		case paraTokens > c.config.ChunkSize:
			// Oversized paragraph: flush what we have, then splice in
			// fixed-strategy sub-chunks with continuous numbering.
			flush()
			for _, sub := range c.chunkFixed(para, metadata) {
				sub.ID = fmt.Sprintf("chunk_%d", chunkID)
				chunks = append(chunks, sub)
				chunkID++
			}
		case currentTokens+paraTokens <= c.config.ChunkSize:
			current = append(current, para)
			currentTokens += paraTokens
		default:
			flush()
			current = []string{para}
			currentTokens = paraTokens
		}
	}
	flush()

	return chunks
}

// chunkSemantic splits on sentence boundaries and accumulates sentences
// with the same fill/flush discipline as paragraph chunking. Sentences
// already carry terminal punctuation, so they are concatenated without a
// separator. No overlap is applied.
func (c *Chunker) chunkSemantic(text string, metadata map[string]any) []Chunk {
	sentences := splitSentences(text)

	var chunks []Chunk
	var current []string
	currentTokens := 0
	chunkID := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			ID:         fmt.Sprintf("chunk_%d", chunkID),
			Text:       strings.Join(current, ""),
			TokenCount: currentTokens,
			Metadata:   metadata,
		})
		chunkID++
		current = nil
		currentTokens = 0
	}

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		sentenceTokens := tokens.Estimate(sentence)

		if currentTokens+sentenceTokens <= c.config.ChunkSize {
			current = append(current, sentence)
			currentTokens += sentenceTokens
		} else {
			flush()
			current = []string{sentence}
			currentTokens = sentenceTokens
		}
	}
	flush()

	return chunks
}

// splitSentences splits text at terminal punctuation (., !, ?) followed by
// whitespace and a capital letter. The heuristic undercounts abbreviations
// ("Dr. Smith" stays in one sentence only when the next word is lowercase).
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		// Consume the whitespace run after the terminator.
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j >= len(runes) {
			continue
		}
		if !unicode.IsUpper(runes[j]) {
			continue
		}

		sentences = append(sentences, string(runes[start:i+1]))
		start = j
		i = j - 1
	}

	if start < len(runes) {
		if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
			sentences = append(sentences, tail)
		}
	}

	return sentences
}

// Evaluate computes summary statistics for a chunking run.
func (c *Chunker) Evaluate(chunks []Chunk) Stats {
	if len(chunks) == 0 {
		return Stats{}
	}

	stats := Stats{
		TotalChunks: len(chunks),
		MinTokens:   chunks[0].TokenCount,
		MaxTokens:   chunks[0].TokenCount,
	}

	for _, chunk := range chunks {
		stats.TotalTokens += chunk.TokenCount
		if chunk.TokenCount < stats.MinTokens {
			stats.MinTokens = chunk.TokenCount
		}
		if chunk.TokenCount > stats.MaxTokens {
			stats.MaxTokens = chunk.TokenCount
		}
	}
	stats.AvgTokens = float64(stats.TotalTokens) / float64(len(chunks))

	return stats
}
