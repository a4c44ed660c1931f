// Package indexer implements the document indexing pipeline: chunk, embed,
// and store a charity's document as a fresh collection.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/charityd/internal/chunking"
	"github.com/fyrsmithlabs/charityd/internal/embeddings"
	"github.com/fyrsmithlabs/charityd/internal/retriever"
	"github.com/fyrsmithlabs/charityd/internal/vectorstore"
)

var tracer = otel.Tracer("charityd.indexer")

// Sentinel errors for the indexing pipeline.
var (
	// ErrEmptyDocument indicates the document text is empty.
	ErrEmptyDocument = errors.New("document text is empty")

	// ErrEmptyCharityName indicates no charity name was given.
	ErrEmptyCharityName = errors.New("charity name is required")
)

// Result summarizes a completed indexing run.
type Result struct {
	// CharityName is the human-readable charity name as given.
	CharityName string `json:"charity_name"`

	// Collection is the normalized collection name the chunks landed in.
	Collection string `json:"collection"`

	// ChunkCount is the number of chunks stored.
	ChunkCount int `json:"chunk_count"`

	// Stats describes the chunk size distribution.
	Stats chunking.Stats `json:"stats"`
}

// Pipeline chunks, embeds, and stores documents.
//
// Indexing replaces the charity's collection wholesale, so concurrent runs
// against the same collection are serialized with a per-collection lock.
// Different collections index in parallel.
type Pipeline struct {
	chunker  *chunking.Chunker
	embedder embeddings.Embedder
	store    vectorstore.Store
	model    string
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an indexing Pipeline. The model name is recorded in
// collection metadata so stale collections can be detected after an
// embedding model change.
func New(chunker *chunking.Chunker, embedder embeddings.Embedder, store vectorstore.Store, model string, logger *zap.Logger) (*Pipeline, error) {
	if chunker == nil {
		return nil, fmt.Errorf("chunker is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		model:    model,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// collectionLock returns the mutex guarding a collection name.
func (p *Pipeline) collectionLock(collection string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[collection]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[collection] = lock
	}
	return lock
}

// IndexDocument indexes a charity document end to end. Any existing
// collection for the charity is replaced. A document that produces zero
// chunks succeeds with ChunkCount 0 and leaves an empty collection;
// embedding and storage failures return errors.
func (p *Pipeline) IndexDocument(ctx context.Context, charityName, text string, metadata map[string]any) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.IndexDocument")
	defer span.End()

	if strings.TrimSpace(charityName) == "" {
		return nil, ErrEmptyCharityName
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	collection := retriever.NormalizeCollectionName(charityName)
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("text_length", len(text)),
	)

	lock := p.collectionLock(collection)
	lock.Lock()
	defer lock.Unlock()

	// Metadata keeps the charity name as given so source attributions
	// render the human-readable form, not the collection name.
	chunkMeta := map[string]any{"charity_name": charityName}
	for k, v := range metadata {
		chunkMeta[k] = v
	}

	chunks := p.chunker.Chunk(text, chunkMeta)
	stats := p.chunker.Evaluate(chunks)

	config := p.chunker.Config()
	collMeta := map[string]any{
		"charity_name":    charityName,
		"strategy":        string(config.Strategy),
		"chunk_size":      config.ChunkSize,
		"embedding_model": p.model,
	}

	if err := p.store.CreateOrReplaceCollection(ctx, collection, collMeta); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("creating collection %s: %w", collection, err)
	}

	result := &Result{
		CharityName: charityName,
		Collection:  collection,
		ChunkCount:  len(chunks),
		Stats:       stats,
	}

	if len(chunks) == 0 {
		p.logger.Warn("document produced no chunks",
			zap.String("collection", collection),
			zap.Int("text_length", len(text)),
		)
		span.SetStatus(codes.Ok, "no chunks")
		return result, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docs := make([]vectorstore.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vectorstore.Document{
			ID:       chunk.ID,
			Content:  chunk.Text,
			Vector:   vectors[i],
			Metadata: chunk.Metadata,
		}
	}

	if err := p.store.AddChunks(ctx, collection, docs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("storing chunks in %s: %w", collection, err)
	}

	span.SetAttributes(attribute.Int("chunk_count", len(chunks)))
	span.SetStatus(codes.Ok, "success")

	p.logger.Info("indexed document",
		zap.String("charity", charityName),
		zap.String("collection", collection),
		zap.Int("chunks", len(chunks)),
		zap.Float64("avg_tokens", stats.AvgTokens),
	)

	return result, nil
}
