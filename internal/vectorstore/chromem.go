package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("charityd.vectorstore.chromem")

// ChromemConfig holds configuration for the chromem-go embedded database.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Default: "~/.config/charityd/vectorstore"
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// DefaultCollection is the collection queried when no charity is
	// specified. Default: "charityd_default"
	DefaultCollection string

	// VectorSize is the expected embedding dimension. Must match the
	// embedding provider's output dimension. Default: 1536.
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.config/charityd/vectorstore"
	}
	if c.DefaultCollection == "" {
		c.DefaultCollection = "charityd_default"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 1536
	}
}

// Validate validates the configuration.
func (c ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements the Store interface using chromem-go.
//
// chromem-go is an embeddable vector database with zero third-party
// dependencies: pure Go, no external service, automatic persistence to
// gob files. It is the default backend and mirrors the deployment story
// of an embedded Chroma instance.
type ChromemStore struct {
	db     *chromem.DB
	config ChromemConfig
	logger *zap.Logger
}

// NewChromemStore creates a new ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	expandedPath, err := expandChromemPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}

	if err := os.MkdirAll(expandedPath, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", expandedPath, err)
	}

	db, err := chromem.NewPersistentDB(expandedPath, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	store := &ChromemStore{
		db:     db,
		config: config,
		logger: logger,
	}

	logger.Info("chromem store initialized",
		zap.String("path", expandedPath),
		zap.Bool("compress", config.Compress),
		zap.Int("vector_size", config.VectorSize),
		zap.String("default_collection", config.DefaultCollection),
	)

	return store, nil
}

// expandChromemPath expands ~ to home directory.
func expandChromemPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// embeddingFunc returns a chromem.EmbeddingFunc that rejects on-the-fly
// embedding. All vectors are precomputed by the indexing pipeline; chromem
// must never fall back to its default OpenAI embedder.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embeddings must be precomputed")
	}
}

// CreateOrReplaceCollection idempotently ensures a clean collection exists.
func (s *ChromemStore) CreateOrReplaceCollection(ctx context.Context, name string, metadata map[string]any) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.CreateOrReplaceCollection")
	defer span.End()

	span.SetAttributes(attribute.String("collection", name))

	if err := ValidateCollectionName(name); err != nil {
		return err
	}

	// Destroy any prior same-named collection. chromem returns an error
	// only on persistence failures, not on a missing collection.
	if existing := s.db.GetCollection(name, s.embeddingFunc()); existing != nil {
		if err := s.db.DeleteCollection(name); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("deleting collection %s: %w", name, err)
		}
	}

	if _, err := s.db.CreateCollection(name, convertMetadataToString(metadata), s.embeddingFunc()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("creating collection %s: %w", name, err)
	}

	span.SetStatus(codes.Ok, "success")

	s.logger.Info("created chromem collection", zap.String("collection", name))
	return nil
}

// AddChunks bulk-inserts documents with precomputed vectors.
func (s *ChromemStore) AddChunks(ctx context.Context, collection string, docs []Document) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.AddChunks")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("document_count", len(docs)),
	)

	if len(docs) == 0 {
		return ErrEmptyDocuments
	}

	if collection == "" {
		collection = s.config.DefaultCollection
	}
	if err := ValidateCollectionName(collection); err != nil {
		return err
	}

	coll, err := s.db.GetOrCreateCollection(collection, nil, s.embeddingFunc())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("getting collection %s: %w", collection, err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		if len(doc.Vector) != s.config.VectorSize {
			return fmt.Errorf("document %q has vector size %d, expected %d", doc.ID, len(doc.Vector), s.config.VectorSize)
		}
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  convertMetadataToString(doc.Metadata),
			Embedding: doc.Vector,
		}
	}

	// Concurrency of 1 since embeddings are already computed.
	if err := coll.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding documents: %w", err)
	}

	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("added documents to chromem",
		zap.String("collection", collection),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query performs similarity search restricted to a collection.
func (s *ChromemStore) Query(ctx context.Context, collection string, vector []float32, limit int) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Query")
	defer span.End()

	if collection == "" {
		collection = s.config.DefaultCollection
	}

	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("limit", limit),
	)

	if err := ValidateCollectionName(collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}

	coll := s.db.GetCollection(collection, s.embeddingFunc())
	if coll == nil {
		// Degrade to empty results rather than failing the query.
		span.SetStatus(codes.Ok, "collection not found")
		s.logger.Warn("queried nonexistent collection", zap.String("collection", collection))
		return []SearchResult{}, nil
	}

	// chromem requires nResults <= document count.
	docCount := coll.Count()
	if docCount == 0 {
		return []SearchResult{}, nil
	}
	if limit > docCount {
		limit = docCount
	}

	results, err := coll.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", collection, err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			ID:         r.ID,
			Content:    r.Content,
			Similarity: r.Similarity,
			Metadata:   convertMetadataFromString(r.Metadata),
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("searched chromem collection",
		zap.String("collection", collection),
		zap.Int("limit", limit),
		zap.Int("results", len(searchResults)),
	)

	return searchResults, nil
}

// Count returns the number of stored documents in a collection.
func (s *ChromemStore) Count(ctx context.Context, collection string) (int, error) {
	_, span := chromemTracer.Start(ctx, "ChromemStore.Count")
	defer span.End()

	if collection == "" {
		collection = s.config.DefaultCollection
	}
	if err := ValidateCollectionName(collection); err != nil {
		return 0, err
	}

	coll := s.db.GetCollection(collection, s.embeddingFunc())
	if coll == nil {
		span.SetStatus(codes.Error, "collection not found")
		return 0, ErrCollectionNotFound
	}

	span.SetStatus(codes.Ok, "success")
	return coll.Count(), nil
}

// CollectionExists checks if a collection exists.
func (s *ChromemStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, span := chromemTracer.Start(ctx, "ChromemStore.CollectionExists")
	defer span.End()

	if err := ValidateCollectionName(name); err != nil {
		return false, err
	}

	exists := s.db.GetCollection(name, s.embeddingFunc()) != nil
	span.SetStatus(codes.Ok, "success")
	return exists, nil
}

// ListCollections returns all collection names.
func (s *ChromemStore) ListCollections(ctx context.Context) ([]string, error) {
	_, span := chromemTracer.Start(ctx, "ChromemStore.ListCollections")
	defer span.End()

	collections := s.db.ListCollections()
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}

	span.SetAttributes(attribute.Int("collection_count", len(names)))
	span.SetStatus(codes.Ok, "success")
	return names, nil
}

// DeleteCollection deletes a collection and all its documents.
func (s *ChromemStore) DeleteCollection(ctx context.Context, name string) error {
	_, span := chromemTracer.Start(ctx, "ChromemStore.DeleteCollection")
	defer span.End()

	span.SetAttributes(attribute.String("collection", name))

	if err := ValidateCollectionName(name); err != nil {
		return err
	}

	if err := s.db.DeleteCollection(name); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}

	span.SetStatus(codes.Ok, "success")
	s.logger.Info("deleted chromem collection", zap.String("collection", name))
	return nil
}

// Close closes the ChromemStore.
// chromem-go persists automatically; no explicit close is needed.
func (s *ChromemStore) Close() error {
	s.logger.Info("chromem store closed")
	return nil
}

// convertMetadataToString converts metadata to chromem's string map.
func convertMetadataToString(metadata map[string]any) map[string]string {
	if metadata == nil {
		return nil
	}
	converted := make(map[string]string, len(metadata))
	for k, v := range metadata {
		converted[k] = fmt.Sprintf("%v", v)
	}
	return converted
}

// convertMetadataFromString converts chromem's string map back to metadata.
func convertMetadataFromString(metadata map[string]string) map[string]any {
	if metadata == nil {
		return nil
	}
	converted := make(map[string]any, len(metadata))
	for k, v := range metadata {
		converted[k] = v
	}
	return converted
}
