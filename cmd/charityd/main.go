// Charityd is a retrieval-augmented question answering daemon for charity
// documents.
//
// This binary starts the charityd HTTP server with full service
// initialization: vector store, embeddings, retrieval, and generation.
//
// Configuration is loaded from a YAML file and environment variables. See
// internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	charityd
//
//	# Configure via flags and environment
//	charityd --config /etc/charityd/config.yaml
//	SERVER_PORT=9090 LLM_API_KEY=sk-... charityd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/charityd/internal/chunking"
	"github.com/fyrsmithlabs/charityd/internal/config"
	"github.com/fyrsmithlabs/charityd/internal/embeddings"
	"github.com/fyrsmithlabs/charityd/internal/indexer"
	"github.com/fyrsmithlabs/charityd/internal/llm"
	"github.com/fyrsmithlabs/charityd/internal/logging"
	"github.com/fyrsmithlabs/charityd/internal/rag"
	"github.com/fyrsmithlabs/charityd/internal/reranker"
	"github.com/fyrsmithlabs/charityd/internal/retriever"
	"github.com/fyrsmithlabs/charityd/internal/server"
	"github.com/fyrsmithlabs/charityd/internal/session"
	"github.com/fyrsmithlabs/charityd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config YAML file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  charityd           Start the charityd daemon\n")
			fmt.Fprintf(os.Stderr, "  charityd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("charityd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the charityd server and blocks until the context is cancelled.
//
// All dependencies are constructed here, explicitly and in order:
//  1. Load and validate configuration
//  2. Initialize logger
//  3. Open vector store (chromem or qdrant)
//  4. Create embedding provider and LLM generator
//  5. Wire chunker, indexer, retriever, and RAG service
//  6. Start HTTP server
//  7. Graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting charityd",
		zap.String("version", version),
		zap.String("commit", gitCommit),
	)

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		APIKey:   cfg.Embeddings.APIKey,
	})
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	store, err := vectorstore.NewStore(vectorstore.Config{
		Provider: cfg.VectorStore.Provider,
		Chromem: vectorstore.ChromemConfig{
			Path:              cfg.VectorStore.Chromem.Path,
			Compress:          cfg.VectorStore.Chromem.Compress,
			DefaultCollection: cfg.VectorStore.Chromem.DefaultCollection,
			VectorSize:        embedder.Dimension(),
		},
		Qdrant: vectorstore.QdrantConfig{
			Host:              cfg.VectorStore.Qdrant.Host,
			Port:              cfg.VectorStore.Qdrant.Port,
			UseTLS:            cfg.VectorStore.Qdrant.UseTLS,
			DefaultCollection: cfg.VectorStore.Qdrant.DefaultCollection,
			VectorSize:        uint64(embedder.Dimension()),
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer func() { _ = store.Close() }()

	generator, err := llm.NewOpenAIGenerator(llm.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating LLM generator: %w", err)
	}
	defer func() { _ = generator.Close() }()

	chunker, err := chunking.NewChunker(chunking.Config{
		ChunkSize:    cfg.Chunking.ChunkSize,
		Overlap:      cfg.Chunking.Overlap,
		Strategy:     chunking.Strategy(cfg.Chunking.Strategy),
		MinChunkSize: cfg.Chunking.MinChunkSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating chunker: %w", err)
	}

	pipeline, err := indexer.New(chunker, embedder, store, cfg.Embeddings.Model, logger)
	if err != nil {
		return fmt.Errorf("creating indexing pipeline: %w", err)
	}

	rr, err := reranker.New(cfg.Retrieval.Reranker)
	if err != nil {
		return fmt.Errorf("creating reranker: %w", err)
	}
	defer func() { _ = rr.Close() }()

	ret, err := retriever.New(retriever.Config{
		TopK:                cfg.Retrieval.TopK,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		Rerank:              cfg.Retrieval.Rerank,
		Debug:               cfg.Retrieval.Debug,
	}, embedder, store, rr, logger)
	if err != nil {
		return fmt.Errorf("creating retriever: %w", err)
	}

	sessions := session.NewMemoryStore(cfg.Session.MaxHistory)

	service, err := rag.New(rag.Config{
		MaxContextTokens: cfg.Context.MaxTokens,
		IncludeSources:   cfg.Context.IncludeSources,
	}, ret, generator, sessions, logger)
	if err != nil {
		return fmt.Errorf("creating RAG service: %w", err)
	}

	srv, err := server.New(server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, service, pipeline, store, logger)
	if err != nil {
		return fmt.Errorf("creating HTTP server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
