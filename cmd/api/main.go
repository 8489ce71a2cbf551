package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"docassist/internal/config"
	"docassist/internal/http"
	"docassist/internal/indexer"
	"docassist/internal/llm"
	"docassist/internal/rag"
	"docassist/internal/vectorindex"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx := context.Background()

	// Load the persisted index if one exists; otherwise serve an empty index
	// (every query refuses) until a rebuild is triggered.
	initial, err := vectorindex.Load(ctx, cfg.IndexDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("No persisted index found, starting empty", "index_dir", cfg.IndexDir)
			initial = vectorindex.Empty()
		} else {
			log.Fatalf("Failed to load persisted index: %v", err)
		}
	} else {
		slog.Info("Persisted index loaded",
			"build_id", initial.BuildID(), "chunks", initial.Len(), "dimension", initial.Dim())
	}
	indexes := vectorindex.NewManager(initial)

	embedder := llm.NewEmbeddingsClient(
		cfg.EmbeddingBaseURL, cfg.APIKey, cfg.EmbeddingModel, cfg.VectorSize, cfg.EmbedTimeout)
	generator := llm.NewClient(
		cfg.GenerationBaseURL, cfg.APIKey, cfg.GenerationModel, cfg.GenerateTimeout)

	builder := indexer.NewBuilder(embedder, indexes, indexer.Config{
		IndexDir:        cfg.IndexDir,
		Model:           cfg.EmbeddingModel,
		Dim:             cfg.VectorSize,
		Workers:         cfg.BuildWorkers,
		MaxFailureRatio: cfg.MaxEmbedFailureRatio,
	})

	policy, err := rag.NewPolicy(cfg.SimilarityThreshold, cfg.RefusalPattern)
	if err != nil {
		log.Fatalf("Failed to configure refusal policy: %v", err)
	}

	engine := rag.NewEngine(
		rag.NewRetriever(embedder, indexes),
		rag.NewAssembler(cfg.ContextBudget),
		generator,
		policy,
		cfg.TopK,
		cfg.MaxTopK,
	)
	slog.Info("Query engine initialized",
		"top_k", cfg.TopK, "threshold", cfg.SimilarityThreshold, "context_budget", cfg.ContextBudget)

	deps := &http.Deps{
		Engine:    engine,
		Builder:   builder,
		Indexes:   indexes,
		CorpusDir: cfg.CorpusDir,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
