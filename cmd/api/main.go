package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"webtoon-rag/internal/app"
	"webtoon-rag/internal/config"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about a webtoon from its ingested scenes, chapter summaries and event summaries.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Webtoon RAG API
//   description: |
//     Question answering over a webtoon. Chapter lookups are answered from summaries;
//     other questions go through hybrid retrieval, reranking and generation.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	// Fail fast when Qdrant or the embedding server disagree on the vector size
	if err := a.PrepareCollection(ctx); err != nil {
		log.Fatalf("Failed to prepare vector store: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)

	if err := a.Serve(ctx); err != nil {
		slog.Error("API server stopped", "error", err)
		os.Exit(1)
	}
}
