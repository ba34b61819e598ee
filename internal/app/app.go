// Package app wires configuration into the running components shared by the
// API server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"webtoon-rag/internal/config"
	"webtoon-rag/internal/indexer"
	"webtoon-rag/internal/lexical"
	"webtoon-rag/internal/llm"
	"webtoon-rag/internal/narrative"
	"webtoon-rag/internal/rag"
	"webtoon-rag/internal/storage"
	"webtoon-rag/internal/vectorstore"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Engine      rag.Engine
	VectorStore *vectorstore.QdrantStore
	Lexical     *lexical.Index
	Knowledge   *Knowledge
	// Traces is nil when TraceDBPath is empty.
	Traces   *storage.TraceRepo
	Pipeline *indexer.Pipeline

	closers []func() error
}

// Knowledge is the read-only data loaded from the data directory at startup.
type Knowledge struct {
	Corpus []narrative.CorpusEntry
	Lookup *narrative.LookupStore
	Events narrative.ChapterEvents
	Roster []narrative.Character
}

// NewLogger builds the process logger for the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// LoadKnowledge reads the corpus, lookup store, chapter events and roster.
// Missing files yield empty values; malformed files are errors.
func LoadKnowledge(cfg *config.Config, logger *slog.Logger) (*Knowledge, error) {
	corpus, err := narrative.LoadCorpus(cfg.CorpusPath, logger)
	if err != nil {
		return nil, err
	}
	lookup, err := narrative.LoadLookupStore(cfg.LookupStorePath, logger)
	if err != nil {
		return nil, err
	}
	events, err := narrative.LoadChapterEvents(cfg.EventsDir, logger)
	if err != nil {
		return nil, err
	}
	roster, err := narrative.LoadRoster(cfg.CharactersPath, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("knowledge loaded",
		"corpus", len(corpus),
		"lookup_entries", lookup.Len(),
		"chapters_with_events", len(events),
		"characters", len(roster),
	)
	return &Knowledge{Corpus: corpus, Lookup: lookup, Events: events, Roster: roster}, nil
}

// New builds every component. The Qdrant collection is not created here;
// ingestion does that.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		return nil, err
	}
	a.VectorStore = store
	a.closers = append(a.closers, store.Close)

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	queryEncoder := llm.NewCachedEncoder(embedder, cfg.EmbeddingCacheSize)
	chat := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, llm.ChatParams{
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	})
	reranker := llm.NewCrossEncoderClient(cfg.RerankerBaseURL, cfg.RerankerModelName)

	knowledge, err := LoadKnowledge(cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Knowledge = knowledge

	idx, err := lexical.Build(ctx, knowledge.Corpus, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to build lexical index: %w", err)
	}
	a.Lexical = idx
	a.closers = append(a.closers, idx.Close)

	deps := rag.Dependencies{
		LLM:          chat,
		Embedder:     queryEncoder,
		CrossEncoder: reranker,
		VectorStore:  store,
		Lexical:      idx,
		Lookup:       knowledge.Lookup,
		Events:       knowledge.Events,
		Roster:       knowledge.Roster,
	}

	if cfg.TraceDBPath != "" {
		db, err := storage.New(cfg.TraceDBPath)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := storage.Migrate(db); err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Traces = storage.NewTraceRepo(db)
		deps.Trace = a.Traces
		logger.Info("trace store initialized", "path", cfg.TraceDBPath)
	}

	a.Engine = rag.NewEngine(deps, rag.Options{
		Collection:   cfg.QdrantCollection,
		RRFConstant:  cfg.RRFConstant,
		TopKRetrieve: cfg.TopKRetrieve,
		TopKFinal:    cfg.TopKFinal,
		WindowSize:   cfg.WindowSize,
		PlainText:    cfg.PlainTextAnswers,
	})

	a.Pipeline = indexer.NewPipeline(embedder, store, cfg.QdrantCollection, indexer.Paths{
		DataDir:         cfg.DataDir,
		CorpusPath:      cfg.CorpusPath,
		LookupStorePath: cfg.LookupStorePath,
	})

	logger.Info("rag engine initialized",
		"collection", cfg.QdrantCollection,
		"llm", cfg.LLMModelName,
		"embedding", cfg.EmbeddingModelName,
		"reranker", cfg.RerankerModelName,
	)
	return a, nil
}

// PrepareCollection creates the scene collection if needed and checks that the
// embedding server returns vectors of the configured size.
func (a *App) PrepareCollection(ctx context.Context) error {
	if err := a.VectorStore.EnsureCollection(ctx, a.Config.QdrantCollection, a.Config.QdrantVectorSize); err != nil {
		return fmt.Errorf("failed to ensure Qdrant collection: %w", err)
	}
	embedder := llm.NewEmbeddingsClient(a.Config.EmbeddingBaseURL, a.Config.LLMAPIKey, a.Config.EmbeddingModelName, a.Config.QdrantVectorSize)
	return validateEmbedder(ctx, embedder, a.Config.QdrantVectorSize)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func validateEmbedder(ctx context.Context, embedder indexer.BatchEmbedder, size int) error {
	vectors, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) != size {
		got := 0
		if len(vectors) > 0 {
			got = len(vectors[0])
		}
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", size, got)
	}
	return nil
}
