// Package indexer loads segmented scene files into the vector store, the
// lexical corpus and the summary lookup table.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"webtoon-rag/internal/contextutil"
	"webtoon-rag/internal/narrative"
	"webtoon-rag/internal/vectorstore"
)

// Pipeline orchestrates scene ingestion.
type Pipeline struct {
	embedder    BatchEmbedder
	vectorStore vectorstore.VectorStore
	collection  string
	paths       Paths
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(embedder BatchEmbedder, vectorStore vectorstore.VectorStore, collection string, paths Paths) *Pipeline {
	return &Pipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		paths:       paths,
	}
}

// Run builds the lookup table, embeds and upserts every scene in batches, then
// writes the lexical corpus. Unreadable scene files are counted and skipped;
// embedding or upsert failures abort the run.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	lookup, events, err := narrative.BuildLookupStore(p.paths.DataDir, logger)
	if err != nil {
		return nil, err
	}
	if err := lookup.Save(p.paths.LookupStorePath); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "lookup store saved", "path", p.paths.LookupStorePath, "entries", lookup.Len())

	files, err := filepath.Glob(filepath.Join(p.paths.DataDir, "scenes", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}
	sort.Strings(files)
	logger.InfoContext(ctx, "starting ingestion", "scene_files", len(files), "batch_size", BatchSize)

	stats := newStats()
	corpus := make([]narrative.CorpusEntry, 0, len(files))
	batch := make([]narrative.Scene, 0, BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.indexBatch(ctx, batch); err != nil {
			return err
		}
		stats.ScenesEmbedded += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		stats.FilesProcessed++
		scene, err := readScene(f, events)
		if err != nil {
			var skip *errSkip
			if errors.As(err, &skip) {
				stats.skip(skip.reason)
				logger.DebugContext(ctx, "skipping scene", "path", f, "reason", skip.reason)
			} else {
				stats.skip("unreadable")
				logger.WarnContext(ctx, "failed to read scene file", "path", f, "error", err)
			}
			continue
		}

		stats.observe(scene.Text)
		corpus = append(corpus, narrative.CorpusEntry{ID: scene.UnitID(), Text: scene.Text, Payload: scene.Payload()})
		batch = append(batch, scene)
		if len(batch) >= BatchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if err := narrative.SaveCorpus(p.paths.CorpusPath, corpus); err != nil {
		return nil, err
	}

	stats.finish(p.embedder.ModelName())
	logger.InfoContext(ctx, "ingestion completed",
		"files", stats.FilesProcessed,
		"embedded", stats.ScenesEmbedded,
		"skipped", stats.ScenesSkipped,
		"corpus", p.paths.CorpusPath,
	)
	return stats, nil
}

func (p *Pipeline) indexBatch(ctx context.Context, scenes []narrative.Scene) error {
	texts := make([]string, len(scenes))
	for i, s := range scenes {
		texts[i] = s.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(scenes) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(scenes), len(vectors))
	}

	points := make([]vectorstore.Point, len(scenes))
	for i, s := range scenes {
		points[i] = vectorstore.Point{ID: s.UnitID(), Vec: vectors[i], Meta: s.Payload()}
	}
	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}
