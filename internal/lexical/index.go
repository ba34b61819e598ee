// Package lexical provides the in-memory keyword index over scene texts.
package lexical

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"

	"webtoon-rag/internal/narrative"
)

const (
	analyzerName = "webtoon_analyzer"
	textField    = "text"
	batchSize    = 1000
)

// Hit is one scored lexical match with the corpus record it came from.
type Hit struct {
	ID      uint64
	Score   float64
	Text    string
	Payload map[string]any
}

// Index is a read-only keyword index built once from the corpus.
// It is safe for concurrent searches.
type Index struct {
	mu      sync.RWMutex
	index   bleve.Index
	entries map[uint64]narrative.CorpusEntry
	closed  bool
}

type document struct {
	Text string `json:"text"`
}

func newMapping() (*mapping.IndexMappingImpl, error) {
	m := bleve.NewIndexMapping()
	err := m.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     TokenizerName,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add analyzer: %w", err)
	}
	m.DefaultAnalyzer = analyzerName
	return m, nil
}

// Build indexes the corpus in memory. An empty corpus yields an index that matches nothing.
func Build(ctx context.Context, corpus []narrative.CorpusEntry, logger *slog.Logger) (*Index, error) {
	m, err := newMapping()
	if err != nil {
		return nil, err
	}
	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	entries := make(map[uint64]narrative.CorpusEntry, len(corpus))
	batch := idx.NewBatch()
	for _, e := range corpus {
		if err := ctx.Err(); err != nil {
			_ = idx.Close()
			return nil, err
		}
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		entries[e.ID] = e
		if err := batch.Index(strconv.FormatUint(e.ID, 10), document{Text: e.Text}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index unit %d: %w", e.ID, err)
		}
		if batch.Size() >= batchSize {
			if err := idx.Batch(batch); err != nil {
				_ = idx.Close()
				return nil, fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = idx.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to execute batch: %w", err)
		}
	}

	logger.Info("lexical index built", "documents", len(entries))
	return &Index{index: idx, entries: entries}, nil
}

// Search returns up to limit units with a positive score, best first.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if strings.TrimSpace(query) == "" || limit <= 0 || len(x.entries) == 0 {
		return []Hit{}, nil
	}

	q := bleve.NewMatchQuery(query)
	q.SetField(textField)
	req := bleve.NewSearchRequest(q)
	req.Size = limit

	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		if h.Score <= 0 {
			continue
		}
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		e := x.entries[id]
		hits = append(hits, Hit{ID: id, Score: h.Score, Text: e.Text, Payload: e.Payload})
	}
	return hits, nil
}

// Len reports the number of indexed units.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close releases the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true
	return x.index.Close()
}
