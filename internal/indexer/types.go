package indexer

import "context"

// BatchSize is the number of scenes embedded and upserted per request.
const BatchSize = 50

// BatchEmbedder embeds several texts in one call, preserving order.
type BatchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// Paths locates the pipeline inputs and outputs.
type Paths struct {
	// DataDir holds scenes/, events/, chapter_summaries/ and global_summary.json.
	DataDir string
	// CorpusPath receives the lexical corpus.
	CorpusPath string
	// LookupStorePath receives the summary lookup table.
	LookupStorePath string
}
