package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks webtoon-rag/internal/vectorstore VectorStore

import "context"

// Point represents a scene vector with its payload.
type Point struct {
	ID   uint64
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents one nearest-neighbour hit.
type SearchResult struct {
	ID    uint64
	Score float32
	Meta  map[string]any
}

// Record is a point fetched by id, without a score.
type Record struct {
	ID   uint64
	Meta map[string]any
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Query returns the limit nearest points to vector by cosine similarity.
	Query(ctx context.Context, collection string, vector []float32, limit int) ([]SearchResult, error)

	// Retrieve fetches points by id. Ids that do not exist are omitted.
	Retrieve(ctx context.Context, collection string, ids []uint64) ([]Record, error)
}
