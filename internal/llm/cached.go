package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultEmbeddingCacheSize is the default number of query embeddings to keep.
const DefaultEmbeddingCacheSize = 1000

// Encoder is the embedding surface wrapped by CachedEncoder.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// CachedEncoder wraps an Encoder with an LRU cache keyed by text and model,
// so repeated questions skip the embedding round trip.
type CachedEncoder struct {
	inner Encoder
	cache *lru.Cache[string, []float32]
}

// NewCachedEncoder creates a cached encoder holding up to cacheSize vectors.
func NewCachedEncoder(inner Encoder, cacheSize int) *CachedEncoder {
	if cacheSize <= 0 {
		cacheSize = DefaultEmbeddingCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedEncoder{
		inner: inner,
		cache: cache,
	}
}

func (c *CachedEncoder) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text + "\x00" + c.inner.ModelName()))
	return hex.EncodeToString(hash[:])
}

// Encode returns a copy of the cached vector if present, otherwise computes and
// caches it. Errors are not cached.
func (c *CachedEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return slices.Clone(vec), nil
	}

	vec, err := c.inner.Encode(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, slices.Clone(vec))
	return vec, nil
}

// ModelName passes through to the inner encoder.
func (c *CachedEncoder) ModelName() string {
	return c.inner.ModelName()
}

// Len reports the number of cached vectors.
func (c *CachedEncoder) Len() int {
	return c.cache.Len()
}
