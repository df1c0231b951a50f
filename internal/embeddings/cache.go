package embeddings

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/desertthunder/tracklink/internal/metrics"
)

// CachedEmbedder wraps an Embedder with a bounded TTL cache keyed by
// model and text. Batch calls only embed the misses and stitch cached
// vectors back into input order.
type CachedEmbedder struct {
	inner Embedder
	cache *expirable.LRU[string, []float32]
}

func NewCachedEmbedder(inner Embedder, size int, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (c *CachedEmbedder) key(text string) string {
	return c.inner.Model() + "|" + text
}

func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

func (c *CachedEmbedder) Model() string { return c.inner.Model() }

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(c.key(text)); ok {
		metrics.Default().TrackCacheAccess("embedding", true)
		return vec, nil
	}
	metrics.Default().TrackCacheAccess("embedding", false)

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(c.key(text), vec)
	return vec, nil
}

func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	missing := make([]string, 0, len(texts))
	missingAt := make([]int, 0, len(texts))

	for i, text := range texts {
		if vec, ok := c.cache.Get(c.key(text)); ok {
			metrics.Default().TrackCacheAccess("embedding", true)
			vectors[i] = vec
			continue
		}
		metrics.Default().TrackCacheAccess("embedding", false)
		missing = append(missing, text)
		missingAt = append(missingAt, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	embedded, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range embedded {
		i := missingAt[j]
		vectors[i] = vec
		c.cache.Add(c.key(texts[i]), vec)
	}

	return vectors, nil
}
