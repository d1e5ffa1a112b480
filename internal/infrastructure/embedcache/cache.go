package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kirillkom/rag-content-pipeline/internal/core/ports"
)

// Cache memoizes embeddings in front of the real embedder. Re-ingested
// documents and repeated queries skip the model entirely.
type Cache struct {
	inner ports.Embedder
	lru   *expirable.LRU[string, []float32]
}

func New(inner ports.Embedder, size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 512
	}
	return &Cache{
		inner: inner,
		lru:   expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (c *Cache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if vec, ok := c.lru.Get(key(text)); ok {
			out[i] = clone(vec)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range fresh {
		c.lru.Add(key(missTexts[j]), clone(vec))
		out[missIdx[j]] = vec
	}
	return out, nil
}

func (c *Cache) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.lru.Get(key(text)); ok {
		return clone(vec), nil
	}
	vec, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key(text), clone(vec))
	return vec, nil
}

func key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func clone(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
