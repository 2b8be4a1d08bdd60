package retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/patrickmn/go-cache"
)

// Cached memoises non-empty retrieval results per normalised query and limit
type Cached struct {
	inner Retriever
	cache *cache.Cache
}

// WithCache wraps a retriever in a cache, or returns it unchanged when ttl is not positive
func WithCache(inner Retriever, ttl time.Duration) Retriever {
	if ttl <= 0 {
		return inner
	}
	return NewCached(inner, ttl)
}

func NewCached(inner Retriever, ttl time.Duration) *Cached {
	return &Cached{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Retrieve serves a copy of a cached result when present, otherwise queries the inner retriever.
// Empty results are never cached, so a failed search is retried on the next turn
func (c *Cached) Retrieve(ctx context.Context, query string, limit int) []civic.Document {
	limit = normalizeLimit(limit)
	key := cacheKey(query, limit)

	if hit, ok := c.cache.Get(key); ok {
		return clone(hit.([]civic.Document))
	}

	docs := c.inner.Retrieve(ctx, query, limit)
	if len(docs) == 0 {
		return docs
	}

	c.cache.Set(key, clone(docs), cache.DefaultExpiration)
	return docs
}

// Flush drops every cached result
func (c *Cached) Flush() {
	c.cache.Flush()
}

func cacheKey(query string, limit int) string {
	return fmt.Sprintf("%d|%s", limit, strings.ToLower(strings.Join(strings.Fields(query), " ")))
}

func clone(docs []civic.Document) []civic.Document {
	out := make([]civic.Document, len(docs))
	for i, doc := range docs {
		out[i] = doc
		out[i].Tags = append([]string(nil), doc.Tags...)
		out[i].Sources = append([]civic.Link(nil), doc.Sources...)
	}
	return out
}
