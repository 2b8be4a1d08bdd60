package retriever

import (
	"context"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"go.uber.org/zap"
)

// DefaultLimit is used when a caller asks for fewer than one document
const DefaultLimit = 5

// Retriever returns documents relevant to a query in upstream relevance order.
// Implementations fail soft: any upstream failure yields an empty result
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) []civic.Document
}

// New builds the configured retriever stack: Azure AI Search, optionally behind a result cache.
// Missing search credentials yield a retriever that always returns nothing
func New(cfg config.SearchConfig, retrieval config.RetrievalConfig, logger *zap.Logger) Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Available() {
		logger.Warn("search is not configured, retrieval will return no documents")
		return Unavailable{}
	}
	return WithCache(NewAzureSearch(cfg, logger), retrieval.CacheTTL)
}

// Unavailable is used when the search backend has no configuration
type Unavailable struct{}

func (Unavailable) Retrieve(context.Context, string, int) []civic.Document {
	return nil
}

func normalizeLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	return limit
}
