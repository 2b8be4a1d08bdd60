package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"go.uber.org/zap"
)

// AzureSearch queries an Azure AI Search index over its REST API
type AzureSearch struct {
	cfg        config.SearchConfig
	httpClient *http.Client
	logger     *zap.Logger
}

type searchRequest struct {
	Search                string `json:"search"`
	Top                   int    `json:"top"`
	QueryType             string `json:"queryType,omitempty"`
	SemanticConfiguration string `json:"semanticConfiguration,omitempty"`
	QueryLanguage         string `json:"queryLanguage,omitempty"`
}

type searchResponse struct {
	Value []civic.Document `json:"value"`
}

func NewAzureSearch(cfg config.SearchConfig, logger *zap.Logger) *AzureSearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AzureSearch{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Retrieve runs a search and returns the hits in ranking order. Failures are logged and produce nil
func (s *AzureSearch) Retrieve(ctx context.Context, query string, limit int) []civic.Document {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	docs, err := s.search(ctx, query, normalizeLimit(limit))
	if err != nil {
		s.logger.Warn("search request failed", zap.String("service", "search"), zap.Error(err))
		return nil
	}

	return docs
}

func (s *AzureSearch) search(ctx context.Context, query string, limit int) ([]civic.Document, error) {
	body := searchRequest{
		Search:        query,
		Top:           limit,
		QueryLanguage: s.cfg.QueryLanguage,
	}
	if s.cfg.SemanticConfig != "" {
		body.QueryType = "semantic"
		body.SemanticConfiguration = s.cfg.SemanticConfig
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s",
		s.cfg.Endpoint, url.PathEscape(s.cfg.IndexName), url.QueryEscape(s.cfg.APIVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, &civic.UpstreamError{Service: "search", Op: "query", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.cfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &civic.UpstreamError{Service: "search", Op: "query", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &civic.UpstreamError{
			Service:    "search",
			Op:         "query",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(detail))),
		}
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &civic.UpstreamError{Service: "search", Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}

	docs := out.Value
	if len(docs) > limit {
		docs = docs[:limit]
	}
	for i := range docs {
		docs[i].Tags = dedupe(docs[i].Tags)
	}

	s.logger.Debug("search completed", zap.Int("documents", len(docs)))
	return docs, nil
}

// dedupe keeps the first occurrence of each non-empty tag
func dedupe(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}

	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
