package ingest

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

// MaxBatch is the largest number of documents Azure Search accepts in one index request
const MaxBatch = 1000

// Indexer uploads documents to an Azure AI Search index over its REST API
type Indexer struct {
	cfg        config.SearchConfig
	batch      int
	httpClient *http.Client
	logger     *zap.Logger
}

// Result summarizes an upload
type Result struct {
	Uploaded int
	Failed   []Failure
}

// Failure is a document the index rejected
type Failure struct {
	Key        string
	StatusCode int
	Message    string
}

type indexAction struct {
	Action string `json:"@search.action"`
	civic.Document
}

type indexRequest struct {
	Value []indexAction `json:"value"`
}

type indexResponse struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
		StatusCode   int    `json:"statusCode"`
	} `json:"value"`
}

// NewIndexer creates an indexer sending at most batch documents per request
func NewIndexer(cfg config.SearchConfig, batch int, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batch <= 0 || batch > MaxBatch {
		batch = MaxBatch
	}
	return &Indexer{
		cfg:        cfg,
		batch:      batch,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Upload merges the documents into the index batch by batch. Rejected documents are collected in the
// result; a transport or status failure stops the upload and returns what was sent so far
func (ix *Indexer) Upload(ctx context.Context, docs []civic.Document) (Result, error) {
	var res Result
	if len(docs) == 0 {
		return res, nil
	}
	if ix.cfg.Endpoint == "" || ix.cfg.IndexName == "" || ix.cfg.WriteKey() == "" {
		return res, civic.Unavailable("indexer", "AZURE_SEARCH_ENDPOINT", "AZURE_SEARCH_INDEX_NAME", "AZURE_SEARCH_ADMIN_KEY")
	}

	for start := 0; start < len(docs); start += ix.batch {
		end := min(start+ix.batch, len(docs))

		failed, err := ix.send(ctx, docs[start:end])
		if err != nil {
			return res, err
		}

		res.Uploaded += end - start - len(failed)
		res.Failed = append(res.Failed, failed...)

		ix.logger.Info("batch indexed",
			zap.Int("from", start),
			zap.Int("documents", end-start),
			zap.Int("failed", len(failed)),
		)
	}

	return res, nil
}

func (ix *Indexer) send(ctx context.Context, docs []civic.Document) ([]Failure, error) {
	body := indexRequest{Value: make([]indexAction, 0, len(docs))}
	for _, doc := range docs {
		body.Value = append(body.Value, indexAction{Action: "mergeOrUpload", Document: doc})
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode index request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/indexes/%s/docs/index?api-version=%s",
		ix.cfg.Endpoint, url.PathEscape(ix.cfg.IndexName), url.QueryEscape(ix.cfg.APIVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, &civic.UpstreamError{Service: "search", Op: "index", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", ix.cfg.WriteKey())

	resp, err := ix.httpClient.Do(req)
	if err != nil {
		return nil, &civic.UpstreamError{Service: "search", Op: "index", Err: err}
	}
	defer resp.Body.Close()

	// 207 means some documents were rejected and the body says which
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &civic.UpstreamError{
			Service:    "search",
			Op:         "index",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(detail))),
		}
	}

	var out indexResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &civic.UpstreamError{Service: "search", Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}

	var failed []Failure
	for _, r := range out.Value {
		if r.Status {
			continue
		}
		failed = append(failed, Failure{Key: r.Key, StatusCode: r.StatusCode, Message: r.ErrorMessage})
		ix.logger.Warn("document rejected",
			zap.String("key", r.Key),
			zap.Int("status", r.StatusCode),
			zap.String("error", r.ErrorMessage),
		)
	}

	return failed, nil
}
