package retriever

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchConfig(endpoint string) config.SearchConfig {
	return config.SearchConfig{
		Endpoint:      endpoint,
		IndexName:     "dc-civic",
		APIKey:        "search-key",
		APIVersion:    config.DefaultSearchAPIVersion,
		QueryLanguage: config.DefaultQueryLanguage,
		Top:           config.DefaultTop,
		Timeout:       2 * time.Second,
	}
}

func TestAzureSearchRetrieve(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/indexes/dc-civic/docs/search", r.URL.Path)
		assert.Equal(t, "2023-07-01-Preview", r.URL.Query().Get("api-version"))
		assert.Equal(t, "search-key", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[
			{"id":"1","title":"DC Board of Elections","category":"Elections","tags":["voting","voting","registration"],"content":"...","sources":["https://dcboe.org"]},
			{"id":"2","title":"Polling Places","category":"Elections","tags":[],"content":"...","sources":[{"title":"Polling","url":"https://dcboe.org/polling"}]}
		]}`))
	}))
	defer srv.Close()

	docs := NewAzureSearch(searchConfig(srv.URL), nil).Retrieve(context.Background(), "Where do I vote?", 3)

	require.Len(t, docs, 2)
	assert.Equal(t, "DC Board of Elections", docs[0].Title)
	assert.Equal(t, civic.Tags{"voting", "registration"}, docs[0].Tags)
	assert.Equal(t, []civic.Link{{URL: "https://dcboe.org"}}, docs[0].Sources)
	assert.Equal(t, []civic.Link{{Title: "Polling", URL: "https://dcboe.org/polling"}}, docs[1].Sources)

	assert.Equal(t, "Where do I vote?", got.Search)
	assert.Equal(t, 3, got.Top)
	assert.Equal(t, "en-us", got.QueryLanguage)
	assert.Empty(t, got.QueryType)
}

func TestAzureSearchToleratesMalformedTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":[
			{"id":"1","title":"Voter Registration","tags":"voting","content":"..."},
			{"id":"2","title":"Voter ID","tags":["id"],"content":"..."},
			{"id":"3","title":"Ballot Measures","tags":{"bad":true},"content":"..."}
		]}`))
	}))
	defer srv.Close()

	docs := NewAzureSearch(searchConfig(srv.URL), nil).Retrieve(context.Background(), "voter id", 5)

	require.Len(t, docs, 3)
	assert.Equal(t, civic.Tags{"voting"}, docs[0].Tags)
	assert.Equal(t, civic.Tags{"id"}, docs[1].Tags)
	assert.Empty(t, docs[2].Tags)
}

func TestAzureSearchSemanticAndDefaultLimit(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer srv.Close()

	cfg := searchConfig(srv.URL)
	cfg.SemanticConfig = "civic-semantic"

	docs := NewAzureSearch(cfg, nil).Retrieve(context.Background(), "ballot", 0)
	assert.Empty(t, docs)
	assert.Equal(t, DefaultLimit, got.Top)
	assert.Equal(t, "semantic", got.QueryType)
	assert.Equal(t, "civic-semantic", got.SemanticConfiguration)
}

func TestAzureSearchFailsSoft(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"value":`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			docs := NewAzureSearch(searchConfig(srv.URL), nil).Retrieve(context.Background(), "vote", 5)
			assert.Empty(t, docs)
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		docs := NewAzureSearch(searchConfig(srv.URL), nil).Retrieve(context.Background(), "vote", 5)
		assert.Empty(t, docs)
	})
}

func TestNewWithoutConfiguration(t *testing.T) {
	r := New(config.SearchConfig{}, config.RetrievalConfig{CacheTTL: time.Minute}, nil)
	assert.IsType(t, Unavailable{}, r)
	assert.Empty(t, r.Retrieve(context.Background(), "vote", 5))
}

func TestNewWrapsCache(t *testing.T) {
	cfg := searchConfig("https://search.example.net")

	assert.IsType(t, &Cached{}, New(cfg, config.RetrievalConfig{CacheTTL: time.Minute}, nil))
	assert.IsType(t, &AzureSearch{}, New(cfg, config.RetrievalConfig{}, nil))
}

type countingRetriever struct {
	calls atomic.Int32
	docs  []civic.Document
}

func (r *countingRetriever) Retrieve(context.Context, string, int) []civic.Document {
	r.calls.Add(1)
	return clone(r.docs)
}

func TestCached(t *testing.T) {
	t.Run("memoises by normalised query and limit", func(t *testing.T) {
		inner := &countingRetriever{docs: []civic.Document{{ID: "1", Title: "Voter ID", Tags: []string{"id"}}}}
		c := NewCached(inner, time.Minute)

		first := c.Retrieve(context.Background(), "Voter  ID", 5)
		second := c.Retrieve(context.Background(), "voter id", 5)
		assert.Equal(t, first, second)
		assert.EqualValues(t, 1, inner.calls.Load())

		c.Retrieve(context.Background(), "voter id", 2)
		assert.EqualValues(t, 2, inner.calls.Load())
	})

	t.Run("returns copies", func(t *testing.T) {
		inner := &countingRetriever{docs: []civic.Document{{ID: "1", Title: "Voter ID", Tags: []string{"id"}}}}
		c := NewCached(inner, time.Minute)

		first := c.Retrieve(context.Background(), "q", 5)
		first[0].Tags[0] = "mutated"

		second := c.Retrieve(context.Background(), "q", 5)
		assert.Equal(t, "id", second[0].Tags[0])
	})

	t.Run("does not cache empty results", func(t *testing.T) {
		inner := &countingRetriever{}
		c := NewCached(inner, time.Minute)

		c.Retrieve(context.Background(), "q", 5)
		c.Retrieve(context.Background(), "q", 5)
		assert.EqualValues(t, 2, inner.calls.Load())
	})

	t.Run("flush", func(t *testing.T) {
		inner := &countingRetriever{docs: []civic.Document{{ID: "1"}}}
		c := NewCached(inner, time.Minute)

		c.Retrieve(context.Background(), "q", 5)
		c.Flush()
		c.Retrieve(context.Background(), "q", 5)
		assert.EqualValues(t, 2, inner.calls.Load())
	})

	t.Run("zero ttl disables", func(t *testing.T) {
		inner := &countingRetriever{}
		assert.Same(t, inner, WithCache(inner, 0))
	})
}
