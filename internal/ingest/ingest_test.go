package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_elections.json", `[
		{"id": "primary-2026", "title": "2026 Primary", "category": "elections", "tags": ["voting"], "content": "June 2"},
		{"id": "early-voting", "title": "Early voting", "tags": "voting"}
	]`)
	writeFile(t, dir, "b_ballot/measures.json", `{"id": "primary-2026", "title": " 2026 Primary Election ", "content": "Updated"}`)
	writeFile(t, dir, "notes.txt", `not json`)

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "primary-2026", docs[0].ID)
	assert.Equal(t, "2026 Primary Election", docs[0].Title)
	assert.Equal(t, "Updated", docs[0].Content)
	assert.Equal(t, civic.Tags{"voting"}, docs[1].Tags)
}

func TestLoadFileRejects(t *testing.T) {
	cases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"missing id", `[{"title": "No id"}]`, "missing id"},
		{"bad key", `{"id": "ward 6", "title": "Ward 6"}`, "not a valid index key"},
		{"missing title", `{"id": "ward-6"}`, "has no title"},
		{"malformed", `[{"id": }]`, "failed to decode"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "docs.json", tc.content)

			_, err := LoadFile(filepath.Join(dir, "docs.json"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

type indexCall struct {
	key     string
	path    string
	version string
	actions []map[string]any
}

func newIndexServer(t *testing.T, status int, reject map[string]string) (*httptest.Server, *[]indexCall) {
	t.Helper()
	var calls []indexCall

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Value []map[string]any `json:"value"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		calls = append(calls, indexCall{
			key:     r.Header.Get("api-key"),
			path:    r.URL.Path,
			version: r.URL.Query().Get("api-version"),
			actions: body.Value,
		})

		if status >= 300 {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"index not found"}}`))
			return
		}

		type result struct {
			Key          string `json:"key"`
			Status       bool   `json:"status"`
			ErrorMessage string `json:"errorMessage,omitempty"`
			StatusCode   int    `json:"statusCode"`
		}
		var out struct {
			Value []result `json:"value"`
		}
		for _, action := range body.Value {
			key, _ := action["id"].(string)
			if msg, ok := reject[key]; ok {
				out.Value = append(out.Value, result{Key: key, ErrorMessage: msg, StatusCode: 400})
				continue
			}
			out.Value = append(out.Value, result{Key: key, Status: true, StatusCode: 201})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func searchConfig(endpoint string) config.SearchConfig {
	return config.SearchConfig{
		Endpoint:   endpoint,
		IndexName:  "dc-civic",
		APIKey:     "query-key",
		AdminKey:   "admin-key",
		APIVersion: "2023-07-01-Preview",
		Timeout:    time.Second,
	}
}

func testDocs(n int) []civic.Document {
	docs := make([]civic.Document, 0, n)
	for i := range n {
		docs = append(docs, civic.Document{
			ID:    "doc-" + string(rune('a'+i)),
			Title: "Ward guide",
			Tags:  civic.Tags{"anc"},
		})
	}
	return docs
}

func TestUploadBatches(t *testing.T) {
	srv, calls := newIndexServer(t, http.StatusOK, nil)
	ix := NewIndexer(searchConfig(srv.URL), 2, nil)

	res, err := ix.Upload(context.Background(), testDocs(5))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Uploaded)
	assert.Empty(t, res.Failed)

	require.Len(t, *calls, 3)
	for i, size := range []int{2, 2, 1} {
		call := (*calls)[i]
		assert.Len(t, call.actions, size)
		assert.Equal(t, "admin-key", call.key)
		assert.Equal(t, "/indexes/dc-civic/docs/index", call.path)
		assert.Equal(t, "2023-07-01-Preview", call.version)
	}

	first := (*calls)[0].actions[0]
	assert.Equal(t, "mergeOrUpload", first["@search.action"])
	assert.Equal(t, "doc-a", first["id"])
	assert.Equal(t, []any{"anc"}, first["tags"])
}

func TestUploadPartialFailure(t *testing.T) {
	srv, _ := newIndexServer(t, http.StatusMultiStatus, map[string]string{"doc-b": "content too large"})
	ix := NewIndexer(searchConfig(srv.URL), 0, nil)

	res, err := ix.Upload(context.Background(), testDocs(3))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Uploaded)
	assert.Equal(t, []Failure{{Key: "doc-b", StatusCode: 400, Message: "content too large"}}, res.Failed)
}

func TestUploadUpstreamError(t *testing.T) {
	srv, calls := newIndexServer(t, http.StatusNotFound, nil)
	ix := NewIndexer(searchConfig(srv.URL), 1, nil)

	res, err := ix.Upload(context.Background(), testDocs(3))

	var upstream *civic.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.Equal(t, "index", upstream.Op)
	assert.Contains(t, err.Error(), "index not found")
	assert.Zero(t, res.Uploaded)
	assert.Len(t, *calls, 1)
}

func TestUploadFallsBackToQueryKey(t *testing.T) {
	srv, calls := newIndexServer(t, http.StatusOK, nil)
	cfg := searchConfig(srv.URL)
	cfg.AdminKey = ""

	_, err := NewIndexer(cfg, 0, nil).Upload(context.Background(), testDocs(1))
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.Equal(t, "query-key", (*calls)[0].key)
}

func TestUploadUnconfigured(t *testing.T) {
	ix := NewIndexer(config.SearchConfig{}, 0, nil)

	_, err := ix.Upload(context.Background(), testDocs(1))
	assert.ErrorIs(t, err, civic.ErrUpstreamUnavailable)

	res, err := ix.Upload(context.Background(), nil)
	assert.NoError(t, err)
	assert.Zero(t, res.Uploaded)
}
