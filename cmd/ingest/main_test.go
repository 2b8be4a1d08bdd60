package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func docsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "elections.json"), []byte(`[
		{"id": "primary-2026", "title": "2026 Primary"},
		{"id": "ballot-measures", "title": "Ballot measures"}
	]`), 0o644))
	return dir
}

func testConfig(endpoint string) *config.Config {
	return &config.Config{Search: config.SearchConfig{
		Endpoint:   endpoint,
		IndexName:  "dc-civic",
		AdminKey:   "admin",
		APIVersion: "2023-07-01-Preview",
		Timeout:    time.Second,
	}}
}

func TestRunUploads(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMultiStatus)
		w.Write([]byte(`{"value":[
			{"key":"primary-2026","status":true,"statusCode":200},
			{"key":"ballot-measures","status":false,"statusCode":400,"errorMessage":"bad field"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	out := &bytes.Buffer{}
	err := run(context.Background(), testConfig(srv.URL), docsDir(t), out, zap.NewNop())
	assert.EqualError(t, err, "1 documents were rejected")
	assert.Equal(t, 1, calls)
	assert.Contains(t, out.String(), "Indexed 1 documents")
	assert.Contains(t, out.String(), "rejected ballot-measures (400): bad field")
}

func TestRunDryRun(t *testing.T) {
	dryRun = true
	t.Cleanup(func() { dryRun = false })

	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), testConfig("http://127.0.0.1:0"), docsDir(t), out, zap.NewNop()))
	assert.Equal(t, "2 documents are valid\n", out.String())
}
