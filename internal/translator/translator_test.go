package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translatorConfig(endpoint string) config.TranslatorConfig {
	return config.TranslatorConfig{
		Endpoint:       endpoint,
		Key:            "translator-key",
		Region:         "eastus",
		SourceLanguage: "en",
		Timeout:        2 * time.Second,
	}
}

func TestAzureTranslatorTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, "3.0", r.URL.Query().Get("api-version"))
		assert.Equal(t, "es", r.URL.Query().Get("to"))
		assert.Equal(t, "translator-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "eastus", r.Header.Get("Ocp-Apim-Subscription-Region"))

		var body []map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "Where do I vote?", body[0]["Text"])

		_, _ = w.Write([]byte(`[{"translations":[{"text":"¿Dónde voto?","to":"es"}]}]`))
	}))
	defer srv.Close()

	got, err := NewAzureTranslator(translatorConfig(srv.URL)).Translate(context.Background(), "Where do I vote?", "es")
	require.NoError(t, err)
	assert.Equal(t, "¿Dónde voto?", got)
}

func TestAzureTranslatorErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{"server error", http.StatusInternalServerError, `{"error":{}}`, http.StatusInternalServerError},
		{"malformed", http.StatusOK, `[{"translations":`, http.StatusOK},
		{"empty array", http.StatusOK, `[]`, http.StatusOK},
		{"empty translations", http.StatusOK, `[{"translations":[]}]`, http.StatusOK},
		{"empty text", http.StatusOK, `[{"translations":[{"text":"","to":"es"}]}]`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewAzureTranslator(translatorConfig(srv.URL)).Translate(context.Background(), "hello", "es")
			require.Error(t, err)

			var upstream *civic.UpstreamError
			require.True(t, errors.As(err, &upstream))
			assert.Equal(t, "translation", upstream.Service)
			assert.Equal(t, tt.wantStatus, upstream.StatusCode)
		})
	}
}

type recordingTranslator struct {
	calls int
	out   string
	err   error
}

func (r *recordingTranslator) Translate(_ context.Context, text, to string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.out, nil
}

func TestNormalizeIdentity(t *testing.T) {
	tr := &recordingTranslator{out: "translated"}
	n := NewNormalizer(tr, "en", nil)

	for _, target := range []string{"", "en", "EN", "en-US", "en_GB", "  en  "} {
		t.Run("target "+target, func(t *testing.T) {
			assert.Equal(t, "Polls close at 8pm.", n.Normalize(context.Background(), "Polls close at 8pm.", target))
		})
	}
	assert.Zero(t, tr.calls)
}

func TestNormalizeTranslates(t *testing.T) {
	tr := &recordingTranslator{out: "Las urnas cierran a las 8pm."}
	n := NewNormalizer(tr, "en", nil)

	assert.Equal(t, "Las urnas cierran a las 8pm.", n.Normalize(context.Background(), "Polls close at 8pm.", "es"))
	assert.Equal(t, 1, tr.calls)
}

func TestNormalizeFailureReturnsOriginal(t *testing.T) {
	tr := &recordingTranslator{err: errors.New("boom")}
	n := NewNormalizer(tr, "en", nil)

	assert.Equal(t, "Polls close at 8pm.", n.Normalize(context.Background(), "Polls close at 8pm.", "fr"))
}

func TestNormalizeUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	n := New(translatorConfig(srv.URL), nil)
	assert.Equal(t, "Where do I vote?", n.Normalize(context.Background(), "Where do I vote?", "es"))
}

func TestNormalizeUnconfigured(t *testing.T) {
	n := New(config.TranslatorConfig{SourceLanguage: "en"}, nil)
	assert.Nil(t, n.translator)
	assert.Equal(t, "hello", n.Normalize(context.Background(), "hello", "es"))
}

func TestSameLanguage(t *testing.T) {
	assert.True(t, SameLanguage("en", "en"))
	assert.True(t, SameLanguage("en-US", "EN"))
	assert.True(t, SameLanguage("zh-Hans", "zh"))
	assert.False(t, SameLanguage("es", "en"))
	assert.False(t, SameLanguage("", "en"))
}
