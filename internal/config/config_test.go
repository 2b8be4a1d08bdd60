package config

import (
	"errors"
	"testing"
	"time"

	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/ethanbaker/civicchat/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load(utils.NewConfig(nil))

	assert.Equal(t, "5050", cfg.API.Port)
	assert.Equal(t, []string{"*"}, cfg.API.CORSAllowedOrigins)
	assert.False(t, cfg.Log.Production)

	assert.Equal(t, DefaultSearchAPIVersion, cfg.Search.APIVersion)
	assert.Equal(t, "en-us", cfg.Search.QueryLanguage)
	assert.Equal(t, 5, cfg.Search.Top)

	assert.Equal(t, DefaultOpenAIAPIVersion, cfg.Generation.APIVersion)
	assert.InDelta(t, 0.2, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, 512, cfg.Generation.MaxTokens)
	assert.InDelta(t, 0.95, cfg.Generation.TopP, 1e-9)

	assert.Equal(t, "en", cfg.Translator.SourceLanguage)
	assert.Equal(t, 5*time.Minute, cfg.Retrieval.CacheTTL)

	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "data", cfg.Store.Path)
	assert.False(t, cfg.Backup.Enabled())

	assert.Equal(t, "http://localhost:5050", cfg.Client.BackendBaseURL)
	assert.Equal(t, "sqlite", cfg.Client.Store.Driver)
	assert.Contains(t, cfg.Client.Store.Path, "civicchat.db")
}

func TestLoadOverrides(t *testing.T) {
	cfg := Load(utils.NewConfig(map[string]string{
		"API_PORT":                     "8080",
		"CORS_ALLOWED_ORIGINS":         "http://localhost:3000,https://civicchat.dc",
		"APP_ENV":                      "Production",
		"AZURE_SEARCH_ENDPOINT":        "https://search.example.net/",
		"AZURE_SEARCH_INDEX_NAME":      "dc-civic",
		"AZURE_SEARCH_API_KEY":         "search-key",
		"AZURE_SEARCH_SEMANTIC_CONFIG": "default",
		"AZURE_SEARCH_TOP":             "3",
		"AZURE_OPENAI_ENDPOINT":        "https://openai.example.net",
		"AZURE_OPENAI_API_KEY":         "openai-key",
		"AZURE_OPENAI_DEPLOYMENT_NAME": "gpt-4o",
		"AZURE_OPENAI_TIMEOUT":         "30",
		"STORE_DRIVER":                 "SQLite",
		"STORE_PATH":                   "/var/lib/civicchat/store.db",
		"STORE_BACKUP_DRIVER":          "minio",
		"STORE_BACKUP_SCHEDULE":        "@hourly",
		"STORE_BACKUP_MINIO_ENDPOINT":  "minio:9000",
		"STORE_BACKUP_MINIO_USE_SSL":   "true",
		"BACKEND_BASE_URL":             "https://civicchat.dc/",
	}))

	assert.Equal(t, "8080", cfg.API.Port)
	assert.Equal(t, []string{"http://localhost:3000", "https://civicchat.dc"}, cfg.API.CORSAllowedOrigins)
	assert.True(t, cfg.Log.Production)

	assert.Equal(t, "https://search.example.net", cfg.Search.Endpoint)
	assert.Equal(t, "default", cfg.Search.SemanticConfig)
	assert.Equal(t, 3, cfg.Search.Top)
	assert.True(t, cfg.Search.Available())

	assert.True(t, cfg.Generation.Available())
	assert.Equal(t, 30*time.Second, cfg.Generation.Timeout)
	assert.False(t, cfg.Translator.Available())

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/var/lib/civicchat/store.db", cfg.Store.Path)

	require.True(t, cfg.Backup.Enabled())
	assert.Equal(t, "minio", cfg.Backup.Store.Driver)
	assert.Equal(t, "minio:9000", cfg.Backup.Store.Minio.Endpoint)
	assert.True(t, cfg.Backup.Store.Minio.UseSSL)
	assert.Equal(t, "civicchat", cfg.Backup.Store.Minio.Bucket)

	assert.Equal(t, "https://civicchat.dc", cfg.Client.BackendBaseURL)
}

func TestGenerationBounds(t *testing.T) {
	tests := []struct {
		name        string
		temperature string
		maxTokens   string
		wantTemp    float64
		wantTokens  int
	}{
		{"within bounds", "0.1", "256", 0.1, 256},
		{"temperature above ceiling", "0.9", "512", MaxTemperature, 512},
		{"negative temperature", "-1", "512", 0, 512},
		{"tokens above ceiling", "0.2", "4096", 0.2, 512},
		{"zero tokens", "0.2", "0", 0.2, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load(utils.NewConfig(map[string]string{
				"AZURE_OPENAI_TEMPERATURE": tt.temperature,
				"AZURE_OPENAI_MAX_TOKENS":  tt.maxTokens,
			}))
			assert.InDelta(t, tt.wantTemp, cfg.Generation.Temperature, 1e-9)
			assert.Equal(t, tt.wantTokens, cfg.Generation.MaxTokens)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		errs := Load(utils.NewConfig(nil)).Validate()
		require.Len(t, errs, 3)
		for _, err := range errs {
			assert.True(t, errors.Is(err, civic.ErrUpstreamUnavailable))
		}
		assert.ErrorContains(t, errs[0], "search")
		assert.ErrorContains(t, errs[0], "AZURE_SEARCH_API_KEY")
		assert.ErrorContains(t, errs[1], "generation")
		assert.ErrorContains(t, errs[2], "translator")
	})

	t.Run("fully configured", func(t *testing.T) {
		errs := Load(utils.NewConfig(map[string]string{
			"AZURE_SEARCH_ENDPOINT":        "https://search.example.net",
			"AZURE_SEARCH_INDEX_NAME":      "dc-civic",
			"AZURE_SEARCH_API_KEY":         "k",
			"AZURE_OPENAI_ENDPOINT":        "https://openai.example.net",
			"AZURE_OPENAI_API_KEY":         "k",
			"AZURE_OPENAI_DEPLOYMENT_NAME": "gpt-4o",
			"AZURE_TRANSLATOR_ENDPOINT":    "https://api.cognitive.microsofttranslator.com",
			"AZURE_TRANSLATOR_KEY":         "k",
		})).Validate()
		assert.Empty(t, errs)
	})
}

func TestCredentials(t *testing.T) {
	cfg := Load(utils.NewConfig(map[string]string{
		"AZURE_OPENAI_API_KEY": "secret",
		"AZURE_TRANSLATOR_KEY": "secret",
	}))

	assert.Equal(t, CredentialPresence{OpenAI: true, Search: false, Translator: true}, cfg.Credentials())
}

func TestSearchWriteKey(t *testing.T) {
	cfg := Load(utils.NewConfig(map[string]string{"AZURE_SEARCH_API_KEY": "query"}))
	assert.Equal(t, "query", cfg.Search.WriteKey())

	cfg = Load(utils.NewConfig(map[string]string{
		"AZURE_SEARCH_API_KEY":   "query",
		"AZURE_SEARCH_ADMIN_KEY": "admin",
	}))
	assert.Equal(t, "admin", cfg.Search.WriteKey())
}
