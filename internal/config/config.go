package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/ethanbaker/civicchat/pkg/utils"
)

const (
	DefaultPort                = "5050"
	DefaultSearchAPIVersion    = "2023-07-01-Preview"
	DefaultQueryLanguage       = "en-us"
	DefaultTop                 = 5
	DefaultOpenAIAPIVersion    = "2024-02-15-preview"
	DefaultTemperature         = 0.2
	MaxTemperature             = 0.3
	DefaultMaxTokens           = 512
	DefaultTopP                = 0.95
	DefaultSourceLanguage      = "en"
	DefaultRetrievalCacheTTL   = 5 * time.Minute
	DefaultBackendBaseURL      = "http://localhost:" + DefaultPort
	defaultSearchTimeout       = 15 * time.Second
	defaultGenerationTimeout   = 60 * time.Second
	defaultTranslatorTimeout   = 10 * time.Second
	defaultStoreDriver         = "file"
	defaultClientStoreDriver   = "sqlite"
	defaultRedisPrefix         = "civicchat:"
	defaultMinioBucket         = "civicchat"
	defaultMySQLPort           = "3306"
	defaultLogFilePathFallback = ""
)

// Config is the single, typed configuration passed into every collaborator at construction time
type Config struct {
	API        APIConfig
	Log        LogConfig
	Search     SearchConfig
	Generation GenerationConfig
	Translator TranslatorConfig
	Retrieval  RetrievalConfig
	Store      StoreConfig
	Backup     BackupConfig
	Client     ClientConfig
}

type APIConfig struct {
	Port               string
	CORSAllowedOrigins []string
	GinMode            string
}

type LogConfig struct {
	FilePath   string // empty disables the rotating file
	Production bool
}

type SearchConfig struct {
	Endpoint       string
	IndexName      string
	APIKey         string
	AdminKey       string
	APIVersion     string
	SemanticConfig string
	QueryLanguage  string
	Top            int
	Timeout        time.Duration
}

// Available reports whether every credential needed to query the index is configured
func (c SearchConfig) Available() bool {
	return len(c.missing()) == 0
}

// WriteKey is the key used to upload documents. Index writes need an admin key, which falls back to APIKey
func (c SearchConfig) WriteKey() string {
	if c.AdminKey != "" {
		return c.AdminKey
	}
	return c.APIKey
}

func (c SearchConfig) missing() []string {
	var missing []string
	if c.Endpoint == "" {
		missing = append(missing, "AZURE_SEARCH_ENDPOINT")
	}
	if c.IndexName == "" {
		missing = append(missing, "AZURE_SEARCH_INDEX_NAME")
	}
	if c.APIKey == "" {
		missing = append(missing, "AZURE_SEARCH_API_KEY")
	}
	return missing
}

type GenerationConfig struct {
	Endpoint         string
	APIKey           string
	Deployment       string
	APIVersion       string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	Timeout          time.Duration
	SystemPromptPath string
}

// Available reports whether every credential needed to call the chat completion deployment is configured
func (c GenerationConfig) Available() bool {
	return len(c.missing()) == 0
}

func (c GenerationConfig) missing() []string {
	var missing []string
	if c.Endpoint == "" {
		missing = append(missing, "AZURE_OPENAI_ENDPOINT")
	}
	if c.APIKey == "" {
		missing = append(missing, "AZURE_OPENAI_API_KEY")
	}
	if c.Deployment == "" {
		missing = append(missing, "AZURE_OPENAI_DEPLOYMENT_NAME")
	}
	return missing
}

type TranslatorConfig struct {
	Endpoint       string
	Key            string
	Region         string
	SourceLanguage string
	Timeout        time.Duration
}

// Available reports whether the translation backend can be called
func (c TranslatorConfig) Available() bool {
	return len(c.missing()) == 0
}

func (c TranslatorConfig) missing() []string {
	var missing []string
	if c.Endpoint == "" {
		missing = append(missing, "AZURE_TRANSLATOR_ENDPOINT")
	}
	if c.Key == "" {
		missing = append(missing, "AZURE_TRANSLATOR_KEY")
	}
	return missing
}

type RetrievalConfig struct {
	CacheTTL time.Duration // zero disables the cache
}

// StoreConfig selects and configures a session blob backend
type StoreConfig struct {
	Driver string // memory, file, sqlite, mysql, redis, minio
	Path   string // directory for file, database file for sqlite
	MySQL  MySQLConfig
	Redis  RedisConfig
	Minio  MinioConfig
}

type MySQLConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
}

type RedisConfig struct {
	URL    string
	Prefix string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// BackupConfig describes an optional secondary backend that receives periodic copies of the store
type BackupConfig struct {
	Store    StoreConfig
	Schedule string // cron expression, e.g. "@hourly"
}

// Enabled reports whether a backup target and schedule are both configured
func (c BackupConfig) Enabled() bool {
	return c.Store.Driver != "" && c.Schedule != ""
}

// ClientConfig configures the terminal client
type ClientConfig struct {
	BackendBaseURL string
	Store          StoreConfig
}

// CredentialPresence reports which upstream credentials are present, never their values
type CredentialPresence struct {
	OpenAI     bool `json:"OPENAI"`
	Search     bool `json:"SEARCH"`
	Translator bool `json:"TRANSLATOR"`
}

// Load maps the key/value settings into the typed configuration
func Load(cfg *utils.Config) *Config {
	return &Config{
		API: APIConfig{
			Port:               cfg.GetWithDefault("API_PORT", DefaultPort),
			CORSAllowedOrigins: cfg.GetList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			GinMode:            cfg.Get("GIN_MODE"),
		},
		Log: LogConfig{
			FilePath:   cfg.GetWithDefault("LOG_FILE_PATH", defaultLogFilePathFallback),
			Production: strings.EqualFold(cfg.Get("APP_ENV"), "production"),
		},
		Search: SearchConfig{
			Endpoint:       strings.TrimRight(cfg.Get("AZURE_SEARCH_ENDPOINT"), "/"),
			IndexName:      cfg.Get("AZURE_SEARCH_INDEX_NAME"),
			APIKey:         cfg.Get("AZURE_SEARCH_API_KEY"),
			AdminKey:       cfg.Get("AZURE_SEARCH_ADMIN_KEY"),
			APIVersion:     cfg.GetWithDefault("AZURE_SEARCH_API_VERSION", DefaultSearchAPIVersion),
			SemanticConfig: cfg.Get("AZURE_SEARCH_SEMANTIC_CONFIG"),
			QueryLanguage:  cfg.GetWithDefault("AZURE_SEARCH_QUERY_LANGUAGE", DefaultQueryLanguage),
			Top:            positive(cfg.GetIntWithDefault("AZURE_SEARCH_TOP", DefaultTop), DefaultTop),
			Timeout:        cfg.GetDurationWithDefault("AZURE_SEARCH_TIMEOUT", defaultSearchTimeout),
		},
		Generation: GenerationConfig{
			Endpoint:         strings.TrimRight(cfg.Get("AZURE_OPENAI_ENDPOINT"), "/"),
			APIKey:           cfg.Get("AZURE_OPENAI_API_KEY"),
			Deployment:       cfg.Get("AZURE_OPENAI_DEPLOYMENT_NAME"),
			APIVersion:       cfg.GetWithDefault("AZURE_OPENAI_API_VERSION", DefaultOpenAIAPIVersion),
			Temperature:      clampTemperature(cfg.GetFloatWithDefault("AZURE_OPENAI_TEMPERATURE", DefaultTemperature)),
			MaxTokens:        clampMaxTokens(cfg.GetIntWithDefault("AZURE_OPENAI_MAX_TOKENS", DefaultMaxTokens)),
			TopP:             DefaultTopP,
			Timeout:          cfg.GetDurationWithDefault("AZURE_OPENAI_TIMEOUT", defaultGenerationTimeout),
			SystemPromptPath: cfg.Get("GENERATION_SYSPROMPT_PATH"),
		},
		Translator: TranslatorConfig{
			Endpoint:       strings.TrimRight(cfg.Get("AZURE_TRANSLATOR_ENDPOINT"), "/"),
			Key:            cfg.Get("AZURE_TRANSLATOR_KEY"),
			Region:         cfg.Get("AZURE_TRANSLATOR_REGION"),
			SourceLanguage: cfg.GetWithDefault("SOURCE_LANGUAGE", DefaultSourceLanguage),
			Timeout:        cfg.GetDurationWithDefault("AZURE_TRANSLATOR_TIMEOUT", defaultTranslatorTimeout),
		},
		Retrieval: RetrievalConfig{
			CacheTTL: cfg.GetDurationWithDefault("RETRIEVAL_CACHE_TTL", DefaultRetrievalCacheTTL),
		},
		Store: loadStore(cfg, "STORE_", defaultStoreDriver, "data"),
		Backup: BackupConfig{
			Store:    loadStore(cfg, "STORE_BACKUP_", "", ""),
			Schedule: cfg.Get("STORE_BACKUP_SCHEDULE"),
		},
		Client: ClientConfig{
			BackendBaseURL: strings.TrimRight(cfg.GetWithDefault("BACKEND_BASE_URL", DefaultBackendBaseURL), "/"),
			Store:          loadStore(cfg, "CLIENT_STORE_", defaultClientStoreDriver, defaultClientStorePath()),
		},
	}
}

// loadStore reads a StoreConfig whose keys share a prefix, e.g. STORE_DRIVER or STORE_BACKUP_DRIVER
func loadStore(cfg *utils.Config, prefix, defaultDriver, defaultPath string) StoreConfig {
	return StoreConfig{
		Driver: strings.ToLower(cfg.GetWithDefault(prefix+"DRIVER", defaultDriver)),
		Path:   cfg.GetWithDefault(prefix+"PATH", defaultPath),
		MySQL: MySQLConfig{
			User:     cfg.Get(prefix + "MYSQL_USER"),
			Password: cfg.Get(prefix + "MYSQL_PASSWORD"),
			Host:     cfg.GetWithDefault(prefix+"MYSQL_HOST", "localhost"),
			Port:     cfg.GetWithDefault(prefix+"MYSQL_PORT", defaultMySQLPort),
			Database: cfg.Get(prefix + "MYSQL_DATABASE"),
		},
		Redis: RedisConfig{
			URL:    cfg.Get(prefix + "REDIS_URL"),
			Prefix: cfg.GetWithDefault(prefix+"REDIS_PREFIX", defaultRedisPrefix),
		},
		Minio: MinioConfig{
			Endpoint:  cfg.Get(prefix + "MINIO_ENDPOINT"),
			AccessKey: cfg.Get(prefix + "MINIO_ACCESS_KEY"),
			SecretKey: cfg.Get(prefix + "MINIO_SECRET_KEY"),
			Bucket:    cfg.GetWithDefault(prefix+"MINIO_BUCKET", defaultMinioBucket),
			Prefix:    cfg.Get(prefix + "MINIO_PREFIX"),
			UseSSL:    cfg.GetBool(prefix + "MINIO_USE_SSL"),
		},
	}
}

// Validate classifies missing upstream credentials. Each returned error wraps civic.ErrUpstreamUnavailable
// and names one component; callers log them and keep running with that component degraded
func (c *Config) Validate() []error {
	var errs []error

	if missing := c.Search.missing(); len(missing) > 0 {
		errs = append(errs, civic.Unavailable("search", missing...))
	}
	if missing := c.Generation.missing(); len(missing) > 0 {
		errs = append(errs, civic.Unavailable("generation", missing...))
	}
	if missing := c.Translator.missing(); len(missing) > 0 {
		errs = append(errs, civic.Unavailable("translator", missing...))
	}

	return errs
}

// Credentials reports the presence of the three upstream API keys for the health endpoint
func (c *Config) Credentials() CredentialPresence {
	return CredentialPresence{
		OpenAI:     c.Generation.APIKey != "",
		Search:     c.Search.APIKey != "",
		Translator: c.Translator.Key != "",
	}
}

func positive(value, fallback int) int {
	if value < 1 {
		return fallback
	}
	return value
}

func clampTemperature(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > MaxTemperature:
		return MaxTemperature
	default:
		return t
	}
}

func clampMaxTokens(n int) int {
	if n <= 0 || n > DefaultMaxTokens {
		return DefaultMaxTokens
	}
	return n
}

func defaultClientStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".civicchat", "civicchat.db")
	}
	return filepath.Join(home, ".civicchat", "civicchat.db")
}
