package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"go.uber.org/zap"
)

// Translator converts text into the target language
type Translator interface {
	Translate(ctx context.Context, text, to string) (string, error)
}

// AzureTranslator calls the Azure AI Translator v3 REST API
type AzureTranslator struct {
	cfg        config.TranslatorConfig
	httpClient *http.Client
}

type translateItem struct {
	Text string `json:"Text"`
}

type translateResult struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

func NewAzureTranslator(cfg config.TranslatorConfig) *AzureTranslator {
	return &AzureTranslator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Translate submits text for translation and returns the first translation
func (t *AzureTranslator) Translate(ctx context.Context, text, to string) (string, error) {
	b, err := json.Marshal([]translateItem{{Text: text}})
	if err != nil {
		return "", fmt.Errorf("failed to encode translation request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/translate?api-version=3.0&to=%s", t.cfg.Endpoint, url.QueryEscape(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", &civic.UpstreamError{Service: "translation", Op: "translate", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", t.cfg.Key)
	if t.cfg.Region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", t.cfg.Region)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", &civic.UpstreamError{Service: "translation", Op: "translate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &civic.UpstreamError{
			Service:    "translation",
			Op:         "translate",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(detail))),
		}
	}

	var results []translateResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", &civic.UpstreamError{Service: "translation", Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}
	if len(results) == 0 || len(results[0].Translations) == 0 {
		return "", &civic.UpstreamError{Service: "translation", Op: "decode", StatusCode: resp.StatusCode, Err: errors.New("empty translation array")}
	}

	translated := results[0].Translations[0].Text
	if strings.TrimSpace(translated) == "" {
		return "", &civic.UpstreamError{Service: "translation", Op: "decode", StatusCode: resp.StatusCode, Err: errors.New("empty translation")}
	}

	return translated, nil
}

// Normalizer delivers text in the reader's language without ever blocking on translation failures
type Normalizer struct {
	translator Translator // nil when translation is not configured
	source     string
	logger     *zap.Logger
}

// New builds a normalizer backed by Azure Translator, or an identity normalizer when it is not configured
func New(cfg config.TranslatorConfig, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}

	var tr Translator
	if cfg.Available() {
		tr = NewAzureTranslator(cfg)
	} else {
		logger.Warn("translation is not configured, replies will not be translated")
	}

	return NewNormalizer(tr, cfg.SourceLanguage, logger)
}

func NewNormalizer(tr Translator, source string, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(source) == "" {
		source = config.DefaultSourceLanguage
	}
	return &Normalizer{
		translator: tr,
		source:     source,
		logger:     logger,
	}
}

// Normalize returns text in the target language. The text comes back unchanged when the target is empty,
// matches the source language, translation is unavailable, or the translation attempt fails
func (n *Normalizer) Normalize(ctx context.Context, text, target string) string {
	target = strings.TrimSpace(target)
	if target == "" || SameLanguage(target, n.source) || n.translator == nil || strings.TrimSpace(text) == "" {
		return text
	}

	translated, err := n.translator.Translate(ctx, text, target)
	if err != nil {
		n.logger.Warn("translation failed, returning original text",
			zap.String("service", "translation"),
			zap.String("to", target),
			zap.Error(err),
		)
		return text
	}

	return translated
}

// SameLanguage compares the primary subtags of two language codes, so "en-US" matches "en"
func SameLanguage(a, b string) bool {
	return strings.EqualFold(primary(a), primary(b))
}

func primary(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		return code[:i]
	}
	return code
}
