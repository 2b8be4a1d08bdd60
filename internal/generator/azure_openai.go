package generator

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ethanbaker/civicchat/internal/composer"
	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/azure"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

// AzureOpenAI calls a chat completion deployment on Azure OpenAI
type AzureOpenAI struct {
	client       openai.Client
	cfg          config.GenerationConfig
	instructions string
	logger       *zap.Logger
}

func NewAzureOpenAI(cfg config.GenerationConfig, logger *zap.Logger) *AzureOpenAI {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)

	return &AzureOpenAI{
		client:       client,
		cfg:          cfg,
		instructions: LoadInstructions(cfg.SystemPromptPath),
		logger:       logger,
	}
}

// Generate asks the deployment for an answer. Transport and auth failures yield FallbackUnavailable,
// an empty completion yields FallbackNoAnswer
func (g *AzureOpenAI) Generate(ctx context.Context, message, contextText, lang string) string {
	if strings.TrimSpace(contextText) == "" {
		contextText = composer.EmptyContext
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.cfg.Deployment),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(g.instructions, contextText, lang)),
			openai.UserMessage(message),
		},
		Temperature: openai.Float(g.cfg.Temperature),
		MaxTokens:   openai.Int(int64(g.cfg.MaxTokens)),
		TopP:        openai.Float(g.cfg.TopP),
	})
	if err != nil {
		upstream := &civic.UpstreamError{Service: "generation", Op: "chat completion", Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			upstream.StatusCode = apiErr.StatusCode
		}
		g.logger.Error("chat completion failed",
			zap.String("service", "generation"),
			zap.Int("status", upstream.StatusCode),
			zap.Error(upstream),
		)
		return FallbackUnavailable
	}

	if len(resp.Choices) == 0 {
		g.logger.Warn("chat completion returned no choices")
		return FallbackNoAnswer
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return FallbackNoAnswer
	}
	return answer
}
