package generator

import (
	"context"
	"strings"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/pkg/prompt"
	"github.com/ethanbaker/civicchat/pkg/utils"
	"go.uber.org/zap"
)

const (
	// FallbackNoAnswer is returned when the model produced no usable text
	FallbackNoAnswer = "I wasn't able to generate an answer."

	// FallbackUnavailable is returned when the answer service could not be reached or is not configured
	FallbackUnavailable = "Error contacting the answer service."
)

// DefaultInstructions are the fixed behavioural instructions of the system message
const DefaultInstructions = `You are CivicChat, an AI assistant that helps people understand Washington DC elections, ballot items, local government, city services, and the difference between local, state, and federal government.

Use ONLY the information in the provided documents when answering.
If the documents do not contain an answer, say you don't have that information and suggest where they might find it (such as the DC Board of Elections, DC Council, or official DC government websites).
Keep answers brief, clear, and non-partisan.
If the user is asking about how to contact an official or request a city service, point them to 311 or the relevant DC agency from the context.
Answer in the language identified by the language code below.`

// Generator produces an answer grounded in the composed context. It always returns a string
type Generator interface {
	Generate(ctx context.Context, message, contextText, lang string) string
}

// New builds the Azure OpenAI generator, or one that always returns FallbackUnavailable when
// the deployment is not configured
func New(cfg config.GenerationConfig, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Available() {
		logger.Warn("generation is not configured, answers will use the fallback")
		return Unavailable{}
	}
	return NewAzureOpenAI(cfg, logger)
}

// Unavailable answers every question with FallbackUnavailable
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string, string, string) string {
	return FallbackUnavailable
}

// LoadInstructions reads instruction overrides from path, falling back to DefaultInstructions
func LoadInstructions(path string) string {
	return utils.LoadPromptWithFallback(path, DefaultInstructions)
}

// SystemPrompt assembles the system message from the instructions, the language code and the composed context
func SystemPrompt(instructions, contextText, lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = "en"
	}

	return prompt.NewBuilder(instructions).
		AddFact("Language code", lang).
		AddSection("Documents from the CivicChat knowledge base", contextText).
		Build()
}
