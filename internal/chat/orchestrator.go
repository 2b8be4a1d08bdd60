package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethanbaker/civicchat/internal/composer"
	"github.com/ethanbaker/civicchat/internal/generator"
	"github.com/ethanbaker/civicchat/internal/retriever"
	"github.com/ethanbaker/civicchat/pkg/civic"
	"go.uber.org/zap"
)

const defaultLanguage = "en"

// Stage is a step of the per-turn pipeline
type Stage int

const (
	StageRetrieving Stage = iota
	StageComposing
	StageGenerating
	StageNormalizing
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageRetrieving:
		return "retrieving"
	case StageComposing:
		return "composing"
	case StageGenerating:
		return "generating"
	case StageNormalizing:
		return "normalizing"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageHook observes each stage transition of a turn
type StageHook func(stage Stage)

// Normalizer delivers text in the reader's language
type Normalizer interface {
	Normalize(ctx context.Context, text, target string) string
}

// Orchestrator runs one conversation turn: retrieve, compose, generate, normalize.
// It holds no conversation state; callers persist the reply
type Orchestrator struct {
	retriever  retriever.Retriever
	composer   composer.Composer
	generator  generator.Generator
	normalizer Normalizer
	limit      int
	hook       StageHook
	logger     *zap.Logger
}

type Option func(*Orchestrator)

// WithStageHook registers a hook called on every stage transition
func WithStageHook(hook StageHook) Option {
	return func(o *Orchestrator) {
		o.hook = hook
	}
}

// WithComposer overrides the default composer bounds
func WithComposer(c composer.Composer) Option {
	return func(o *Orchestrator) {
		o.composer = c
	}
}

// WithLimit sets how many documents are requested from the retriever
func WithLimit(limit int) Option {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.limit = limit
		}
	}
}

func New(r retriever.Retriever, g generator.Generator, n Normalizer, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		retriever:  r,
		composer:   composer.New(),
		generator:  g,
		normalizer: n,
		limit:      retriever.DefaultLimit,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// HandleTurn answers one user message. Only an empty message is rejected; every upstream failure
// degrades into a usable reply
func (o *Orchestrator) HandleTurn(ctx context.Context, message, lang string) (civic.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return civic.Reply{}, fmt.Errorf("failed to handle turn: %w", civic.ErrInvalidInput)
	}

	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = defaultLanguage
	}

	start := time.Now()

	o.enter(StageRetrieving)
	docs := o.retriever.Retrieve(ctx, message, o.limit)

	o.enter(StageComposing)
	selected := o.composer.Select(docs)
	contextText := o.composer.Compose(selected)

	o.enter(StageGenerating)
	answer := strings.TrimSpace(o.generator.Generate(ctx, message, contextText, lang))
	if answer == "" {
		answer = generator.FallbackNoAnswer
	}

	o.enter(StageNormalizing)
	text := answer
	if o.normalizer != nil {
		if normalized := o.normalizer.Normalize(ctx, answer, lang); strings.TrimSpace(normalized) != "" {
			text = normalized
		}
	}

	o.enter(StageDone)

	o.logger.Info("turn handled",
		zap.String("lang", lang),
		zap.Int("documents", len(selected)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return civic.Reply{
		Text:    text,
		Sources: composer.SourcesOf(selected),
	}, nil
}

func (o *Orchestrator) enter(stage Stage) {
	if o.hook != nil {
		o.hook(stage)
	}
}
