package chat

import (
	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/internal/generator"
	"github.com/ethanbaker/civicchat/internal/logger"
	"github.com/ethanbaker/civicchat/internal/retriever"
	"github.com/ethanbaker/civicchat/internal/translator"
	"go.uber.org/zap"
)

// NewFromConfig builds the orchestrator and its upstream clients from the loaded configuration.
// The retrieval limit follows AZURE_SEARCH_TOP
func NewFromConfig(cfg *config.Config, log *zap.Logger, opts ...Option) *Orchestrator {
	opts = append([]Option{WithLimit(cfg.Search.Top)}, opts...)

	return New(
		retriever.New(cfg.Search, cfg.Retrieval, logger.Module(log, "retriever")),
		generator.New(cfg.Generation, logger.Module(log, "generator")),
		translator.New(cfg.Translator, logger.Module(log, "translator")),
		logger.Module(log, "orchestrator"),
		opts...,
	)
}
