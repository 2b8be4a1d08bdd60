package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethanbaker/civicchat/internal/api"
	"github.com/ethanbaker/civicchat/internal/chat"
	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/internal/logger"
	"github.com/ethanbaker/civicchat/internal/stores/session"
	"github.com/ethanbaker/civicchat/pkg/utils"
	"go.uber.org/zap"
)

// Start the API server
func main() {
	// Load global config
	cfg := config.Load(utils.NewConfigFromEnv(utils.EnvFile()))

	log := logger.New(cfg.Log)
	defer log.Sync()

	// Missing credentials degrade the matching stage instead of stopping the gateway
	for _, err := range cfg.Validate() {
		log.Warn("upstream not configured", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build the per-turn pipeline
	orchestrator := chat.NewFromConfig(cfg, log)

	// Open the session store
	backend, err := session.OpenBackend(ctx, cfg.Store)
	if err != nil {
		log.Fatal("failed to open session backend", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	sessions, err := session.Open(ctx, backend, logger.Module(log, "sessions"))
	if err != nil {
		log.Fatal("failed to open session store", zap.Error(err))
	}
	defer sessions.Close()

	if cfg.Backup.Enabled() {
		target, err := session.OpenBackend(ctx, cfg.Backup.Store)
		if err != nil {
			log.Fatal("failed to open backup backend", zap.String("driver", cfg.Backup.Store.Driver), zap.Error(err))
		}

		backups, err := session.ScheduleBackups(sessions, target, cfg.Backup.Schedule, logger.Module(log, "backups"))
		if err != nil {
			log.Fatal("failed to schedule backups", zap.Error(err))
		}
		defer backups.Stop()
	}

	// Start
	err = api.Serve(ctx, api.Dependencies{
		Config:   cfg,
		Turns:    orchestrator,
		Sessions: sessions,
		Logger:   log,
	})
	if err != nil {
		log.Error("gateway stopped", zap.Error(err))
	}
}
