package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/internal/logger"
	"github.com/ethanbaker/civicchat/internal/stores/session"
	"github.com/ethanbaker/civicchat/pkg/sdk"
	"github.com/ethanbaker/civicchat/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile     string
	backendURL  string
	storeDriver string
	storePath   string
	language    string
)

// app holds everything a command needs once the root command has initialised
type app struct {
	store  *session.Store
	client *sdk.Client
	logger *zap.Logger
	lang   string
	out    io.Writer
}

var current *app

var rootCmd = &cobra.Command{
	Use:   "civicchat",
	Short: "Ask CivicChat about DC elections, ballots and local government",
	Long: `A terminal client for the CivicChat gateway.

Conversations are kept in a local session store (SQLite by default) and each
question is answered by the gateway's retrieval and generation pipeline.

Quick Start:
  civicchat chat                      # Start an interactive conversation
  civicchat ask "Where do I vote?"    # Ask a single question
  civicchat sessions list             # List saved conversations`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current == nil {
			return nil
		}
		defer current.logger.Sync()
		return current.store.Close()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Path to the .env file (defaults to ENV_FILE or .env)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Gateway base URL (overrides BACKEND_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Local session store driver: sqlite, file, memory, redis, mysql, minio")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "Local session store path for the sqlite and file drivers")
	rootCmd.PersistentFlags().StringVarP(&language, "lang", "l", "en", "Language code for answers")

	rootCmd.AddCommand(chatCmd, askCmd, sessionsCmd, healthCmd)
}

func newApp(ctx context.Context, out io.Writer) (*app, error) {
	if envFile == "" {
		envFile = utils.EnvFile()
	}
	cfg := config.Load(utils.NewConfigFromEnv(envFile))

	if backendURL != "" {
		cfg.Client.BackendBaseURL = backendURL
	}
	if storeDriver != "" {
		cfg.Client.Store.Driver = storeDriver
	}
	if storePath != "" {
		cfg.Client.Store.Path = storePath
	}

	// The terminal is the UI, so logs only go to the log file
	log := logger.NewFile(cfg.Log.FilePath)

	backend, err := session.OpenBackend(ctx, cfg.Client.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	store, err := session.Open(ctx, backend, logger.Module(log, "sessions"))
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	return &app{
		store:  store,
		client: sdk.NewClient(cfg.Client.BackendBaseURL),
		logger: log,
		lang:   language,
		out:    out,
	}, nil
}
