package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/internal/ingest"
	"github.com/ethanbaker/civicchat/internal/logger"
	"github.com/ethanbaker/civicchat/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile string
	batch   int
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Upload civic documents to the Azure AI Search index",
	Long: `Reads every .json file under a directory and merges the documents into the
index named by AZURE_SEARCH_INDEX_NAME. A file holds one document or an array of
documents with id, title, category, tags, content and sources fields.

Uploads use AZURE_SEARCH_ADMIN_KEY, falling back to AZURE_SEARCH_API_KEY.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			envFile = utils.EnvFile()
		}
		cfg := config.Load(utils.NewConfigFromEnv(envFile))

		log := logger.New(cfg.Log)
		defer log.Sync()

		return run(cmd.Context(), cfg, args[0], cmd.OutOrStdout(), log)
	},
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env", "", "Path to the .env file (defaults to ENV_FILE or .env)")
	rootCmd.Flags().IntVar(&batch, "batch", ingest.MaxBatch, "Documents per index request")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the documents without uploading them")
}

func run(ctx context.Context, cfg *config.Config, dir string, out io.Writer, log *zap.Logger) error {
	docs, err := ingest.LoadDir(dir)
	if err != nil {
		return err
	}
	log.Info("documents loaded", zap.String("dir", dir), zap.Int("documents", len(docs)))

	if dryRun {
		fmt.Fprintf(out, "%d documents are valid\n", len(docs))
		return nil
	}

	indexer := ingest.NewIndexer(cfg.Search, batch, logger.Module(log, "ingest"))
	res, err := indexer.Upload(ctx, docs)
	if err != nil {
		return fmt.Errorf("upload stopped after %d documents: %w", res.Uploaded, err)
	}

	fmt.Fprintf(out, "Indexed %d documents\n", res.Uploaded)
	for _, f := range res.Failed {
		fmt.Fprintf(out, "  rejected %s (%d): %s\n", f.Key, f.StatusCode, f.Message)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d documents were rejected", len(res.Failed))
	}

	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
