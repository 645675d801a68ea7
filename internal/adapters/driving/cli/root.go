// Package cli implements the tablesync command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lakeway-labs/tablesync-cli/internal/adapters/driven/baserow"
	"github.com/lakeway-labs/tablesync-cli/internal/adapters/driven/elastic"
	"github.com/lakeway-labs/tablesync-cli/internal/adapters/driven/embedding/openai"
	filestate "github.com/lakeway-labs/tablesync-cli/internal/adapters/driven/state/file"
	sqlitestate "github.com/lakeway-labs/tablesync-cli/internal/adapters/driven/state/sqlite"
	"github.com/lakeway-labs/tablesync-cli/internal/adapters/driven/token"
	"github.com/lakeway-labs/tablesync-cli/internal/config"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
	"github.com/lakeway-labs/tablesync-cli/internal/core/services"
	"github.com/lakeway-labs/tablesync-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgFile      string
	verbose      bool
	stateBackend string
)

var rootCmd = &cobra.Command{
	Use:   "tablesync",
	Short: "Synchronise table records into a search index",
	Long: `tablesync is a checkpointed sync pipeline: it pages through a hosted
table, enriches new records with vector embeddings, and upserts them
into a search index. Progress is checkpointed so interrupted runs
resume where they left off.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.toml", "path to the TOML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&stateBackend, "state-backend", "", "override the state backend (file or sqlite)")
}

// loadConfig reads the configuration and applies command-line overrides.
// When the config flag was left at its default and no such file exists,
// the run proceeds on defaults plus TABLESYNC_* environment variables, so
// a fully env-driven invocation needs no file at all. An explicitly
// passed path must exist.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if !rootCmd.PersistentFlags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if stateBackend != "" {
		cfg.State.Backend = stateBackend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// stateStores bundles the two state interfaces with their closer.
type stateStores struct {
	checkpoints driven.CheckpointStore
	failures    driven.FailureLog
	close       func() error
}

// openState constructs the configured state backend.
func openState(cfg *config.Config) (*stateStores, error) {
	dir, err := cfg.State.DataDir()
	if err != nil {
		return nil, err
	}

	switch cfg.State.Backend {
	case "sqlite":
		store, err := sqlitestate.NewStore(dir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite state: %w", err)
		}
		return &stateStores{
			checkpoints: store.CheckpointStore(),
			failures:    store.FailureLog(),
			close:       store.Close,
		}, nil

	default: // file
		checkpoints, err := filestate.NewCheckpointStore(filepath.Join(dir, "checkpoint.json"))
		if err != nil {
			return nil, err
		}
		failures, err := filestate.NewFailureLog(filepath.Join(dir, "failures.json"))
		if err != nil {
			return nil, err
		}
		return &stateStores{
			checkpoints: checkpoints,
			failures:    failures,
			close:       func() error { return nil },
		}, nil
	}
}

// buildSyncService wires the full pipeline from configuration. The returned
// closer releases the embedding provider and state backend.
func buildSyncService(cfg *config.Config, state *stateStores) (*services.SyncService, func() error, error) {
	source, err := baserow.NewClient(baserow.Config{
		BaseURL:  cfg.Source.BaseURL,
		Token:    cfg.Source.Token,
		TableID:  strconv.Itoa(cfg.Source.TableID),
		PageSize: cfg.Source.PageSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("configuring source: %w", err)
	}

	index, err := elastic.NewIndex(elastic.Config{
		URL:    cfg.Index.URL,
		Name:   cfg.Index.Name,
		APIKey: cfg.Index.APIKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("configuring index: %w", err)
	}

	var enricher *services.Enricher
	closer := func() error { return nil }
	if cfg.Embedding.Enabled() {
		embedder, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("configuring embedding provider: %w", err)
		}

		tokenizer, err := token.NewTokenizer(embedder.ModelName())
		if err != nil {
			embedder.Close()
			return nil, nil, fmt.Errorf("loading tokenizer: %w", err)
		}

		enricher = services.NewEnricher(embedder, tokenizer, source,
			cfg.Embedding.MaxInputTokens, cfg.Embedding.Pause)
		closer = embedder.Close
	} else {
		logger.Warn("No embedding API key configured, records sync without enrichment")
	}

	svc := services.NewSyncService(source, index, enricher, state.checkpoints, state.failures, services.SyncConfig{
		PageSize:             cfg.Source.PageSize,
		ExpectedTotalRecords: cfg.Source.ExpectedTotalRecords,
	})
	return svc, closer, nil
}
