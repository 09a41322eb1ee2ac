package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jandrana/vectordb"
	"github.com/jandrana/vectordb/config"
	"github.com/jandrana/vectordb/embedding/cohere"
	"github.com/jandrana/vectordb/wal"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "vectordb",
		Short:         "Embedded document store with keyword and vector search",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newCompactCmd(&configPath))
	return cmd
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// openStore builds the store from configuration. withEmbedder controls
// whether the embedding provider is wired; maintenance commands skip it.
func openStore(cfg *config.Config, logger *slog.Logger, withEmbedder bool) (*vectordb.Store, error) {
	opts := []vectordb.Option{
		vectordb.WithLogger(logger),
	}
	if cfg.Store.Compress {
		opts = append(opts, vectordb.WithCompression(cfg.Store.CompressionLevel))
	}
	if cfg.Store.Durability == "async" {
		opts = append(opts, vectordb.WithDurability(wal.DurabilityAsync))
	}
	if cfg.Store.ArchiveOnCompact {
		opts = append(opts, vectordb.WithArchiveOnCompact())
	}

	if withEmbedder && cfg.Embedding.Provider == "cohere" && cfg.Embedding.APIKey != "" {
		provider, err := cohere.New(cfg.Embedding.APIKey, func(o *cohere.Options) {
			if cfg.Embedding.Model != "" {
				o.Model = cfg.Embedding.Model
			}
			if cfg.Embedding.RequestsPerMinute > 0 {
				o.RequestsPerMinute = cfg.Embedding.RequestsPerMinute
			}
			if cfg.Embedding.MaxRetries > 0 {
				o.MaxRetries = cfg.Embedding.MaxRetries
			}
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, vectordb.WithEmbedder(provider))
	} else if withEmbedder {
		logger.Warn("no embedding provider configured, knn search and indexing are disabled")
	}

	return vectordb.Open(cfg.Store.Path, opts...)
}
