package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cusdScope/internal/config"
	"cusdScope/internal/indexer"
	"cusdScope/internal/storage"
	"cusdScope/internal/storage/postgres"
)

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, svc, err := openState(ctx, cfg.Node, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	var (
		sink   storage.Storage
		cursor indexer.Cursor
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		sink = store
		cursor = indexer.NewStateCursor(store, cfg.StateName)
	default:
		sink = storage.NewJsonlStorage(cfg.Out)
		cursor = indexer.NewCheckpointStore(cfg.Checkpoint, cfg.CheckpointEnabled)
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		FromIndex:   cfg.FromIndex,
		ToIndex:     cfg.ToIndex,
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
		Contract:    cfg.Layout.Contracts.VaultManager,
	}, svc, sink, cursor, logger)

	logger.Info("sync start",
		zap.String("node", cfg.NodeURL),
		zap.String("vault_manager", cfg.Layout.Contracts.VaultManager),
		zap.String("storage", cfg.Storage),
		zap.Uint64("from", cfg.FromIndex),
		zap.Uint64("to", cfg.ToIndex),
		zap.Uint64("batch_size", cfg.BatchSize),
	)

	sum, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("sync done",
		zap.Uint64("from", sum.From),
		zap.Uint64("to", sum.To),
		zap.Int("written", sum.Written),
		zap.Int("failed", sum.Failed),
		zap.Int("skipped", sum.Skipped),
		zap.Bool("up_to_date", sum.UpToDate),
	)
	return nil
}
