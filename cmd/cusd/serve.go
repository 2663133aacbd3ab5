package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cusdScope/internal/config"
	"cusdScope/internal/server"
	"cusdScope/internal/storage/postgres"
	"cusdScope/internal/tx"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
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

	contracts := cfg.Layout.Contracts
	builder := tx.NewBuilder(tx.Contracts{
		VaultManager:        contracts.VaultManager,
		VaultManagerPackage: cfg.VaultManagerPackage,
		Token:               contracts.Token,
		Oracle:              contracts.Oracle,
	})
	network, err := cfg.Network()
	if err != nil {
		return err
	}
	// Browser wallets sign; the server only relays.
	submitter := tx.NewSubmitter(client, nil, svc, tx.SubmitterConfig{
		Network:     network,
		ExplorerURL: cfg.ExplorerURL,
	}, logger)

	var archive server.Archive
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		archive = store
	}

	handler := server.New(server.Config{
		State:        svc,
		Archive:      archive,
		Builder:      builder,
		Relayer:      submitter,
		NodeURL:      cfg.NodeURL,
		Network:      network,
		ProxyTimeout: cfg.Timeout,
		CORS:         server.CORSConfig{AllowedOrigins: cfg.CORSOrigins},
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server start",
			zap.String("listen", cfg.Listen),
			zap.String("node", cfg.NodeURL),
			zap.String("chain", cfg.ChainName),
			zap.String("vault_manager", contracts.VaultManager),
			zap.Bool("archive", archive != nil),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
