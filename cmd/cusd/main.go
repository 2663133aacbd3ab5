package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cusdScope/internal/cache"
	"cusdScope/internal/chain"
	"cusdScope/internal/config"
	"cusdScope/internal/state"
)

func main() {
	root := &cobra.Command{
		Use:          "cusd",
		Short:        "cUSD stablecoin client back-end for Casper",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("node", "", "Casper node JSON-RPC URL")
	root.PersistentFlags().String("vault-manager", "", "vault manager contract hash")
	root.PersistentFlags().String("token", "", "cUSD token contract hash")
	root.PersistentFlags().String("oracle", "", "price oracle contract hash")
	root.PersistentFlags().String("governance", "", "governance contract hash")
	root.PersistentFlags().String("liquidation", "", "liquidation module contract hash")
	root.PersistentFlags().String("cache-ttl", "", "cache TTL overrides (comma-separated key=duration)")
	root.PersistentFlags().Int("concurrency", 8, "parallel node reads")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API, RPC proxy and payment endpoints",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	addTxFlags(serveCmd)
	serveCmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (default *)")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN of the event archive (serves account activity)")
	root.AddCommand(serveCmd)

	txCmd := &cobra.Command{
		Use:   "tx <entry-point>",
		Short: "Sign a protocol call with a local secret key and submit it",
		Args:  cobra.ExactArgs(1),
		RunE:  runTx,
	}
	addTxFlags(txCmd)
	txCmd.Flags().String("secret-key", "", "secret key PEM file (ed25519 or secp256k1)")
	txCmd.Flags().String("amount", "", "amount in CSPR, cUSD or dollars depending on the entry point")
	txCmd.Flags().String("account", "", "recipient, spender or vault owner")
	root.AddCommand(txCmd)

	syncCmd := &cobra.Command{
		Use:   "sync-events",
		Short: "Archive the vault manager event log",
		RunE:  runSync,
	}
	syncCmd.Flags().String("storage", "jsonl", "event archive backend (jsonl, postgres)")
	syncCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	syncCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	syncCmd.Flags().String("checkpoint", "./data/events_checkpoint.json", "checkpoint file path (jsonl storage)")
	syncCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	syncCmd.Flags().String("state-name", "vault_manager_events", "cursor name in indexer_state (postgres storage)")
	syncCmd.Flags().Uint64("from", 0, "first event index (inclusive)")
	syncCmd.Flags().Uint64("to", 0, "last event index (inclusive), 0 means latest")
	syncCmd.Flags().Uint64("batch-size", 100, "events per batch")
	root.AddCommand(syncCmd)

	positionCmd := &cobra.Command{
		Use:   "position <public-key|account-hash>",
		Short: "Show a vault position",
		Args:  cobra.ExactArgs(1),
		RunE:  runPosition,
	}
	positionCmd.Flags().Bool("json", false, "print JSON")
	root.AddCommand(positionCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show system totals, parameters and price",
		RunE:  runStatus,
	}
	statusCmd.Flags().Bool("json", false, "print JSON")
	statusCmd.Flags().Bool("candidates", false, "also list liquidatable vaults")
	statusCmd.Flags().Int("scan", 500, "recent events scanned for liquidation candidates")
	root.AddCommand(statusCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openState dials the node and builds the state service on top of it.
func openState(ctx context.Context, node config.Node, logger *zap.Logger) (*chain.Client, *state.Service, error) {
	if err := node.RequireContracts("vault-manager"); err != nil {
		return nil, nil, err
	}
	client, err := chain.NewClient(ctx, node.NodeURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}
	svc := state.NewService(state.Options{
		Reader:      client,
		Cache:       cache.New(node.CachePolicy),
		Layout:      node.Layout,
		Logger:      logger,
		Concurrency: node.Concurrency,
	})
	return client, svc, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func addTxFlags(cmd *cobra.Command) {
	cmd.Flags().String("chain-name", "casper", "network name used in transactions")
	cmd.Flags().String("explorer", "https://cspr.live", "block explorer base URL")
	cmd.Flags().String("vault-manager-package", "", "vault manager package hash for payable calls")
	cmd.Flags().Duration("tx-ttl", 0, "transaction time-to-live (default 30m)")
	cmd.Flags().String("proxy-caller", "", "proxy caller session wasm for payable calls")
}
