package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cusdScope/internal/config"
	"cusdScope/internal/tx"
)

func runTx(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTx(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetString("amount")
	account, _ := cmd.Flags().GetString("account")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	network, err := cfg.Network()
	if err != nil {
		return err
	}
	wallet, err := tx.LoadKeyWallet(cfg.SecretKey)
	if err != nil {
		return err
	}

	contracts := cfg.Layout.Contracts
	builder := tx.NewBuilder(tx.Contracts{
		VaultManager:        contracts.VaultManager,
		VaultManagerPackage: cfg.VaultManagerPackage,
		Token:               contracts.Token,
		Oracle:              contracts.Oracle,
	})
	call, err := builder.Build(tx.Operation{EntryPoint: args[0], Amount: amount, Account: account})
	if err != nil {
		return err
	}

	client, svc, err := openState(ctx, cfg.Node, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	submitter := tx.NewSubmitter(client, wallet, svc, tx.SubmitterConfig{
		Network:     network,
		ExplorerURL: cfg.ExplorerURL,
	}, logger)
	receipt, err := submitter.Submit(ctx, call)
	if err != nil {
		return err
	}
	logger.Info("transaction accepted", zap.String("hash", receipt.TransactionHash))
	return printJSON(cmd.OutOrStdout(), receipt)
}
