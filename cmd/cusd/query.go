package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cusdScope/internal/casper"
	"cusdScope/internal/config"
	"cusdScope/internal/fixedpoint"
	"cusdScope/internal/model"
	"cusdScope/internal/state"
)

func runPosition(cmd *cobra.Command, args []string) error {
	owner, err := casper.NormalizeAccount(args[0])
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	svc, _, done, err := queryState(cmd)
	if err != nil {
		return err
	}
	defer done()

	pos := svc.Position(cmd.Context(), owner)
	if pos == nil {
		return fmt.Errorf("no vault for %s", owner)
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), pos)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "owner\t%s\n", pos.Owner)
	fmt.Fprintf(tw, "collateral\t%s CSPR\n", fixedpoint.FormatCollateral(pos.Vault.Collateral))
	fmt.Fprintf(tw, "debt\t%s cUSD\n", fixedpoint.FormatStablecoin(pos.Vault.Debt))
	fmt.Fprintf(tw, "ratio\t%s\n", fixedpoint.FormatRatio(pos.RatioBps))
	fmt.Fprintf(tw, "health\t%s\n", pos.Health)
	if pos.MaxMintable != nil {
		fmt.Fprintf(tw, "max mintable\t%s cUSD\n", fixedpoint.FormatStablecoin(pos.MaxMintable))
	}
	if pos.MaxWithdrawable != nil {
		fmt.Fprintf(tw, "max withdrawable\t%s CSPR\n", fixedpoint.FormatCollateral(pos.MaxWithdrawable))
	}
	if pos.Price != nil {
		fmt.Fprintf(tw, "price\t%s (fresh: %t)\n", fixedpoint.FormatPrice(pos.Price.Price), pos.PriceFresh)
	}
	if pos.Degraded {
		fmt.Fprintf(tw, "params\tdefaults in use\n")
	}
	return tw.Flush()
}

type statusView struct {
	state.Snapshot
	Supply     *big.Int              `json:"supply"`
	Candidates []model.VaultPosition `json:"candidates,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	svc, cfg, done, err := queryState(cmd)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	view := statusView{Snapshot: svc.Snapshot(ctx), Supply: svc.TotalSupply(ctx)}
	if withCandidates, _ := cmd.Flags().GetBool("candidates"); withCandidates {
		view.Candidates = svc.LiquidationCandidates(ctx, cfg.Scan)
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), view)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if t := view.Totals; t != nil {
		fmt.Fprintf(tw, "total collateral\t%s CSPR\n", fixedpoint.FormatCollateral(t.TotalCollateral))
		fmt.Fprintf(tw, "total debt\t%s cUSD\n", fixedpoint.FormatStablecoin(t.TotalDebt))
		fmt.Fprintf(tw, "vaults\t%d\n", t.VaultCount)
	}
	if view.Supply != nil {
		fmt.Fprintf(tw, "cUSD supply\t%s\n", fixedpoint.FormatStablecoin(view.Supply))
	}
	if p := view.Price; p != nil {
		fmt.Fprintf(tw, "price\t%s round %d (fresh: %t)\n", fixedpoint.FormatPrice(p.Price), p.RoundID, view.PriceFresh)
	} else {
		fmt.Fprintf(tw, "price\tunavailable\n")
	}
	if pv := view.Params; pv != nil {
		fmt.Fprintf(tw, "min collateral ratio\t%s\n", fixedpoint.FormatBps(pv.Params.MCRBps))
		fmt.Fprintf(tw, "liquidation ratio\t%s\n", fixedpoint.FormatBps(pv.Params.LRBps))
		fmt.Fprintf(tw, "liquidation bonus\t%s\n", fixedpoint.FormatBps(pv.Params.LiquidationBonusBps))
		if pv.Degraded {
			fmt.Fprintf(tw, "params\tdefaults in use for %v\n", pv.MissingFields)
		}
	}
	if f := view.Paused; f != nil {
		fmt.Fprintf(tw, "paused\tsystem=%t mint=%t liquidations=%t\n", f.System, f.Mint, f.Liquidations)
	}
	if l := view.Liquidation; l != nil {
		fmt.Fprintf(tw, "liquidations\t%d (%s cUSD repaid)\n", l.TotalLiquidations, fixedpoint.FormatStablecoin(l.TotalDebtRepaid))
	}
	for _, c := range view.Candidates {
		fmt.Fprintf(tw, "liquidatable\t%s at %s\n", c.Owner, fixedpoint.FormatRatio(c.RatioBps))
	}
	return tw.Flush()
}

func queryState(cmd *cobra.Command) (*state.Service, config.QueryConfig, func(), error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuery(cfgFile, cmd.Flags())
	if err != nil {
		return nil, cfg, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, cfg, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd.SetContext(ctx)
	client, svc, err := openState(ctx, cfg.Node, logger)
	if err != nil {
		stop()
		_ = logger.Sync()
		return nil, cfg, nil, err
	}
	return svc, cfg, func() {
		client.Close()
		stop()
		_ = logger.Sync()
	}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
