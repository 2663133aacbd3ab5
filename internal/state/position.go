package state

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cusdScope/internal/accounting"
	"cusdScope/internal/casper"
	"cusdScope/internal/events"
	"cusdScope/internal/model"
)

// healthUnknown is reported when no price is available to rate a vault
// with debt.
const healthUnknown = "unknown"

// Position reads the vault, price and params of owner concurrently and
// derives the vault page figures. It returns nil if the vault does not
// exist.
func (s *Service) Position(ctx context.Context, owner string) *model.VaultPosition {
	var (
		vault  *model.Vault
		price  *model.PriceRound
		params *model.ParamsView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { vault = s.Vault(gctx, owner); return nil })
	g.Go(func() error { price = s.Price(gctx); return nil })
	g.Go(func() error { params = s.Params(gctx); return nil })
	_ = g.Wait()

	if vault == nil {
		return nil
	}
	account, err := casper.NormalizeAccount(owner)
	if err != nil {
		account = owner
	}
	return s.derive(account, *vault, price, params)
}

func (s *Service) derive(owner string, vault model.Vault, price *model.PriceRound, view *model.ParamsView) *model.VaultPosition {
	pos := &model.VaultPosition{Owner: owner, Vault: vault, Price: price}

	params := DefaultParams()
	if view != nil {
		params = view.Params
		pos.Degraded = view.Degraded
	} else {
		pos.Degraded = true
	}
	pos.Params = &params

	if price == nil {
		pos.Health = healthUnknown
		if vault.Debt == nil || vault.Debt.Sign() == 0 {
			pos.Health = accounting.HealthNoDebt
		}
		return pos
	}

	pos.RatioBps = accounting.CollateralRatioBps(vault, price.Price)
	pos.MaxMintable = accounting.MaxMintable(vault, price.Price, params)
	pos.MaxWithdrawable = accounting.MaxWithdrawable(vault, price.Price, params)
	pos.Liquidatable = accounting.IsLiquidatable(pos.RatioBps, params)
	pos.Health = accounting.Health(pos.RatioBps, params)
	pos.PriceFresh = accounting.IsPriceFresh(price, params.MaxPriceStaleness, s.now())
	return pos
}

// LiquidatableVaults evaluates the positions of owners and returns those
// below the liquidation ratio, in input order.
func (s *Service) LiquidatableVaults(ctx context.Context, owners []string) []model.VaultPosition {
	price := s.Price(ctx)
	if price == nil {
		s.logger.Warn("no price available, skipping liquidation scan")
		return nil
	}
	params := s.Params(ctx)

	found := make([]*model.VaultPosition, len(owners))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, owner := range owners {
		i, owner := i, owner
		g.Go(func() error {
			vault := s.Vault(gctx, owner)
			if vault == nil {
				return nil
			}
			pos := s.derive(owner, *vault, price, params)
			if pos.Liquidatable {
				found[i] = pos
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []model.VaultPosition
	for _, p := range found {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// LiquidationCandidates scans the newest scan events for vault owners and
// returns the liquidatable ones.
func (s *Service) LiquidationCandidates(ctx context.Context, scan int) []model.VaultPosition {
	owners := events.Owners(s.RecentEvents(ctx, scan))
	s.logger.Debug("liquidation scan", zap.Int("owners", len(owners)))
	return s.LiquidatableVaults(ctx, owners)
}

// Snapshot bundles the dashboard's system-wide figures.
type Snapshot struct {
	Totals      *model.SystemTotals     `json:"totals"`
	Params      *model.ParamsView       `json:"params"`
	Price       *model.PriceRound       `json:"price"`
	Paused      *model.PauseFlags       `json:"paused"`
	Liquidation *model.LiquidationStats `json:"liquidation"`
	PriceFresh  bool                    `json:"price_fresh"`
}

// Snapshot reads the system-wide values concurrently.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { snap.Totals = s.SystemTotals(gctx); return nil })
	g.Go(func() error { snap.Params = s.Params(gctx); return nil })
	g.Go(func() error { snap.Price = s.Price(gctx); return nil })
	g.Go(func() error { snap.Paused = s.PauseFlags(gctx); return nil })
	g.Go(func() error { snap.Liquidation = s.LiquidationStats(gctx); return nil })
	_ = g.Wait()

	staleness := DefaultParams().MaxPriceStaleness
	if snap.Params != nil {
		staleness = snap.Params.Params.MaxPriceStaleness
	}
	snap.PriceFresh = accounting.IsPriceFresh(snap.Price, staleness, s.now())
	return snap
}
