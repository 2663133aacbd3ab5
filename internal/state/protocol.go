package state

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cusdScope/internal/cache"
	"cusdScope/internal/casper"
	"cusdScope/internal/chain"
	"cusdScope/internal/clvalue"
	"cusdScope/internal/model"
)

// Vault returns the vault of owner (public key or account hash), or nil if
// it does not exist.
func (s *Service) Vault(ctx context.Context, owner string) *model.Vault {
	account, err := casper.NormalizeAccount(owner)
	if err != nil {
		s.logger.Warn("invalid vault owner", zap.String("owner", owner), zap.Error(err))
		return nil
	}
	v, ok := cached(ctx, s, cache.Key(cache.KindVault, account), func(ctx context.Context) (model.Vault, error) {
		key, err := casper.AccountKeyBytes(account)
		if err != nil {
			return model.Vault{}, err
		}
		raw, err := s.readField(ctx, s.layout.Contracts.VaultManager, s.layout.Fields.Vaults, key)
		if err != nil {
			return model.Vault{}, err
		}
		vault, err := clvalue.DecodeVault(raw)
		if err != nil {
			return model.Vault{}, err
		}
		if vault.IsEmpty() {
			return model.Vault{}, errAbsent
		}
		return vault, nil
	})
	if !ok {
		return nil
	}
	return &v
}

// SystemTotals returns aggregate collateral, debt and vault count. Unset
// counters read as zero.
func (s *Service) SystemTotals(ctx context.Context) *model.SystemTotals {
	v, ok := cached(ctx, s, cache.KeySystem, func(ctx context.Context) (model.SystemTotals, error) {
		var totals model.SystemTotals
		vm := s.layout.Contracts.VaultManager
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			v, err := s.readU256(gctx, vm, s.layout.Fields.TotalCollateral)
			totals.TotalCollateral = v
			return err
		})
		g.Go(func() error {
			v, err := s.readU256(gctx, vm, s.layout.Fields.TotalDebt)
			totals.TotalDebt = v
			return err
		})
		g.Go(func() error {
			v, err := s.readU64(gctx, vm, s.layout.Fields.VaultCount)
			totals.VaultCount = v
			return err
		})
		if err := g.Wait(); err != nil {
			return model.SystemTotals{}, err
		}
		return totals, nil
	})
	if !ok {
		return nil
	}
	return &v
}

// PauseFlags returns the governance circuit breakers. Unset flags read as
// false.
func (s *Service) PauseFlags(ctx context.Context) *model.PauseFlags {
	v, ok := cached(ctx, s, cache.KeyPaused, func(ctx context.Context) (model.PauseFlags, error) {
		var flags model.PauseFlags
		gov := s.layout.Contracts.Governance
		g, gctx := errgroup.WithContext(ctx)
		for _, f := range []struct {
			index uint32
			dst   *bool
		}{
			{s.layout.Fields.SystemPaused, &flags.System},
			{s.layout.Fields.MintPaused, &flags.Mint},
			{s.layout.Fields.LiquidationsPaused, &flags.Liquidations},
		} {
			f := f
			g.Go(func() error {
				v, err := s.readBool(gctx, gov, f.index)
				*f.dst = v
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return model.PauseFlags{}, err
		}
		return flags, nil
	})
	if !ok {
		return nil
	}
	return &v
}

// Price returns the latest oracle round.
func (s *Service) Price(ctx context.Context) *model.PriceRound {
	v, ok := cached(ctx, s, cache.KeyPrice, func(ctx context.Context) (model.PriceRound, error) {
		raw, err := s.readField(ctx, s.layout.Contracts.Oracle, s.layout.Fields.LatestRound, nil)
		if err != nil {
			return model.PriceRound{}, err
		}
		return clvalue.DecodePriceRound(raw)
	})
	if !ok {
		return nil
	}
	return &v
}

// Balance returns the cUSD balance of owner.
func (s *Service) Balance(ctx context.Context, owner string) *big.Int {
	account, err := casper.NormalizeAccount(owner)
	if err != nil {
		s.logger.Warn("invalid balance owner", zap.String("owner", owner), zap.Error(err))
		return nil
	}
	v, ok := cached(ctx, s, cache.Key(cache.KindBalance, account), func(ctx context.Context) (*big.Int, error) {
		key, err := casper.AccountKeyBytes(account)
		if err != nil {
			return nil, err
		}
		raw, err := s.readField(ctx, s.layout.Contracts.Token, s.layout.Fields.Balances, key)
		if err != nil {
			return nil, err
		}
		return clvalue.DecodeU256(raw)
	})
	if !ok {
		return nil
	}
	return new(big.Int).Set(v)
}

// TotalSupply returns the cUSD total supply.
func (s *Service) TotalSupply(ctx context.Context) *big.Int {
	v, ok := cached(ctx, s, cache.KeyTotalSupply, func(ctx context.Context) (*big.Int, error) {
		raw, err := s.readField(ctx, s.layout.Contracts.Token, s.layout.Fields.TotalSupply, nil)
		if err != nil {
			return nil, err
		}
		return clvalue.DecodeU256(raw)
	})
	if !ok {
		return nil
	}
	return new(big.Int).Set(v)
}

// LiquidationStats returns the liquidation module tally.
func (s *Service) LiquidationStats(ctx context.Context) *model.LiquidationStats {
	v, ok := cached(ctx, s, cache.KeyLiqStats, func(ctx context.Context) (model.LiquidationStats, error) {
		raw, err := s.readField(ctx, s.layout.Contracts.Liquidation, s.layout.Fields.Stats, nil)
		if err != nil {
			return model.LiquidationStats{}, err
		}
		return clvalue.DecodeLiquidationStats(raw)
	})
	if !ok {
		return nil
	}
	return &v
}

// Params returns the governance parameters. When the governance struct is
// missing, per-field vault manager values are used and any still-missing
// field falls back to DefaultParams; the view is then marked degraded.
func (s *Service) Params(ctx context.Context) *model.ParamsView {
	v, ok := cached(ctx, s, cache.KeyParams, func(ctx context.Context) (model.ParamsView, error) {
		raw, err := s.readField(ctx, s.layout.Contracts.Governance, s.layout.Fields.Params, nil)
		if err == nil {
			p, err := clvalue.DecodeGovernanceParams(raw)
			if err != nil {
				return model.ParamsView{}, err
			}
			return model.ParamsView{Params: p}, nil
		}
		if !errors.Is(err, chain.ErrNotFound) {
			return model.ParamsView{}, err
		}
		return s.degradedParams(ctx), nil
	})
	if !ok {
		return nil
	}
	return &v
}

func (s *Service) degradedParams(ctx context.Context) model.ParamsView {
	def := DefaultParams()
	view := model.ParamsView{Params: def, Degraded: true}
	vm := s.layout.Contracts.VaultManager
	f := s.layout.Fields

	type u64Field struct {
		name  string
		index uint32
		dst   *uint64
	}
	type u256Field struct {
		name  string
		index uint32
		dst   **big.Int
	}
	u64s := []u64Field{
		{"mcr_bps", f.MCR, &view.Params.MCRBps},
		{"lr_bps", f.LR, &view.Params.LRBps},
		{"liquidation_bonus_bps", f.LiquidationBonus, &view.Params.LiquidationBonusBps},
		{"max_price_staleness", f.MaxStaleness, &view.Params.MaxPriceStaleness},
	}
	u256s := []u256Field{
		{"debt_floor", f.DebtFloor, &view.Params.DebtFloor},
		{"debt_ceiling", f.DebtCeiling, &view.Params.DebtCeiling},
	}

	missing := make([]bool, len(u64s)+len(u256s))
	g, gctx := errgroup.WithContext(ctx)
	for i, fld := range u64s {
		i, fld := i, fld
		g.Go(func() error {
			v, err := s.readU64Strict(gctx, vm, fld.index)
			if err != nil {
				missing[i] = true
				return nil
			}
			*fld.dst = v
			return nil
		})
	}
	for i, fld := range u256s {
		i, fld := len(u64s)+i, fld
		g.Go(func() error {
			v, err := s.readU256Strict(gctx, vm, fld.index)
			if err != nil {
				missing[i] = true
				return nil
			}
			*fld.dst = v
			return nil
		})
	}
	_ = g.Wait()

	for i, m := range missing {
		if !m {
			continue
		}
		if i < len(u64s) {
			view.MissingFields = append(view.MissingFields, u64s[i].name)
		} else {
			view.MissingFields = append(view.MissingFields, u256s[i-len(u64s)].name)
		}
	}
	s.logger.Warn("governance params missing, using vault manager values and defaults",
		zap.Strings("defaulted_fields", view.MissingFields))
	return view
}

func (s *Service) readU64Strict(ctx context.Context, contract string, field uint32) (uint64, error) {
	raw, err := s.readField(ctx, contract, field, nil)
	if err != nil {
		return 0, err
	}
	return clvalue.DecodeU64(raw)
}

func (s *Service) readU256Strict(ctx context.Context, contract string, field uint32) (*big.Int, error) {
	raw, err := s.readField(ctx, contract, field, nil)
	if err != nil {
		return nil, err
	}
	return clvalue.DecodeU256(raw)
}

// readU64 treats a missing value as zero.
func (s *Service) readU64(ctx context.Context, contract string, field uint32) (uint64, error) {
	v, err := s.readU64Strict(ctx, contract, field)
	if errors.Is(err, chain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("field %d: %w", field, err)
	}
	return v, nil
}

// readU256 treats a missing value as zero.
func (s *Service) readU256(ctx context.Context, contract string, field uint32) (*big.Int, error) {
	v, err := s.readU256Strict(ctx, contract, field)
	if errors.Is(err, chain.ErrNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("field %d: %w", field, err)
	}
	return v, nil
}

// readBool treats a missing value as false.
func (s *Service) readBool(ctx context.Context, contract string, field uint32) (bool, error) {
	raw, err := s.readField(ctx, contract, field, nil)
	if errors.Is(err, chain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("field %d: %w", field, err)
	}
	return clvalue.DecodeBool(raw)
}
