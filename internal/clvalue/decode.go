package clvalue

import (
	"fmt"
	"math/big"

	"cusdScope/internal/model"
)

// Top-level values are wrapped in a 4-byte length prefix that is skipped,
// not validated. Struct fields follow in declaration order with no tags.

func framed(b []byte) (*Reader, error) {
	r := NewReader(b)
	if err := r.SkipLengthPrefix(); err != nil {
		return nil, err
	}
	return r, nil
}

// DecodeVault decodes collateral, debt, created_at and updated_at.
func DecodeVault(b []byte) (model.Vault, error) {
	var v model.Vault
	r, err := framed(b)
	if err != nil {
		return v, fmt.Errorf("decode vault: %w", err)
	}
	if v.Collateral, err = r.ReadU256(); err != nil {
		return v, fmt.Errorf("decode vault collateral: %w", err)
	}
	if v.Debt, err = r.ReadU256(); err != nil {
		return v, fmt.Errorf("decode vault debt: %w", err)
	}
	if v.CreatedAt, err = r.ReadU64(); err != nil {
		return v, fmt.Errorf("decode vault created_at: %w", err)
	}
	if v.UpdatedAt, err = r.ReadU64(); err != nil {
		return v, fmt.Errorf("decode vault updated_at: %w", err)
	}
	return v, nil
}

// DecodeGovernanceParams decodes mcr, lr, bonus, staleness, floor and ceiling.
func DecodeGovernanceParams(b []byte) (model.GovernanceParams, error) {
	var p model.GovernanceParams
	r, err := framed(b)
	if err != nil {
		return p, fmt.Errorf("decode params: %w", err)
	}
	for _, f := range []struct {
		name string
		dst  *uint64
	}{
		{"mcr", &p.MCRBps},
		{"lr", &p.LRBps},
		{"liquidation_bonus", &p.LiquidationBonusBps},
		{"max_price_staleness", &p.MaxPriceStaleness},
	} {
		if *f.dst, err = r.ReadU64(); err != nil {
			return p, fmt.Errorf("decode params %s: %w", f.name, err)
		}
	}
	if p.DebtFloor, err = r.ReadU256(); err != nil {
		return p, fmt.Errorf("decode params debt_floor: %w", err)
	}
	if p.DebtCeiling, err = r.ReadU256(); err != nil {
		return p, fmt.Errorf("decode params debt_ceiling: %w", err)
	}
	return p, nil
}

// DecodePriceRound decodes price, timestamp and round id.
func DecodePriceRound(b []byte) (model.PriceRound, error) {
	var p model.PriceRound
	r, err := framed(b)
	if err != nil {
		return p, fmt.Errorf("decode price round: %w", err)
	}
	if p.Price, err = r.ReadU256(); err != nil {
		return p, fmt.Errorf("decode price round price: %w", err)
	}
	if p.Timestamp, err = r.ReadU64(); err != nil {
		return p, fmt.Errorf("decode price round timestamp: %w", err)
	}
	if p.RoundID, err = r.ReadU64(); err != nil {
		return p, fmt.Errorf("decode price round id: %w", err)
	}
	return p, nil
}

// DecodeLiquidationStats decodes count, debt repaid and collateral seized.
func DecodeLiquidationStats(b []byte) (model.LiquidationStats, error) {
	var s model.LiquidationStats
	r, err := framed(b)
	if err != nil {
		return s, fmt.Errorf("decode liquidation stats: %w", err)
	}
	if s.TotalLiquidations, err = r.ReadU64(); err != nil {
		return s, fmt.Errorf("decode liquidation stats count: %w", err)
	}
	if s.TotalDebtRepaid, err = r.ReadU256(); err != nil {
		return s, fmt.Errorf("decode liquidation stats debt: %w", err)
	}
	if s.TotalCollateralSeized, err = r.ReadU256(); err != nil {
		return s, fmt.Errorf("decode liquidation stats collateral: %w", err)
	}
	return s, nil
}

func DecodeBool(b []byte) (bool, error) {
	r, err := framed(b)
	if err != nil {
		return false, fmt.Errorf("decode bool: %w", err)
	}
	v, err := r.ReadBool()
	if err != nil {
		return false, fmt.Errorf("decode bool: %w", err)
	}
	return v, nil
}

func DecodeU256(b []byte) (*big.Int, error) {
	r, err := framed(b)
	if err != nil {
		return nil, fmt.Errorf("decode u256: %w", err)
	}
	v, err := r.ReadU256()
	if err != nil {
		return nil, fmt.Errorf("decode u256: %w", err)
	}
	return v, nil
}

func DecodeU64(b []byte) (uint64, error) {
	r, err := framed(b)
	if err != nil {
		return 0, fmt.Errorf("decode u64: %w", err)
	}
	v, err := r.ReadU64()
	if err != nil {
		return 0, fmt.Errorf("decode u64: %w", err)
	}
	return v, nil
}
