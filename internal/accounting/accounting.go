package accounting

import (
	"math/big"
	"time"

	"cusdScope/internal/fixedpoint"
	"cusdScope/internal/model"
)

// Health labels shown for a vault.
const (
	HealthNoDebt       = "no_debt"
	HealthHealthy      = "healthy"
	HealthCaution      = "caution"
	HealthAtRisk       = "at_risk"
	HealthLiquidatable = "liquidatable"
)

// CautionBandBps is the margin above MCR still flagged as caution.
const CautionBandBps = 3000

var (
	bpsScale   = big.NewInt(10000)
	priceScale = fixedpoint.Pow10(fixedpoint.PriceDecimals)
	// debtScale bridges the 18-decimal stablecoin and the 9-decimal
	// collateral value.
	debtScale = fixedpoint.Pow10(fixedpoint.StablecoinDecimals - fixedpoint.CollateralDecimals)
)

// collateralValue returns collateral*price/1e9, the collateral value in
// 9-decimal dollars.
func collateralValue(v model.Vault, price *big.Int) *big.Int {
	if v.Collateral == nil || price == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(v.Collateral, price)
	return out.Quo(out, priceScale)
}

// CollateralRatioBps returns the collateral ratio in basis points, or nil
// when the vault has no debt.
func CollateralRatioBps(v model.Vault, price *big.Int) *big.Int {
	if v.Debt == nil || v.Debt.Sign() <= 0 {
		return nil
	}
	out := collateralValue(v, price)
	out.Mul(out, bpsScale)
	out.Mul(out, debtScale)
	return out.Quo(out, v.Debt)
}

// MaxMintable returns how much more cUSD the vault could mint while staying
// at or above MCR. It never returns a negative amount.
func MaxMintable(v model.Vault, price *big.Int, params model.GovernanceParams) *big.Int {
	if params.MCRBps == 0 {
		return new(big.Int)
	}
	maxDebt := collateralValue(v, price)
	maxDebt.Mul(maxDebt, bpsScale)
	maxDebt.Mul(maxDebt, debtScale)
	maxDebt.Quo(maxDebt, new(big.Int).SetUint64(params.MCRBps))
	if v.Debt != nil {
		maxDebt.Sub(maxDebt, v.Debt)
	}
	if maxDebt.Sign() < 0 {
		return new(big.Int)
	}
	return maxDebt
}

// IsLiquidatable reports whether a ratio is strictly below LR. A nil ratio
// (no debt) is never liquidatable.
func IsLiquidatable(ratioBps *big.Int, params model.GovernanceParams) bool {
	return ratioBps != nil && ratioBps.Cmp(new(big.Int).SetUint64(params.LRBps)) < 0
}

// IsPriceFresh reports whether round is younger than maxStaleness seconds at
// now. A zero staleness bound means never fresh.
func IsPriceFresh(round *model.PriceRound, maxStaleness uint64, now time.Time) bool {
	if round == nil || maxStaleness == 0 {
		return false
	}
	nowSec := now.Unix()
	if nowSec < 0 || uint64(nowSec) <= round.Timestamp {
		return true
	}
	return uint64(nowSec)-round.Timestamp < maxStaleness
}

// MaxWithdrawable returns the collateral that can be removed while keeping
// the vault at or above MCR.
func MaxWithdrawable(v model.Vault, price *big.Int, params model.GovernanceParams) *big.Int {
	coll := new(big.Int)
	if v.Collateral != nil {
		coll.Set(v.Collateral)
	}
	if v.Debt == nil || v.Debt.Sign() <= 0 {
		return coll
	}
	if price == nil || price.Sign() <= 0 {
		return new(big.Int)
	}

	// minValue = ceil(debt * mcr / (1e4 * 1e9)), in 9-decimal dollars.
	minValue := new(big.Int).Mul(v.Debt, new(big.Int).SetUint64(params.MCRBps))
	minValue = ceilDiv(minValue, new(big.Int).Mul(bpsScale, debtScale))
	minColl := ceilDiv(minValue.Mul(minValue, priceScale), price)

	out := coll.Sub(coll, minColl)
	if out.Sign() < 0 {
		return new(big.Int)
	}
	return out
}

// SeizeAmount returns the collateral paid to a liquidator repaying repay
// cUSD at price, including the bonus, capped at the vault's collateral.
func SeizeAmount(repay, price *big.Int, bonusBps uint64, v model.Vault) *big.Int {
	if repay == nil || price == nil || price.Sign() <= 0 {
		return new(big.Int)
	}
	num := new(big.Int).Mul(repay, new(big.Int).SetUint64(10000+bonusBps))
	den := new(big.Int).Mul(bpsScale, price)
	den.Mul(den, debtScale)
	num.Mul(num, priceScale)
	out := num.Quo(num, den)
	if v.Collateral != nil && out.Cmp(v.Collateral) > 0 {
		return new(big.Int).Set(v.Collateral)
	}
	return out
}

// Health classifies a ratio against the governance thresholds.
func Health(ratioBps *big.Int, params model.GovernanceParams) string {
	if ratioBps == nil {
		return HealthNoDebt
	}
	if IsLiquidatable(ratioBps, params) {
		return HealthLiquidatable
	}
	mcr := new(big.Int).SetUint64(params.MCRBps)
	if ratioBps.Cmp(mcr) < 0 {
		return HealthAtRisk
	}
	if ratioBps.Cmp(mcr.Add(mcr, big.NewInt(CautionBandBps))) < 0 {
		return HealthCaution
	}
	return HealthHealthy
}

func ceilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
