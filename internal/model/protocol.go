package model

import "math/big"

// PriceRound is the latest oracle round. Price has 9 decimals, Timestamp is unix seconds.
type PriceRound struct {
	Price     *big.Int `json:"price"`
	Timestamp uint64   `json:"timestamp"`
	RoundID   uint64   `json:"round_id"`
}

// GovernanceParams holds the risk parameters set by governance.
type GovernanceParams struct {
	MCRBps              uint64   `json:"mcr_bps"`
	LRBps               uint64   `json:"lr_bps"`
	LiquidationBonusBps uint64   `json:"liquidation_bonus_bps"`
	MaxPriceStaleness   uint64   `json:"max_price_staleness"`
	DebtFloor           *big.Int `json:"debt_floor"`
	DebtCeiling         *big.Int `json:"debt_ceiling"`
}

// ParamsView wraps GovernanceParams with a degraded-mode signal. Degraded is
// set when one or more fields fell back to built-in defaults.
type ParamsView struct {
	Params        GovernanceParams `json:"params"`
	Degraded      bool             `json:"degraded"`
	MissingFields []string         `json:"missing_fields,omitempty"`
}

// SystemTotals aggregates all vaults.
type SystemTotals struct {
	TotalCollateral *big.Int `json:"total_collateral"`
	TotalDebt       *big.Int `json:"total_debt"`
	VaultCount      uint64   `json:"vault_count"`
}

// PauseFlags mirrors the governance circuit breakers.
type PauseFlags struct {
	System       bool `json:"system"`
	Mint         bool `json:"mint"`
	Liquidations bool `json:"liquidations"`
}

// LiquidationStats is the liquidation module's running tally.
type LiquidationStats struct {
	TotalLiquidations     uint64   `json:"total_liquidations"`
	TotalDebtRepaid       *big.Int `json:"total_debt_repaid"`
	TotalCollateralSeized *big.Int `json:"total_collateral_seized"`
}
