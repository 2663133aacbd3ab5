package state

import (
	"math/big"

	"cusdScope/internal/model"
)

// Contracts holds the deployed contract hashes.
type Contracts struct {
	VaultManager string `mapstructure:"vault_manager"`
	Token        string `mapstructure:"token"`
	Oracle       string `mapstructure:"oracle"`
	Governance   string `mapstructure:"governance"`
	Liquidation  string `mapstructure:"liquidation"`
}

// Fields are the storage field indexes of each contract, in declaration
// order of the contract's module.
type Fields struct {
	// vault manager
	Vaults           uint32 `mapstructure:"vaults"`
	TotalCollateral  uint32 `mapstructure:"total_collateral"`
	TotalDebt        uint32 `mapstructure:"total_debt"`
	VaultCount       uint32 `mapstructure:"vault_count"`
	MCR              uint32 `mapstructure:"mcr"`
	LR               uint32 `mapstructure:"lr"`
	LiquidationBonus uint32 `mapstructure:"liquidation_bonus"`
	MaxStaleness     uint32 `mapstructure:"max_price_staleness"`
	DebtFloor        uint32 `mapstructure:"debt_floor"`
	DebtCeiling      uint32 `mapstructure:"debt_ceiling"`

	// governance
	Params             uint32 `mapstructure:"params"`
	SystemPaused       uint32 `mapstructure:"system_paused"`
	MintPaused         uint32 `mapstructure:"mint_paused"`
	LiquidationsPaused uint32 `mapstructure:"liquidations_paused"`

	// oracle
	LatestRound uint32 `mapstructure:"latest_round"`

	// token
	Balances    uint32 `mapstructure:"balances"`
	TotalSupply uint32 `mapstructure:"total_supply"`

	// liquidation
	Stats uint32 `mapstructure:"stats"`
}

// Layout addresses every value the service reads.
type Layout struct {
	Contracts Contracts `mapstructure:"contracts"`
	Fields    Fields    `mapstructure:"fields"`
}

// DefaultFields matches the deployed contracts' field order.
func DefaultFields() Fields {
	return Fields{
		Vaults:           1,
		TotalCollateral:  2,
		TotalDebt:        3,
		VaultCount:       4,
		MCR:              5,
		LR:               6,
		LiquidationBonus: 7,
		MaxStaleness:     8,
		DebtFloor:        9,
		DebtCeiling:      10,

		Params:             1,
		SystemPaused:       2,
		MintPaused:         3,
		LiquidationsPaused: 4,

		LatestRound: 1,

		Balances:    3,
		TotalSupply: 6,

		Stats: 1,
	}
}

const (
	stateNamedKey        = "state"
	eventsNamedKey       = "__events"
	eventsLengthNamedKey = "__events_length"
)

// DefaultParams are the fallbacks used when governance values are missing
// from chain state.
func DefaultParams() model.GovernanceParams {
	floor, _ := new(big.Int).SetString("50000000000000000000", 10)
	ceiling, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	return model.GovernanceParams{
		MCRBps:              17000,
		LRBps:               15000,
		LiquidationBonusBps: 1000,
		MaxPriceStaleness:   3600,
		DebtFloor:           floor,
		DebtCeiling:         ceiling,
	}
}
