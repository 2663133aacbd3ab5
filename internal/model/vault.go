package model

import "math/big"

// Vault is a user's collateral/debt position as stored by the vault manager.
type Vault struct {
	Collateral *big.Int `json:"collateral"`
	Debt       *big.Int `json:"debt"`
	CreatedAt  uint64   `json:"created_at"`
	UpdatedAt  uint64   `json:"updated_at"`
}

// IsEmpty reports whether the vault holds neither collateral nor debt.
// Empty vaults are treated as absent.
func (v Vault) IsEmpty() bool {
	return isZero(v.Collateral) && isZero(v.Debt)
}

// VaultPosition is a vault together with the inputs and outputs of the
// accounting functions, as shown on the vault page.
type VaultPosition struct {
	Owner           string            `json:"owner"`
	Vault           Vault             `json:"vault"`
	Price           *PriceRound       `json:"price,omitempty"`
	Params          *GovernanceParams `json:"params,omitempty"`
	RatioBps        *big.Int          `json:"ratio_bps"`
	MaxMintable     *big.Int          `json:"max_mintable"`
	MaxWithdrawable *big.Int          `json:"max_withdrawable"`
	Liquidatable    bool              `json:"liquidatable"`
	Health          string            `json:"health"`
	PriceFresh      bool              `json:"price_fresh"`
	Degraded        bool              `json:"degraded"`
}

func isZero(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}
