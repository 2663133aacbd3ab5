package tx

import (
	"fmt"

	"cusdScope/internal/fixedpoint"
)

// Operation is a user action described with human amounts.
type Operation struct {
	EntryPoint string `json:"entry_point"`
	Amount     string `json:"amount,omitempty"`
	// Account is the recipient, spender or vault owner, depending on the
	// entry point.
	Account string `json:"account,omitempty"`
}

// Build converts op to a call. Collateral amounts are CSPR, debt and token
// amounts cUSD, prices dollars.
func (b *Builder) Build(op Operation) (Call, error) {
	switch op.EntryPoint {
	case EntryOpenVault:
		return b.OpenVault(), nil
	case EntryCloseVault:
		return b.CloseVault(), nil
	}

	scale := fixedpoint.StablecoinDecimals
	switch op.EntryPoint {
	case EntryDeposit, EntryWithdraw:
		scale = fixedpoint.CollateralDecimals
	case EntrySubmitPrice:
		scale = fixedpoint.PriceDecimals
	}
	amount, err := ParseAmount(op.Amount, scale)
	if err != nil {
		return Call{}, fmt.Errorf("%s: %w", op.EntryPoint, err)
	}

	switch op.EntryPoint {
	case EntryDeposit:
		return b.DepositCollateral(amount)
	case EntryWithdraw:
		return b.WithdrawCollateral(amount)
	case EntryMint:
		return b.Mint(amount)
	case EntryRepay:
		return b.Repay(amount)
	case EntrySubmitPrice:
		return b.SubmitPrice(amount)
	case EntryTransfer:
		return b.Transfer(op.Account, amount)
	case EntryApprove:
		return b.Approve(op.Account, amount)
	case EntryLiquidate:
		return b.Liquidate(op.Account, amount)
	}
	return Call{}, fmt.Errorf("%w: unknown entry point %q", ErrInvalidArgument, op.EntryPoint)
}
