package tx

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"cusdScope/internal/casper"
	"cusdScope/internal/clvalue"
)

// Entry points of the protocol contracts.
const (
	EntryOpenVault   = "open_vault"
	EntryCloseVault  = "close_vault"
	EntryDeposit     = "deposit_collateral"
	EntryWithdraw    = "withdraw_collateral"
	EntryMint        = "mint_cusd"
	EntryRepay       = "repay_cusd"
	EntryTransfer    = "transfer"
	EntryApprove     = "approve"
	EntryLiquidate   = "liquidate"
	EntrySubmitPrice = "submit_price"
)

// Gas payments in motes.
var payments = map[string]int64{
	EntryOpenVault:   5_000_000_000,
	EntryCloseVault:  10_000_000_000,
	EntryDeposit:     10_000_000_000,
	EntryWithdraw:    10_000_000_000,
	EntryMint:        5_000_000_000,
	EntryRepay:       5_000_000_000,
	EntryTransfer:    3_000_000_000,
	EntryApprove:     2_000_000_000,
	EntryLiquidate:   10_000_000_000,
	EntrySubmitPrice: 3_000_000_000,
}

// Payment returns the gas payment for an entry point.
func Payment(entryPoint string) *big.Int {
	return big.NewInt(payments[entryPoint])
}

// ErrInvalidArgument is returned for amounts or addresses that cannot be
// encoded.
var ErrInvalidArgument = errors.New("invalid argument")

// Arg is one named runtime argument with its serialized value.
type Arg struct {
	Name   string `json:"name"`
	CLType string `json:"cl_type"`
	Bytes  string `json:"bytes"`
	Parsed string `json:"parsed"`
}

// Call is a contract invocation before it is bound to a signer.
type Call struct {
	Contract   string   `json:"contract"`
	EntryPoint string   `json:"entry_point"`
	Args       []Arg    `json:"args"`
	Payment    *big.Int `json:"payment"`
	// Payable calls go through the proxy caller session with the package
	// hash and attached CSPR.
	Package       string   `json:"package,omitempty"`
	AttachedValue *big.Int `json:"attached_value,omitempty"`
}

// Contracts are the hashes the builder targets.
type Contracts struct {
	VaultManager        string
	VaultManagerPackage string
	Token               string
	Oracle              string
}

// Builder produces protocol calls.
type Builder struct {
	contracts Contracts
}

func NewBuilder(contracts Contracts) *Builder {
	return &Builder{contracts: contracts}
}

func (b *Builder) call(contract, entryPoint string, args ...Arg) Call {
	return Call{
		Contract:   contract,
		EntryPoint: entryPoint,
		Args:       args,
		Payment:    Payment(entryPoint),
	}
}

func (b *Builder) OpenVault() Call {
	return b.call(b.contracts.VaultManager, EntryOpenVault)
}

func (b *Builder) CloseVault() Call {
	return b.call(b.contracts.VaultManager, EntryCloseVault)
}

// DepositCollateral attaches amount motes to a payable deposit.
func (b *Builder) DepositCollateral(amount *big.Int) (Call, error) {
	if b.contracts.VaultManagerPackage == "" {
		return Call{}, fmt.Errorf("deposit: %w: vault manager package hash not configured", ErrInvalidArgument)
	}
	if err := positive(amount); err != nil {
		return Call{}, fmt.Errorf("deposit: %w", err)
	}
	c := b.call(b.contracts.VaultManager, EntryDeposit)
	c.Package = b.contracts.VaultManagerPackage
	c.AttachedValue = new(big.Int).Set(amount)
	return c, nil
}

func (b *Builder) WithdrawCollateral(amount *big.Int) (Call, error) {
	return b.amountCall(b.contracts.VaultManager, EntryWithdraw, "amount", amount)
}

func (b *Builder) Mint(amount *big.Int) (Call, error) {
	return b.amountCall(b.contracts.VaultManager, EntryMint, "amount", amount)
}

func (b *Builder) Repay(amount *big.Int) (Call, error) {
	return b.amountCall(b.contracts.VaultManager, EntryRepay, "amount", amount)
}

// SubmitPrice posts a 9-decimal price to the oracle.
func (b *Builder) SubmitPrice(price *big.Int) (Call, error) {
	return b.amountCall(b.contracts.Oracle, EntrySubmitPrice, "price", price)
}

// Transfer sends amount cUSD to recipient (public key or account hash).
func (b *Builder) Transfer(recipient string, amount *big.Int) (Call, error) {
	return b.keyAmountCall(b.contracts.Token, EntryTransfer, "recipient", recipient, "amount", amount)
}

func (b *Builder) Approve(spender string, amount *big.Int) (Call, error) {
	return b.keyAmountCall(b.contracts.Token, EntryApprove, "spender", spender, "amount", amount)
}

// Liquidate repays repay cUSD of owner's vault.
func (b *Builder) Liquidate(owner string, repay *big.Int) (Call, error) {
	return b.keyAmountCall(b.contracts.VaultManager, EntryLiquidate, "vault_owner", owner, "repay_amount", repay)
}

func (b *Builder) amountCall(contract, entryPoint, name string, amount *big.Int) (Call, error) {
	arg, err := U256Arg(name, amount)
	if err != nil {
		return Call{}, fmt.Errorf("%s: %w", entryPoint, err)
	}
	return b.call(contract, entryPoint, arg), nil
}

func (b *Builder) keyAmountCall(contract, entryPoint, keyName, account, amountName string, amount *big.Int) (Call, error) {
	key, err := KeyArg(keyName, account)
	if err != nil {
		return Call{}, fmt.Errorf("%s: %w", entryPoint, err)
	}
	amt, err := U256Arg(amountName, amount)
	if err != nil {
		return Call{}, fmt.Errorf("%s: %w", entryPoint, err)
	}
	return b.call(contract, entryPoint, key, amt), nil
}

// U256Arg encodes a positive amount.
func U256Arg(name string, v *big.Int) (Arg, error) {
	if err := positive(v); err != nil {
		return Arg{}, fmt.Errorf("%s: %w", name, err)
	}
	w := clvalue.NewWriter()
	if err := w.WriteU256(v); err != nil {
		return Arg{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidArgument, err)
	}
	return Arg{Name: name, CLType: "U256", Bytes: hex.EncodeToString(w.Bytes()), Parsed: v.String()}, nil
}

// U512Arg encodes a mote amount.
func U512Arg(name string, v *big.Int) (Arg, error) {
	w := clvalue.NewWriter()
	if err := w.WriteU512(v); err != nil {
		return Arg{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidArgument, err)
	}
	return Arg{Name: name, CLType: "U512", Bytes: hex.EncodeToString(w.Bytes()), Parsed: v.String()}, nil
}

// KeyArg encodes an account as an account-hash key.
func KeyArg(name, account string) (Arg, error) {
	hash, err := casper.NormalizeAccount(account)
	if err != nil {
		return Arg{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidArgument, err)
	}
	w := clvalue.NewWriter()
	if err := w.WriteAddress(hash); err != nil {
		return Arg{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidArgument, err)
	}
	return Arg{Name: name, CLType: "Key", Bytes: hex.EncodeToString(w.Bytes()), Parsed: hash}, nil
}

func positive(v *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	return nil
}
