package model

import "math/big"

// EventKind names a vault manager event variant.
type EventKind string

const (
	EventMinted              EventKind = "Minted"
	EventRepaid              EventKind = "Repaid"
	EventLiquidated          EventKind = "Liquidated"
	EventCollateralDeposited EventKind = "CollateralDeposited"
	EventCollateralWithdrawn EventKind = "CollateralWithdrawn"
)

// DomainEvent is one decoded entry of the contract event log.
type DomainEvent interface {
	Kind() EventKind
	// Sequence is the position in the append-only event log.
	Sequence() uint64
}

// MintedEvent is emitted when cUSD is minted against a vault.
type MintedEvent struct {
	SequenceIndex uint64
	Owner         string
	Amount        *big.Int
	TotalDebt     *big.Int
	CRAfter       uint64
}

// RepaidEvent is emitted when vault debt is repaid.
type RepaidEvent struct {
	SequenceIndex uint64
	Owner         string
	Amount        *big.Int
	TotalDebt     *big.Int
}

// LiquidatedEvent is emitted when a vault is liquidated.
type LiquidatedEvent struct {
	SequenceIndex    uint64
	VaultOwner       string
	Liquidator       string
	DebtRepaid       *big.Int
	CollateralSeized *big.Int
}

// CollateralDepositedEvent is emitted on CSPR deposits.
type CollateralDepositedEvent struct {
	SequenceIndex   uint64
	Owner           string
	Amount          *big.Int
	TotalCollateral *big.Int
}

// CollateralWithdrawnEvent is emitted on CSPR withdrawals.
type CollateralWithdrawnEvent struct {
	SequenceIndex   uint64
	Owner           string
	Amount          *big.Int
	TotalCollateral *big.Int
}

func (e MintedEvent) Kind() EventKind              { return EventMinted }
func (e MintedEvent) Sequence() uint64             { return e.SequenceIndex }
func (e RepaidEvent) Kind() EventKind              { return EventRepaid }
func (e RepaidEvent) Sequence() uint64             { return e.SequenceIndex }
func (e LiquidatedEvent) Kind() EventKind          { return EventLiquidated }
func (e LiquidatedEvent) Sequence() uint64         { return e.SequenceIndex }
func (e CollateralDepositedEvent) Kind() EventKind { return EventCollateralDeposited }
func (e CollateralDepositedEvent) Sequence() uint64 {
	return e.SequenceIndex
}
func (e CollateralWithdrawnEvent) Kind() EventKind { return EventCollateralWithdrawn }
func (e CollateralWithdrawnEvent) Sequence() uint64 {
	return e.SequenceIndex
}
