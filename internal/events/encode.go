package events

import (
	"fmt"
	"math/big"

	"cusdScope/internal/clvalue"
	"cusdScope/internal/model"
)

// Encode serializes ev in the event log layout, including the outer length
// prefix. It is the inverse of Decode.
func Encode(ev model.DomainEvent) ([]byte, error) {
	w := clvalue.NewWriter()
	w.WriteString(namePrefix + string(ev.Kind()))

	var addrs []string
	var amounts []*big.Int
	switch e := ev.(type) {
	case model.MintedEvent:
		addrs, amounts = []string{e.Owner}, []*big.Int{e.Amount, e.TotalDebt}
	case model.RepaidEvent:
		addrs, amounts = []string{e.Owner}, []*big.Int{e.Amount, e.TotalDebt}
	case model.LiquidatedEvent:
		addrs, amounts = []string{e.VaultOwner, e.Liquidator}, []*big.Int{e.DebtRepaid, e.CollateralSeized}
	case model.CollateralDepositedEvent:
		addrs, amounts = []string{e.Owner}, []*big.Int{e.Amount, e.TotalCollateral}
	case model.CollateralWithdrawnEvent:
		addrs, amounts = []string{e.Owner}, []*big.Int{e.Amount, e.TotalCollateral}
	default:
		return nil, fmt.Errorf("encode event: unsupported type %T", ev)
	}

	for _, a := range addrs {
		if err := w.WriteAddress(a); err != nil {
			return nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
		}
	}
	for _, a := range amounts {
		if err := w.WriteU256(a); err != nil {
			return nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
		}
	}
	if m, ok := ev.(model.MintedEvent); ok {
		w.WriteU64(m.CRAfter)
	}
	return w.Framed(), nil
}
