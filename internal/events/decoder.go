package events

import (
	"errors"
	"fmt"

	"cusdScope/internal/clvalue"
	"cusdScope/internal/model"
)

// ErrCorruptEvent wraps any decode failure inside a recognized event type.
var ErrCorruptEvent = errors.New("corrupt event")

const namePrefix = "event_"

type decodeFunc func(r *clvalue.Reader, index uint64) (model.DomainEvent, error)

var decoders = map[string]decodeFunc{
	namePrefix + string(model.EventMinted):              decodeMinted,
	namePrefix + string(model.EventRepaid):              decodeRepaid,
	namePrefix + string(model.EventLiquidated):          decodeLiquidated,
	namePrefix + string(model.EventCollateralDeposited): decodeDeposited,
	namePrefix + string(model.EventCollateralWithdrawn): decodeWithdrawn,
}

// Decode parses one entry of the event log. Events emitted by other modules
// decode to (nil, nil).
func Decode(b []byte, index uint64) (model.DomainEvent, error) {
	r := clvalue.NewReader(b)
	if err := r.SkipLengthPrefix(); err != nil {
		return nil, fmt.Errorf("%w: index %d: %v", ErrCorruptEvent, index, err)
	}
	name, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("%w: index %d: event name: %v", ErrCorruptEvent, index, err)
	}
	decode, ok := decoders[name]
	if !ok {
		return nil, nil
	}
	ev, err := decode(r, index)
	if err != nil {
		return nil, fmt.Errorf("%w: index %d: %s: %v", ErrCorruptEvent, index, name, err)
	}
	return ev, nil
}

func decodeMinted(r *clvalue.Reader, index uint64) (model.DomainEvent, error) {
	ev := model.MintedEvent{SequenceIndex: index}
	var err error
	if ev.Owner, err = r.ReadAddress(); err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	if ev.Amount, err = r.ReadU256(); err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	if ev.TotalDebt, err = r.ReadU256(); err != nil {
		return nil, fmt.Errorf("total debt: %w", err)
	}
	if ev.CRAfter, err = r.ReadU64(); err != nil {
		return nil, fmt.Errorf("cr after: %w", err)
	}
	return ev, nil
}

func decodeRepaid(r *clvalue.Reader, index uint64) (model.DomainEvent, error) {
	ev := model.RepaidEvent{SequenceIndex: index}
	var err error
	if ev.Owner, err = r.ReadAddress(); err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	if ev.Amount, err = r.ReadU256(); err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	if ev.TotalDebt, err = r.ReadU256(); err != nil {
		return nil, fmt.Errorf("total debt: %w", err)
	}
	return ev, nil
}

func decodeLiquidated(r *clvalue.Reader, index uint64) (model.DomainEvent, error) {
	ev := model.LiquidatedEvent{SequenceIndex: index}
	var err error
	if ev.VaultOwner, err = r.ReadAddress(); err != nil {
		return nil, fmt.Errorf("vault owner: %w", err)
	}
	if ev.Liquidator, err = r.ReadAddress(); err != nil {
		return nil, fmt.Errorf("liquidator: %w", err)
	}
	if ev.DebtRepaid, err = r.ReadU256(); err != nil {
		return nil, fmt.Errorf("debt repaid: %w", err)
	}
	if ev.CollateralSeized, err = r.ReadU256(); err != nil {
		return nil, fmt.Errorf("collateral seized: %w", err)
	}
	return ev, nil
}

func decodeDeposited(r *clvalue.Reader, index uint64) (model.DomainEvent, error) {
	ev := model.CollateralDepositedEvent{SequenceIndex: index}
	var err error
	if ev.Owner, err = r.ReadAddress(); err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	if ev.Amount, err = r.ReadU256(); err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	if ev.TotalCollateral, err = r.ReadU256(); err != nil {
		return nil, fmt.Errorf("total collateral: %w", err)
	}
	return ev, nil
}

func decodeWithdrawn(r *clvalue.Reader, index uint64) (model.DomainEvent, error) {
	ev := model.CollateralWithdrawnEvent{SequenceIndex: index}
	var err error
	if ev.Owner, err = r.ReadAddress(); err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	if ev.Amount, err = r.ReadU256(); err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	if ev.TotalCollateral, err = r.ReadU256(); err != nil {
		return nil, fmt.Errorf("total collateral: %w", err)
	}
	return ev, nil
}
