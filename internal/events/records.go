package events

import (
	"math/big"
	"sort"

	"cusdScope/internal/model"
)

// ToRecord flattens ev into its storage/API form.
func ToRecord(ev model.DomainEvent) model.EventRecord {
	rec := model.EventRecord{Sequence: ev.Sequence(), Kind: ev.Kind()}
	switch e := ev.(type) {
	case model.MintedEvent:
		rec.Owner = e.Owner
		rec.Amount = amount(e.Amount)
		rec.TotalDebt = amount(e.TotalDebt)
		rec.CRAfterBps = e.CRAfter
	case model.RepaidEvent:
		rec.Owner = e.Owner
		rec.Amount = amount(e.Amount)
		rec.TotalDebt = amount(e.TotalDebt)
	case model.LiquidatedEvent:
		rec.Owner = e.VaultOwner
		rec.Liquidator = e.Liquidator
		rec.Amount = amount(e.DebtRepaid)
		rec.CollateralSeized = amount(e.CollateralSeized)
	case model.CollateralDepositedEvent:
		rec.Owner = e.Owner
		rec.Amount = amount(e.Amount)
		rec.TotalCollateral = amount(e.TotalCollateral)
	case model.CollateralWithdrawnEvent:
		rec.Owner = e.Owner
		rec.Amount = amount(e.Amount)
		rec.TotalCollateral = amount(e.TotalCollateral)
	}
	return rec
}

// ToRecords flattens a slice of events, preserving order.
func ToRecords(evs []model.DomainEvent) []model.EventRecord {
	out := make([]model.EventRecord, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ToRecord(ev))
	}
	return out
}

// FilterKind returns the events of the given kind, preserving order.
func FilterKind(evs []model.DomainEvent, kind model.EventKind) []model.DomainEvent {
	var out []model.DomainEvent
	for _, ev := range evs {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

// ForAccount returns the events involving account as owner, vault owner or
// liquidator, newest first.
func ForAccount(evs []model.DomainEvent, account string) []model.DomainEvent {
	var out []model.DomainEvent
	for _, ev := range evs {
		for _, p := range participants(ev) {
			if p == account {
				out = append(out, ev)
				break
			}
		}
	}
	SortNewestFirst(out)
	return out
}

// Owners returns the distinct vault owners referenced by evs, in order of
// first appearance.
func Owners(evs []model.DomainEvent) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ev := range evs {
		ps := participants(ev)
		if len(ps) == 0 {
			continue
		}
		owner := ps[0]
		if owner == "" {
			continue
		}
		if _, ok := seen[owner]; ok {
			continue
		}
		seen[owner] = struct{}{}
		out = append(out, owner)
	}
	return out
}

// SortNewestFirst orders evs by descending sequence index in place.
func SortNewestFirst(evs []model.DomainEvent) {
	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].Sequence() > evs[j].Sequence()
	})
}

func participants(ev model.DomainEvent) []string {
	switch e := ev.(type) {
	case model.MintedEvent:
		return []string{e.Owner}
	case model.RepaidEvent:
		return []string{e.Owner}
	case model.LiquidatedEvent:
		return []string{e.VaultOwner, e.Liquidator}
	case model.CollateralDepositedEvent:
		return []string{e.Owner}
	case model.CollateralWithdrawnEvent:
		return []string{e.Owner}
	}
	return nil
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
