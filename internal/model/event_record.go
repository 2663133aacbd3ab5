package model

// EventRecord is the flat JSON form of a DomainEvent used by sinks and the API.
// Amounts are decimal strings in minor units.
type EventRecord struct {
	Sequence         uint64    `json:"sequence"`
	Kind             EventKind `json:"kind"`
	Owner            string    `json:"owner"`
	Liquidator       string    `json:"liquidator,omitempty"`
	Amount           string    `json:"amount,omitempty"`
	TotalDebt        string    `json:"total_debt,omitempty"`
	TotalCollateral  string    `json:"total_collateral,omitempty"`
	CollateralSeized string    `json:"collateral_seized,omitempty"`
	CRAfterBps       uint64    `json:"cr_after_bps,omitempty"`
	IngestedAt       string    `json:"ingested_at,omitempty"`
}
