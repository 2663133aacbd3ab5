package model

// DecodeError records a decode failure for one event log entry.
type DecodeError struct {
	Contract string `json:"contract"`
	Sequence uint64 `json:"sequence"`
	Raw      string `json:"raw"`
	Error    string `json:"error"`
}
