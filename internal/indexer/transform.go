package indexer

import (
	"encoding/hex"
	"time"

	"cusdScope/internal/events"
	"cusdScope/internal/model"
)

func buildEventRecord(ev model.DomainEvent, ingestedAt time.Time) model.EventRecord {
	rec := events.ToRecord(ev)
	rec.IngestedAt = ingestedAt.UTC().Format(time.RFC3339Nano)
	return rec
}

func buildDecodeError(contract string, index uint64, raw []byte, err error) model.DecodeError {
	return model.DecodeError{
		Contract: contract,
		Sequence: index,
		Raw:      hex.EncodeToString(raw),
		Error:    err.Error(),
	}
}
