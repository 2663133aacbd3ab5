package storage

import (
	"context"

	"cusdScope/internal/model"
)

// Storage is a sink for archived contract events. Entries that failed to
// decode are kept alongside so they can be inspected later.
type Storage interface {
	PutEventBatch(ctx context.Context, records []model.EventRecord, failures []model.DecodeError) error
}
