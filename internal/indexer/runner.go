package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cusdScope/internal/events"
	"cusdScope/internal/metrics"
	"cusdScope/internal/model"
	"cusdScope/internal/storage"
)

// EventSource reads the raw contract event log. *state.Service satisfies it.
type EventSource interface {
	LoadEventCount(ctx context.Context) (uint64, error)
	LoadEventBytes(ctx context.Context, index uint64) ([]byte, error)
}

// RunConfig holds runtime settings for the archiver.
type RunConfig struct {
	FromIndex uint64
	// ToIndex is inclusive; zero means the last entry of the log.
	ToIndex   uint64
	BatchSize uint64
	// Concurrency bounds parallel reads within a batch.
	Concurrency int
	// Contract labels decode failures.
	Contract string
}

// Summary reports what a run did.
type Summary struct {
	From     uint64 `json:"from"`
	To       uint64 `json:"to"`
	Written  int    `json:"written"`
	Failed   int    `json:"failed"`
	Skipped  int    `json:"skipped"`
	UpToDate bool   `json:"up_to_date"`
}

// Runner copies the contract event log into storage.
type Runner struct {
	cfg     RunConfig
	source  EventSource
	storage storage.Storage
	cursor  Cursor
	logger  *zap.Logger
	now     func() time.Time
}

// NewRunner builds a Runner with its dependencies. cursor may be nil to
// always start from cfg.FromIndex.
func NewRunner(cfg RunConfig, source EventSource, sink storage.Storage, cursor Cursor, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Runner{
		cfg:     cfg,
		source:  source,
		storage: sink,
		cursor:  cursor,
		logger:  logger,
		now:     time.Now,
	}
}

// Run archives every entry from the resume point to the end of the range.
// A read failure aborts the run before the failing batch is stored, so the
// cursor never moves past an unread entry. Corrupt entries are stored as
// decode failures and do not stop the run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	if r.source == nil {
		return sum, fmt.Errorf("event source is nil")
	}
	if r.storage == nil {
		return sum, fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return sum, fmt.Errorf("batch size must be greater than zero")
	}

	count, err := r.source.LoadEventCount(ctx)
	if err != nil {
		return sum, fmt.Errorf("get event count: %w", err)
	}

	from := r.cfg.FromIndex
	if r.cursor != nil {
		next, ok, err := r.cursor.Load(ctx)
		if err != nil {
			return sum, fmt.Errorf("load cursor: %w", err)
		}
		if ok && next > from {
			from = next
			r.logger.Info("resume from checkpoint", zap.Uint64("from", from))
		}
	}
	sum.From = from

	if count == 0 || from >= count {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("count", count))
		sum.UpToDate = true
		return sum, nil
	}
	to := count - 1
	if r.cfg.ToIndex != 0 && r.cfg.ToIndex < to {
		to = r.cfg.ToIndex
	}
	if from > to {
		sum.UpToDate = true
		return sum, nil
	}

	for start := from; start <= to; {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		end := to
		if to-start >= r.cfg.BatchSize {
			end = start + r.cfg.BatchSize - 1
		}
		if err := r.archiveBatch(ctx, start, end, &sum); err != nil {
			return sum, err
		}
		start = end + 1
	}
	sum.UpToDate = sum.To == count-1
	return sum, nil
}

// archiveBatch stores the entries in [from, to] and advances the cursor past
// them.
func (r *Runner) archiveBatch(ctx context.Context, from, to uint64, sum *Summary) error {
	r.logger.Info("fetch events", zap.Uint64("from", from), zap.Uint64("to", to))
	raws, err := r.fetch(ctx, from, to)
	if err != nil {
		return err
	}

	ingestedAt := r.now()
	var (
		records  []model.EventRecord
		failures []model.DecodeError
	)
	for i, raw := range raws {
		index := from + uint64(i)
		ev, err := events.Decode(raw, index)
		switch {
		case err != nil:
			metrics.ObserveDecodeFailure("event")
			r.logger.Warn("corrupt event", zap.Uint64("index", index), zap.Error(err))
			failures = append(failures, buildDecodeError(r.cfg.Contract, index, raw, err))
		case ev == nil:
			sum.Skipped++
		default:
			records = append(records, buildEventRecord(ev, ingestedAt))
		}
	}

	if err := r.storage.PutEventBatch(ctx, records, failures); err != nil {
		return fmt.Errorf("store events: %w", err)
	}
	next := to + 1
	if r.cursor != nil {
		if err := r.cursor.Save(ctx, next); err != nil {
			return fmt.Errorf("save cursor: %w", err)
		}
	}
	metrics.ObserveSync(len(records), next)

	sum.To = to
	sum.Written += len(records)
	sum.Failed += len(failures)
	r.logger.Info("batch complete",
		zap.Int("events", len(records)),
		zap.Int("failed", len(failures)),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
	)
	return nil
}

func (r *Runner) fetch(ctx context.Context, from, to uint64) ([][]byte, error) {
	raws := make([][]byte, to-from+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i := range raws {
		i := i
		index := from + uint64(i)
		g.Go(func() error {
			raw, err := r.source.LoadEventBytes(gctx, index)
			if err != nil {
				r.logger.Warn("read event failed", zap.Uint64("index", index), zap.Error(err))
				return fmt.Errorf("read event %d: %w", index, err)
			}
			raws[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raws, nil
}
