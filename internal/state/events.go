package state

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cusdScope/internal/cache"
	"cusdScope/internal/clvalue"
	"cusdScope/internal/events"
	"cusdScope/internal/model"
)

// LoadEventCount reads the length of the vault manager event log without
// the cache. Errors are returned to the caller.
func (s *Service) LoadEventCount(ctx context.Context) (uint64, error) {
	root, err := s.stateRoot(ctx)
	if err != nil {
		return 0, err
	}
	uref, err := s.namedKey(ctx, root, s.layout.Contracts.VaultManager, eventsLengthNamedKey)
	if err != nil {
		return 0, err
	}
	sv, err := s.reader.QueryGlobalState(ctx, root, uref, nil)
	if err != nil {
		return 0, err
	}
	if sv.CLValue == nil {
		return 0, errors.New("events length is not a CLValue")
	}
	raw, err := sv.CLValue.Raw()
	if err != nil {
		return 0, err
	}
	n, err := clvalue.NewReader(raw).ReadU32()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// EventCount returns the event log length, or false if it cannot be read.
func (s *Service) EventCount(ctx context.Context) (uint64, bool) {
	return cached(ctx, s, cache.KeyEventCount, s.LoadEventCount)
}

// LoadEvent reads and decodes one event without the cache. Events from
// other modules return (nil, nil); corrupt entries wrap
// events.ErrCorruptEvent.
func (s *Service) LoadEvent(ctx context.Context, index uint64) (model.DomainEvent, error) {
	raw, err := s.LoadEventBytes(ctx, index)
	if err != nil {
		return nil, err
	}
	return events.Decode(raw, index)
}

// LoadEventBytes returns the raw serialized event at index.
func (s *Service) LoadEventBytes(ctx context.Context, index uint64) ([]byte, error) {
	root, err := s.stateRoot(ctx)
	if err != nil {
		return nil, err
	}
	seed, err := s.namedKey(ctx, root, s.layout.Contracts.VaultManager, eventsNamedKey)
	if err != nil {
		return nil, err
	}
	v, err := s.reader.DictionaryItem(ctx, root, seed, strconv.FormatUint(index, 10))
	if err != nil {
		return nil, err
	}
	return v.Raw()
}

// Event returns the decoded event at index, or nil when it is absent,
// unreadable, corrupt or emitted by another module.
func (s *Service) Event(ctx context.Context, index uint64) model.DomainEvent {
	key := cache.Key(cache.KindEvent, strconv.FormatUint(index, 10))
	ev, ok := cached(ctx, s, key, func(ctx context.Context) (model.DomainEvent, error) {
		ev, err := s.LoadEvent(ctx, index)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			return nil, errAbsent
		}
		return ev, nil
	})
	if !ok {
		return nil
	}
	return ev
}

// RecentEvents returns up to limit of the newest recognized events, newest
// first. Corrupt entries are skipped.
func (s *Service) RecentEvents(ctx context.Context, limit int) []model.DomainEvent {
	count, ok := s.EventCount(ctx)
	if !ok || count == 0 || limit <= 0 {
		return nil
	}
	start := uint64(0)
	if count > uint64(limit) {
		start = count - uint64(limit)
	}
	return s.EventsRange(ctx, start, count-1)
}

// EventsRange fetches the events in [from, to] concurrently and returns the
// recognized ones newest first.
func (s *Service) EventsRange(ctx context.Context, from, to uint64) []model.DomainEvent {
	if to < from {
		return nil
	}
	var (
		mu  sync.Mutex
		out []model.DomainEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := from; i <= to; i++ {
		index := i
		g.Go(func() error {
			if ev := s.Event(gctx, index); ev != nil {
				mu.Lock()
				out = append(out, ev)
				mu.Unlock()
			}
			return nil
		})
		if i == to {
			break
		}
	}
	_ = g.Wait()

	events.SortNewestFirst(out)
	if dropped := int(to-from+1) - len(out); dropped > 0 {
		s.logger.Debug("events skipped", zap.Uint64("from", from), zap.Uint64("to", to), zap.Int("skipped", dropped))
	}
	return out
}

