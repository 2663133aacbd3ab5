package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cusdScope/internal/cache"
	"cusdScope/internal/casper"
	"cusdScope/internal/chain"
	"cusdScope/internal/metrics"
)

// Reader is the node surface the service needs. *chain.Client satisfies it.
type Reader interface {
	StateRootHash(ctx context.Context) (string, error)
	NamedKeys(ctx context.Context, stateRootHash, contractKey string) (map[string]string, error)
	QueryGlobalState(ctx context.Context, stateRootHash, key string, path []string) (*chain.StoredValue, error)
	DictionaryItem(ctx context.Context, stateRootHash, seedURef, itemKey string) (*chain.CLValue, error)
}

// Options configures a Service.
type Options struct {
	Reader Reader
	Cache  *cache.Cache
	Layout Layout
	Logger *zap.Logger
	// Now overrides the clock used for price freshness.
	Now func() time.Time
	// Concurrency bounds parallel event and position reads.
	Concurrency int
}

// Service answers typed state queries from contract storage. Getters return
// nil when a value is absent or cannot be read; failures are logged.
type Service struct {
	reader      Reader
	cache       *cache.Cache
	layout      Layout
	logger      *zap.Logger
	now         func() time.Time
	concurrency int
}

// NewService builds a Service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := opts.Cache
	if c == nil {
		c = cache.New(cache.DefaultPolicy())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Service{
		reader:      opts.Reader,
		cache:       c,
		layout:      opts.Layout,
		logger:      logger,
		now:         now,
		concurrency: concurrency,
	}
}

// Layout returns the storage layout the service reads.
func (s *Service) Layout() Layout { return s.layout }

// Invalidate drops every cached value. Call after a state-changing
// transaction is accepted.
func (s *Service) Invalidate() {
	s.cache.Clear()
	s.logger.Debug("state cache invalidated")
}

// cached serves key from the cache or runs load. Results are cached only on
// success. ok is false when the value is absent or failed to load.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, bool) {
	if v, ok := cache.Load[T](s.cache, key); ok {
		metrics.ObserveCache(cache.Kind(key), true)
		return v, true
	}
	metrics.ObserveCache(cache.Kind(key), false)

	v, err := load(ctx)
	if err != nil {
		var zero T
		s.logFailure(key, err)
		return zero, false
	}
	s.cache.Set(key, v)
	return v, true
}

func (s *Service) logFailure(key string, err error) {
	switch {
	case errors.Is(err, chain.ErrNotFound), errors.Is(err, errAbsent):
		s.logger.Debug("state value absent", zap.String("key", key))
	case errors.Is(err, context.Canceled):
		s.logger.Debug("state query cancelled", zap.String("key", key))
	case isDecodeError(err):
		metrics.ObserveDecodeFailure(cache.Kind(key))
		s.logger.Warn("decode state value failed", zap.String("key", key), zap.Error(err))
	default:
		s.logger.Warn("state query failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) stateRoot(ctx context.Context) (string, error) {
	if v, ok := cache.Load[string](s.cache, cache.KeyStateRoot); ok {
		return v, nil
	}
	root, err := s.reader.StateRootHash(ctx)
	if err != nil {
		return "", err
	}
	s.cache.Set(cache.KeyStateRoot, root)
	return root, nil
}

func (s *Service) namedKeys(ctx context.Context, root, contract string) (map[string]string, error) {
	contractKey := casper.ContractKey(contract)
	key := cache.Key(cache.KindNamedKeys, contractKey)
	if v, ok := cache.Load[map[string]string](s.cache, key); ok {
		return v, nil
	}
	keys, err := s.reader.NamedKeys(ctx, root, contractKey)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, keys)
	return keys, nil
}

// namedKey resolves one named key of a contract.
func (s *Service) namedKey(ctx context.Context, root, contract, name string) (string, error) {
	keys, err := s.namedKeys(ctx, root, contract)
	if err != nil {
		return "", err
	}
	uref, ok := keys[name]
	if !ok || uref == "" {
		return "", fmt.Errorf("named key %s of %s: %w", name, contract, chain.ErrNotFound)
	}
	return uref, nil
}

// readField returns the raw bytes of a contract storage field, optionally
// keyed by a mapping key.
func (s *Service) readField(ctx context.Context, contract string, field uint32, mappingKey []byte) ([]byte, error) {
	root, err := s.stateRoot(ctx)
	if err != nil {
		return nil, err
	}
	seed, err := s.namedKey(ctx, root, contract, stateNamedKey)
	if err != nil {
		return nil, err
	}
	v, err := s.reader.DictionaryItem(ctx, root, seed, casper.DictionaryItemKey(field, mappingKey))
	if err != nil {
		return nil, err
	}
	return v.Raw()
}
