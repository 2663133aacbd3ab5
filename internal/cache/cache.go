package cache

import (
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// Key kinds and fixed keys used by the state service.
const (
	KindVault     = "vault"
	KindBalance   = "balance"
	KindEvent     = "event"
	KindNamedKeys = "named-keys"

	KeyPrice       = "price:latest"
	KeySystem      = "system:totals"
	KeyParams      = "governance:params"
	KeyPaused      = "governance:paused"
	KeyTotalSupply = "cusd:totalSupply"
	KeyLiqStats    = "liquidation:stats"
	KeyEventCount  = "event:count"
	KeyStateRoot   = "state-root"
)

// Policy maps keys to time-to-live. Exact keys win over kinds; anything
// unmatched uses Default.
type Policy struct {
	Default time.Duration
	Keys    map[string]time.Duration
	Kinds   map[string]time.Duration
}

// DefaultPolicy returns the built-in TTL table.
func DefaultPolicy() Policy {
	return Policy{
		Default: 10 * time.Second,
		Keys: map[string]time.Duration{
			KeyPrice:      5 * time.Second,
			KeyPaused:     5 * time.Second,
			KeyStateRoot:  2 * time.Second,
			KeyParams:     60 * time.Second,
			KeyEventCount: 5 * time.Second,
		},
		Kinds: map[string]time.Duration{
			KindNamedKeys: 10 * time.Minute,
			KindEvent:     time.Hour,
		},
	}
}

// TTL returns the time-to-live for key.
func (p Policy) TTL(key string) time.Duration {
	if d, ok := p.Keys[key]; ok {
		return d
	}
	if d, ok := p.Kinds[Kind(key)]; ok {
		return d
	}
	return p.Default
}

// Kind is the part of key before the first ':'.
func Kind(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

// Key joins a kind and sub-key.
func Key(kind, sub string) string {
	return kind + ":" + sub
}

type entry struct {
	value   any
	expires time.Time
}

// Cache is a concurrent read-through cache with per-key expiry. Concurrent
// writers to the same key are last-write-wins.
type Cache struct {
	entries *xsync.Map[string, entry]
	policy  Policy
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New builds an empty cache.
func New(policy Policy, opts ...Option) *Cache {
	c := &Cache{
		entries: xsync.NewMap[string, entry](),
		policy:  policy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live value for key. Expired entries are dropped.
func (c *Cache) Get(key string) (any, bool) {
	e, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		c.entries.Delete(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the policy's TTL.
func (c *Cache) Set(key string, value any) {
	ttl := c.policy.TTL(key)
	if ttl <= 0 {
		return
	}
	c.entries.Store(key, entry{value: value, expires: c.now().Add(ttl)})
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries.Clear()
}

// Len counts stored entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	return c.entries.Size()
}

// Load is a typed Get.
func Load[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
