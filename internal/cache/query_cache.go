package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"laptops/facetsync/internal/cachekey"
	"laptops/facetsync/internal/clock"
	"laptops/facetsync/internal/metrics"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime = 5 * time.Second
	DefaultGCTime    = 5 * time.Minute
	DefaultPrefix    = "facetsync:"
)

type entry struct {
	data      any
	fetchedAt time.Time
}

// QueryCache is a keyed, time-based cache for remote query results.
// Entries younger than the stale time are served without a fetch; concurrent
// fetches of one key share a single request. An optional shared Store is
// consulted before the network.
type QueryCache struct {
	mu        sync.Mutex
	entries   map[string]entry
	group     singleflight.Group
	staleTime time.Duration
	gcTime    time.Duration
	prefix    string
	store     Store
	clock     clock.Clock
	metrics   *metrics.Metrics
}

type Option func(*QueryCache)

func WithStore(store Store) Option {
	return func(c *QueryCache) { c.store = store }
}

func WithClock(clk clock.Clock) Option {
	return func(c *QueryCache) { c.clock = clk }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *QueryCache) { c.metrics = m }
}

func WithPrefix(prefix string) Option {
	return func(c *QueryCache) { c.prefix = prefix }
}

func WithGCTime(d time.Duration) Option {
	return func(c *QueryCache) {
		if d > 0 {
			c.gcTime = d
		}
	}
}

func NewQueryCache(staleTime time.Duration, opts ...Option) *QueryCache {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	c := &QueryCache{
		entries:   make(map[string]entry),
		staleTime: staleTime,
		gcTime:    DefaultGCTime,
		prefix:    DefaultPrefix,
		clock:     clock.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached value for key when fresh, otherwise calls fn.
// Errors are never cached.
func Fetch[T any](ctx context.Context, c *QueryCache, key cachekey.QueryKey, fn func(ctx context.Context) (T, error)) (T, error) {
	kind := string(key.Kind)
	id := key.String()

	if v, ok := c.fresh(id); ok {
		if typed, ok := v.(T); ok {
			c.metrics.Lookup(kind, metrics.SourceMemory)
			return typed, nil
		}
	}

	v, err, shared := c.group.Do(id, func() (any, error) {
		if c.store != nil {
			if typed, ok := loadShared[T](ctx, c, key); ok {
				c.put(id, typed)
				c.metrics.Lookup(kind, metrics.SourceShared)
				return typed, nil
			}
		}

		started := c.clock.Now()
		result, err := fn(ctx)
		if err != nil {
			c.metrics.Failure(kind)
			return result, err
		}
		c.metrics.Lookup(kind, metrics.SourceNetwork)
		log.Debugf("Fetched %s in %v", id, c.clock.Now().Sub(started))

		c.put(id, result)
		if c.store != nil {
			saveShared(ctx, c, key, result)
		}
		return result, nil
	})
	if shared {
		log.Debugf("Joined in-flight fetch for %s", id)
	}

	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cached value for %s has unexpected type %T", id, v)
	}
	return typed, nil
}

// IsFresh reports whether key has an entry inside the stale window.
func (c *QueryCache) IsFresh(key cachekey.QueryKey) bool {
	_, ok := c.fresh(key.String())
	return ok
}

// Invalidate drops every in-memory entry and, when a shared store is set, the given keys from it.
func (c *QueryCache) Invalidate(ctx context.Context, keys ...cachekey.QueryKey) error {
	c.mu.Lock()
	if len(keys) == 0 {
		c.entries = make(map[string]entry)
	} else {
		for _, k := range keys {
			delete(c.entries, k.String())
		}
	}
	c.mu.Unlock()

	if c.store == nil || len(keys) == 0 {
		return nil
	}
	storageKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		storageKeys = append(storageKeys, k.StorageKey(c.prefix))
	}
	return c.store.Delete(ctx, storageKeys...)
}

// Len is the number of in-memory entries, fresh or not.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *QueryCache) fresh(id string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || c.clock.Now().Sub(e.fetchedAt) >= c.staleTime {
		return nil, false
	}
	return e.data, true
}

func (c *QueryCache) put(id string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for k, e := range c.entries {
		if now.Sub(e.fetchedAt) >= c.gcTime {
			delete(c.entries, k)
		}
	}
	c.entries[id] = entry{data: data, fetchedAt: now}
}

func loadShared[T any](ctx context.Context, c *QueryCache, key cachekey.QueryKey) (T, bool) {
	var out T
	data, err := c.store.Get(ctx, key.StorageKey(c.prefix))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			log.Warnf("⚠️ Shared cache read failed: %v", err)
		}
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		log.Warnf("⚠️ Discarding undecodable shared cache entry %s: %v", key.StorageKey(c.prefix), err)
		return out, false
	}
	return out, true
}

func saveShared[T any](ctx context.Context, c *QueryCache, key cachekey.QueryKey, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warnf("⚠️ Failed to encode %s for shared cache: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, key.StorageKey(c.prefix), data, c.staleTime); err != nil {
		log.Warnf("⚠️ Shared cache write failed: %v", err)
	}
}
