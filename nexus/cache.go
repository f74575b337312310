package nexus

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// API is the read surface the trackers consume. *Client implements it, and
// *CachedClient wraps any implementation with call-type-scoped caching.
type API interface {
	LatestAdded(ctx context.Context, game string) ([]Mod, error)
	TrackedMods(ctx context.Context, game string) ([]TrackedMod, error)
	Mod(ctx context.Context, game string, modID int) (*Mod, error)
	UpdatedMods(ctx context.Context, game string, period Period) ([]ModUpdate, error)
	Changelogs(ctx context.Context, game string, modID int) (Changelogs, error)
}

// CachedClient is a timestamp-gated cache around the listing endpoints.
// Listings change slowly relative to the poll interval, so re-fetching them
// within the TTL only spends API quota. Per-mod detail and changelog calls
// always pass through: they confirm version changes and must be fresh.
type CachedClient struct {
	inner API
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	fetched time.Time
	value   interface{}
}

// NewCachedClient wraps inner with a TTL cache. A non-positive TTL returns
// inner unchanged.
func NewCachedClient(inner API, ttl time.Duration) API {
	if ttl <= 0 {
		return inner
	}
	return &CachedClient{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachedClient) lookup(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.fetched) >= c.ttl {
		return nil, false
	}
	return entry.value, true
}

func (c *CachedClient) store(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{fetched: c.now(), value: value}
}

func (c *CachedClient) LatestAdded(ctx context.Context, game string) ([]Mod, error) {
	key := "latest_added/" + game
	if v, ok := c.lookup(key); ok {
		return v.([]Mod), nil
	}
	mods, err := c.inner.LatestAdded(ctx, game)
	if err != nil {
		return nil, err
	}
	c.store(key, mods)
	return mods, nil
}

func (c *CachedClient) TrackedMods(ctx context.Context, game string) ([]TrackedMod, error) {
	key := "tracked_mods/" + game
	if v, ok := c.lookup(key); ok {
		return v.([]TrackedMod), nil
	}
	tracked, err := c.inner.TrackedMods(ctx, game)
	if err != nil {
		return nil, err
	}
	c.store(key, tracked)
	return tracked, nil
}

func (c *CachedClient) UpdatedMods(ctx context.Context, game string, period Period) ([]ModUpdate, error) {
	key := fmt.Sprintf("updated/%s/%s", game, period)
	if v, ok := c.lookup(key); ok {
		return v.([]ModUpdate), nil
	}
	updates, err := c.inner.UpdatedMods(ctx, game, period)
	if err != nil {
		return nil, err
	}
	c.store(key, updates)
	return updates, nil
}

func (c *CachedClient) Mod(ctx context.Context, game string, modID int) (*Mod, error) {
	return c.inner.Mod(ctx, game, modID)
}

func (c *CachedClient) Changelogs(ctx context.Context, game string, modID int) (Changelogs, error) {
	return c.inner.Changelogs(ctx, game, modID)
}
