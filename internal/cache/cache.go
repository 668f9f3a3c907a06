// Package cache resolves role-name sets to permission names with a process-owned read-through cache.
//
// Entries are keyed by the canonical form of a role-name set (deduplicated, sorted, joined) and are
// versioned: Invalidate bumps the store generation, so results computed before a write can never be
// stored under the new generation.
package cache

import (
	"context"
	"sort"
	"strings"

	"musicsocial/internal/logger"
	"musicsocial/internal/metrics"
)

// KeySeparator joins sorted role names into a cache key.
const KeySeparator = "|"

// Loader resolves the permission names for a role-name set from the stores.
type Loader func(ctx context.Context, roleNames []string) ([]string, error)

// Store is a generation-versioned key/value backend.
type Store interface {
	Generation(ctx context.Context) (uint64, error)
	Get(ctx context.Context, gen uint64, key string) ([]string, bool, error)
	// Set stores perms under gen. Writes for a stale generation must not become visible.
	Set(ctx context.Context, gen uint64, key string, perms []string) error
	// Bump advances the generation, dropping every entry.
	Bump(ctx context.Context) error
}

// PermissionCache is shared by every request; it holds no per-request state.
type PermissionCache struct {
	store   Store
	metrics *metrics.Metrics
	log     *logger.Logger
}

type Option func(*PermissionCache)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *PermissionCache) { c.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *PermissionCache) { c.log = l }
}

// New wraps store. A nil store selects an in-process MemoryStore.
func New(store Store, opts ...Option) *PermissionCache {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &PermissionCache{store: store, log: logger.WithComponent("permission-cache")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the canonical cache key of roleNames. Order and duplicates do not matter.
func Key(roleNames []string) string {
	return strings.Join(canonical(roleNames), KeySeparator)
}

func canonical(roleNames []string) []string {
	seen := make(map[string]struct{}, len(roleNames))
	out := make([]string, 0, len(roleNames))
	for _, n := range roleNames {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// GetOrLoad returns the cached permission names for roleNames, calling load on a miss.
// Concurrent misses for the same key may each call load; the map stays consistent.
// Backend failures degrade to calling load directly.
func (c *PermissionCache) GetOrLoad(ctx context.Context, roleNames []string, load Loader) ([]string, error) {
	names := canonical(roleNames)
	key := strings.Join(names, KeySeparator)

	gen, err := c.store.Generation(ctx)
	if err != nil {
		c.log.Warn("cache generation unavailable, resolving directly", logger.Fields("error", err.Error()))
		c.metrics.CacheMiss()
		return load(ctx, names)
	}

	perms, found, err := c.store.Get(ctx, gen, key)
	if err != nil {
		c.log.Warn("cache read failed", logger.Fields("key", key, "error", err.Error()))
	}
	if found {
		c.metrics.CacheHit()
		return clone(perms), nil
	}

	c.metrics.CacheMiss()
	perms, err = load(ctx, names)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, gen, key, clone(perms)); err != nil {
		c.log.Warn("cache write failed", logger.Fields("key", key, "error", err.Error()))
	}
	return perms, nil
}

// Invalidate drops every cached resolution.
func (c *PermissionCache) Invalidate(ctx context.Context) error {
	if err := c.store.Bump(ctx); err != nil {
		c.log.Error("cache invalidation failed", logger.Fields("error", err.Error()))
		return err
	}
	c.metrics.CacheInvalidated()
	return nil
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
