package towns

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/uk-towns-map/internal/cache/keys"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/observability"
)

// Store is the subset of the redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// CachedClient wraps a Fetcher with a short-lived read-through cache.
// Store failures are logged and the upstream fetch proceeds. A
// non-positive ttl disables the cache so every fetch reaches upstream.
type CachedClient struct {
	inner     Fetcher
	store     Store
	base      string
	ttl       time.Duration
	opTimeout time.Duration
	logger    *slog.Logger
}

func NewCachedClient(inner Fetcher, store Store, base string, ttl, opTimeout time.Duration, logger *slog.Logger) *CachedClient {
	if logger == nil {
		logger = slog.Default()
	}
	if opTimeout <= 0 {
		opTimeout = 250 * time.Millisecond
	}
	return &CachedClient{
		inner:     inner,
		store:     store,
		base:      base,
		ttl:       ttl,
		opTimeout: opTimeout,
		logger:    logger,
	}
}

func (c *CachedClient) Fetch(ctx context.Context, limit int) ([]model.TownRecord, error) {
	if limit <= 0 || c.ttl <= 0 {
		return c.inner.Fetch(ctx, limit)
	}
	key := keys.Towns(c.base, limit)

	if records, ok := c.lookup(ctx, key); ok {
		observability.IncCacheHit("towns")
		return records, nil
	}
	observability.IncCacheMiss("towns")

	records, err := c.inner.Fetch(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, records)
	return records, nil
}

func (c *CachedClient) lookup(ctx context.Context, key string) ([]model.TownRecord, bool) {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	b, ok, err := c.store.Get(opCtx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "towns cache get failed", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var records []model.TownRecord
	if err := json.Unmarshal(b, &records); err != nil {
		c.logger.WarnContext(ctx, "towns cache entry unreadable", "key", key, "err", err)
		return nil, false
	}
	return records, true
}

func (c *CachedClient) save(ctx context.Context, key string, records []model.TownRecord) {
	if c.ttl <= 0 {
		return
	}
	b, err := json.Marshal(records)
	if err != nil {
		c.logger.WarnContext(ctx, "towns cache encode failed", "err", err)
		return
	}
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opTimeout)
	defer cancel()
	if err := c.store.Set(opCtx, key, b, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "towns cache set failed", "key", key, "err", err)
	}
}
